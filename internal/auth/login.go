package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/nivram913/fuse-digiposte/internal/logging"
)

// ErrLoginTimeout is returned when no token arrives before the login deadline.
var ErrLoginTimeout = errors.New("login timed out waiting for a token")

// Opener shows the login page to the user.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// ExecOpener runs a browser command with the URL as its last argument.
type ExecOpener struct {
	// Command is split on whitespace. Empty selects xdg-open, or open on macOS.
	Command string
	Logger  *slog.Logger
}

// Open starts the browser command without waiting for it. Only a command
// that cannot be started is an error; a non-zero exit is logged once the
// process is reaped.
func (o ExecOpener) Open(_ context.Context, url string) error {
	fields := strings.Fields(o.Command)
	if len(fields) == 0 {
		fields = []string{DefaultBrowserCommand()}
	}
	args := append(fields[1:], url)

	// Not bound to the login context: the browser outlives the login wait.
	cmd := exec.Command(fields[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open login page with %s: %w", fields[0], err)
	}

	logger := logging.NewComponentLogger(o.Logger, "auth")
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug("browser command exited",
				logging.String("command", fields[0]),
				logging.Error(err),
				logging.String("stderr", strings.TrimSpace(stderr.String())))
		}
	}()
	return nil
}

// DefaultBrowserCommand is the opener used when auth.browser_command is empty.
func DefaultBrowserCommand() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

// TokenSource is polled during login until it yields a token.
type TokenSource interface {
	// Token reports the token once it is available. ok is false while the
	// login is still pending.
	Token(ctx context.Context) (token string, ok bool, err error)
}

// DropFile is a TokenSource backed by a file the user or a browser helper
// writes the session token into. The file is removed once consumed.
type DropFile struct {
	Path string
}

// Token reads the drop file.
func (d DropFile) Token(context.Context) (string, bool, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false, nil
	}
	if err := os.Remove(d.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("remove token file: %w", err)
	}
	return token, true, nil
}

// LoginOptions configures Login.
type LoginOptions struct {
	URL          string
	Opener       Opener
	Source       TokenSource
	PollInterval time.Duration
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Login opens the login page and waits for the token source to produce a
// session token.
func Login(ctx context.Context, opts LoginOptions) (string, error) {
	if opts.Source == nil {
		return "", errors.New("login: token source required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "auth")

	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// A token left over from an earlier attempt is used without opening the page.
	if token, ok, err := opts.Source.Token(ctx); err != nil {
		return "", err
	} else if ok {
		return token, nil
	}

	if opts.Opener != nil && strings.TrimSpace(opts.URL) != "" {
		if err := opts.Opener.Open(ctx, opts.URL); err != nil {
			logging.WarnWithContext(logger, "could not open login page", "login_open_failed",
				logging.String("url", opts.URL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "login page must be opened manually"),
				logging.String(logging.FieldErrorHint, "set auth.browser_command or open the URL yourself"))
		}
	}
	logger.Info("waiting for login", logging.String("url", opts.URL), logging.Duration("poll_interval", interval))

	poll := time.NewTicker(interval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrLoginTimeout
			}
			return "", ctx.Err()
		case <-poll.C:
			token, ok, err := opts.Source.Token(ctx)
			if err != nil {
				return "", err
			}
			if ok {
				logger.Info("login completed")
				return token, nil
			}
		}
	}
}
