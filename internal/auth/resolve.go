package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nivram913/fuse-digiposte/internal/config"
	"github.com/nivram913/fuse-digiposte/internal/logging"
)

// ErrNoToken is returned when no source provides a bearer token.
var ErrNoToken = errors.New("no digiposte token available")

// Sources lists where Resolve looks for a token, in order.
type Sources struct {
	// Flag is the --token value.
	Flag string
	// Configured is api.token after environment overrides.
	Configured string
	// Store holds the token saved by an earlier login.
	Store TokenStore
	// Interactive enables Login as the last resort.
	Interactive bool
	Login       LoginOptions
	Logger      *slog.Logger
}

// SourcesFromConfig builds the default source chain for cfg.
func SourcesFromConfig(cfg *config.Config, flag string, logger *slog.Logger) Sources {
	return Sources{
		Flag:        flag,
		Configured:  cfg.API.Token,
		Store:       NewFileTokenStore(cfg.Auth.StateFile),
		Interactive: cfg.Auth.Interactive,
		Login:       LoginOptionsFromConfig(cfg, logger),
		Logger:      logger,
	}
}

// LoginOptionsFromConfig maps the auth section onto LoginOptions.
func LoginOptionsFromConfig(cfg *config.Config, logger *slog.Logger) LoginOptions {
	return LoginOptions{
		URL:          cfg.Auth.LoginURL,
		Opener:       ExecOpener{Command: cfg.Auth.BrowserCommand, Logger: logger},
		Source:       DropFile{Path: cfg.Auth.TokenFile},
		PollInterval: cfg.PollInterval(),
		Timeout:      cfg.LoginTimeout(),
		Logger:       logger,
	}
}

// Resolve returns the first token found among src. A token obtained through
// an interactive login is saved to the store.
func Resolve(ctx context.Context, src Sources) (string, error) {
	logger := logging.NewComponentLogger(src.Logger, "auth")

	if token := strings.TrimSpace(src.Flag); token != "" {
		logger.Debug("using token from flag")
		return token, nil
	}
	if token := strings.TrimSpace(src.Configured); token != "" {
		logger.Debug("using token from configuration")
		return token, nil
	}
	if src.Store != nil {
		state, err := src.Store.Load()
		if err != nil {
			return "", err
		}
		if state.Token != "" {
			logger.Debug("using stored token", logging.String("saved_at", state.SavedAt.Format(time.RFC3339)))
			return state.Token, nil
		}
	}
	if !src.Interactive {
		return "", ErrNoToken
	}

	token, err := Login(ctx, src.Login)
	if err != nil {
		return "", fmt.Errorf("interactive login: %w", err)
	}
	if src.Store != nil {
		if err := src.Store.Save(State{Token: token}); err != nil {
			logging.WarnWithContext(logger, "could not persist token", "token_store_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next run will ask for a login again"),
				logging.String(logging.FieldErrorHint, "check permissions on auth.state_file"))
		}
	}
	return token, nil
}
