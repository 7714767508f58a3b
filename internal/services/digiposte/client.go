package digiposte

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/services"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.digiposte.fr/api/v3"

const component = "digiposte"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ObjectKind distinguishes documents from folders in rename, trash and move calls.
type ObjectKind int

const (
	KindFolder ObjectKind = iota
	KindDocument
)

func (k ObjectKind) String() string {
	if k == KindDocument {
		return "document"
	}
	return "folder"
}

// Client is an authenticated Digiposte session. It is safe for concurrent
// use; nothing is mutated after New returns.
type Client struct {
	token      string
	baseURL    string
	timeout    time.Duration
	httpClient HTTPDoer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the default HTTP client. The caller owns its
// redirect policy.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a session for the supplied bearer token.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, services.Wrap(services.ErrValidation, component, "new client", "bearer token required", nil)
	}
	client := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = newHTTPClient(client.timeout)
	}
	client.logger = logging.NewComponentLogger(client.logger, component)
	return client, nil
}

// Close releases idle connections held by the default transport.
func (c *Client) Close() error {
	type idleCloser interface{ CloseIdleConnections() }
	if closer, ok := c.httpClient.(idleCloser); ok {
		closer.CloseIdleConnections()
	}
	return nil
}

// newHTTPClient returns a client that reports redirects as responses instead
// of following them.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// StatusError reports a response whose status differs from the one the
// endpoint returns on success.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Expected   int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("digiposte %s %s returned %d (expected %d)", e.Method, e.Path, e.StatusCode, e.Expected)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
