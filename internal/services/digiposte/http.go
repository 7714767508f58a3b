package digiposte

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/services"
)

const maxErrorBody = 4096

// request describes one API call. Exactly one HTTP request is sent per value.
type request struct {
	operation   string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	expect      int
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// send executes r and returns the response with its body unread. The caller
// must close it. Any status other than r.expect is returned as *StatusError.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, r.operation, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(started)
	if err != nil {
		marker := services.ErrTransport
		if isTimeout(err) {
			marker = services.ErrTimeout
		}
		logging.WithContext(ctx, c.logger).Debug("request failed",
			logging.String("operation", r.operation),
			logging.String("method", r.method),
			logging.String("path", r.path),
			logging.Duration("latency", latency),
			logging.Error(err))
		return nil, services.Wrap(marker, component, r.operation, fmt.Sprintf("execute request (latency=%v)", latency.Round(time.Millisecond)), err)
	}

	logging.WithContext(ctx, c.logger).Debug("request completed",
		logging.String("operation", r.operation),
		logging.String("method", r.method),
		logging.String("path", r.path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency))

	if resp.StatusCode != r.expect {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Expected:   r.expect,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
		marker := services.ErrStatus
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			marker = services.ErrUnauthorized
		}
		return nil, services.Wrap(marker, component, r.operation, "", statusErr)
	}
	return resp, nil
}

// do executes r and returns the full response body.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, component, r.operation, "read response body", err)
	}
	return body, nil
}

// doID executes r and extracts the "id" field of the JSON response.
func (c *Client) doID(ctx context.Context, r request) (string, error) {
	body, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	id, err := decodeID(body)
	if err != nil {
		return "", services.Wrap(services.ErrDecode, component, r.operation, "", err)
	}
	return id, nil
}

func decodeID(body []byte) (string, error) {
	var created struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	raw := bytes.TrimSpace(created.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("response has no id field")
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		if id == "" {
			return "", errors.New("response has an empty id")
		}
		return id, nil
	}
	if raw[0] == '{' || raw[0] == '[' {
		return "", fmt.Errorf("id is not a scalar: %s", raw)
	}
	return string(raw), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
