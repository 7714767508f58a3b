package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport     = errors.New("transport error")
	ErrTimeout       = errors.New("timeout")
	ErrStatus        = errors.New("unexpected status")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrDecode        = errors.New("decode error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint maps a tagged error to the next step an operator should take. It is
// logged under the error_hint key.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "token rejected; run `digiposte login` or pass a fresh --token"
	case errors.Is(err, ErrTimeout):
		return "request timed out; check connectivity or raise api.timeout_seconds"
	case errors.Is(err, ErrTransport):
		return "could not reach the API; check network and api.base_url"
	case errors.Is(err, ErrStatus):
		return "the API refused the request; verify the object IDs"
	case errors.Is(err, ErrDecode):
		return "unexpected API response body; the API may have changed"
	case errors.Is(err, ErrValidation):
		return "check the command arguments"
	case errors.Is(err, ErrConfiguration):
		return "check the configuration file (digiposte config validate)"
	case errors.Is(err, ErrNotFound):
		return "the path or object does not exist"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
