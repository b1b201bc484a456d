package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common client errors
var (
	// ErrUnauthenticated indicates an operation that requires a session
	// was called on an anonymous client.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrMissingRefreshToken indicates the session has no refresh token.
	ErrMissingRefreshToken = errors.New("missing refresh token")
)

// StatusError is the typed error for non-2xx HTTP responses. It carries
// the status code and the raw response body; network-level failures are
// never wrapped into StatusError and propagate as transport errors.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("unexpected status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, string(e.Body))
}

// ClientError reports whether the server rejected the request as
// malformed or unauthorized (4xx).
func (e *StatusError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ServerError reports whether the request failed server-side (5xx).
func (e *StatusError) ServerError() bool {
	return e.StatusCode >= 500
}

// AsStatusError извлекает *StatusError из цепочки ошибок.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
