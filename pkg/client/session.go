package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trailbaseio/trailbase-go/pkg/api"
)

// refreshSkew - за сколько секунд до истечения access токена начинать
// проактивный refresh, чтобы обновление успело завершиться до экспирации.
const refreshSkew = 60 * time.Second

// User is a read-only projection of the session claims.
type User struct {
	ID    string
	Email string
}

// Claims представляет полезную нагрузку access токена.
// Подпись токена клиентом не проверяется - у клиента нет ключа сервера,
// claims используются только для вычисления срока действия и идентичности.
type Claims struct {
	Email     string `json:"email"`
	CsrfToken string `json:"csrf_token"`
	jwt.RegisteredClaims
}

// session is an immutable snapshot of the authenticated state: the token
// triple, the claims decoded from the current auth token, and the derived
// header set. A nil *session means "anonymous". Sessions are replaced
// wholesale, never mutated, so tokens and claims cannot diverge.
type session struct {
	tokens  api.Tokens
	claims  Claims
	headers http.Header
}

// newSession декодирует claims из auth токена и строит заголовки.
func newSession(tokens *api.Tokens) (*session, error) {
	if tokens == nil {
		return nil, nil
	}

	claims, err := decodeClaims(tokens.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode auth token: %w", err)
	}

	return &session{
		tokens:  *tokens,
		claims:  *claims,
		headers: buildHeaders(tokens),
	}, nil
}

// decodeClaims разбирает JWT без проверки подписи.
func decodeClaims(authToken string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(authToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// buildHeaders constructs the header set attached to every outgoing
// request. Anonymous sessions only carry the content type.
func buildHeaders(tokens *api.Tokens) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	if tokens == nil {
		return headers
	}

	headers.Set("Authorization", "Bearer "+tokens.AuthToken)
	if tokens.RefreshToken != nil {
		headers.Set("Refresh-Token", *tokens.RefreshToken)
	}
	if tokens.CsrfToken != nil {
		headers.Set("CSRF-Token", *tokens.CsrfToken)
	}
	return headers
}

// expiresAt возвращает срок действия access токена.
func (s *session) expiresAt() (time.Time, bool) {
	if s == nil || s.claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return s.claims.ExpiresAt.Time, true
}

// expired reports whether the access token is past its expiry.
func (s *session) expired(now time.Time) bool {
	exp, ok := s.expiresAt()
	return ok && exp.Before(now)
}

// staleRefreshToken returns the refresh token iff the access token is
// within refreshSkew of expiring (or already expired) and a refresh token
// exists. Otherwise nil: no refresh needed or none possible.
func (s *session) staleRefreshToken(now time.Time) *string {
	if s == nil || s.tokens.RefreshToken == nil {
		return nil
	}
	exp, ok := s.expiresAt()
	if !ok {
		return nil
	}
	if exp.Add(-refreshSkew).Before(now) {
		return s.tokens.RefreshToken
	}
	return nil
}

// user проецирует claims в пользователя. Никогда не хранится отдельно.
func (s *session) user() *User {
	if s == nil {
		return nil
	}
	return &User{
		ID:    s.claims.Subject,
		Email: s.claims.Email,
	}
}

// requestHeaders возвращает заголовки сессии; для анонимной сессии
// только базовые.
func (s *session) requestHeaders() http.Header {
	if s == nil {
		return buildHeaders(nil)
	}
	return s.headers
}
