// Package api contains the wire types of the TrailBase HTTP API: the token
// triple, auth endpoint bodies, record/transaction payloads and realtime
// events. Everything here is plain data and marshals 1:1 to the documented
// JSON contract.
package api

// Tokens представляет тройку учетных данных, выданную сервером.
// AuthToken - это JWT, refresh и CSRF токены опциональны.
type Tokens struct {
	AuthToken    string  `json:"auth_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	CsrfToken    *string `json:"csrf_token,omitempty"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutRequest представляет запрос на инвалидацию refresh токена
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest представляет запрос на обновление access токена
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse представляет ответ с перевыпущенным access токеном.
// Refresh токен не перевыпускается и остается прежним.
type RefreshResponse struct {
	AuthToken string  `json:"auth_token"`
	CsrfToken *string `json:"csrf_token,omitempty"`
}

// StatusResponse represents the cookie-to-token hoist returned by
// GET api/auth/v1/status. All fields are absent for anonymous callers.
type StatusResponse struct {
	AuthToken    *string `json:"auth_token,omitempty"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	CsrfToken    *string `json:"csrf_token,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
