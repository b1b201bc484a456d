// Package storage defines the client-side persistence interfaces: the
// token store that keeps a CLI session alive across process restarts and
// the shared sentinel errors.
package storage

import "context"

// StoredTokens - сессия в состоянии покоя. Токены хранятся зашифрованными
// (base64 от AES-GCM шифртекста); соль деривации ключа лежит рядом, чтобы
// хранилище можно было открыть по одной парольной фразе.
type StoredTokens struct {
	// Site - базовый URL сервера, которому принадлежат токены.
	Site string `json:"site"`
	// AuthToken - зашифрованный access токен (base64).
	AuthToken string `json:"auth_token"`
	// RefreshToken - зашифрованный refresh токен (base64), опционален.
	RefreshToken string `json:"refresh_token,omitempty"`
	// CsrfToken хранится открыто: он не является секретом без access токена.
	CsrfToken string `json:"csrf_token,omitempty"`
	// Salt - base64 соль для деривации ключа шифрования.
	Salt string `json:"salt"`
	// SavedAt - unix время сохранения.
	SavedAt int64 `json:"saved_at"`
}

// TokenStorage defines the interface for persisting the encrypted session.
type TokenStorage interface {
	// SaveTokens stores or replaces the current session
	SaveTokens(ctx context.Context, tokens *StoredTokens) error

	// GetTokens retrieves the stored session.
	// Returns ErrTokensNotFound if nothing is stored.
	GetTokens(ctx context.Context) (*StoredTokens, error)

	// DeleteTokens removes the stored session (logout)
	DeleteTokens(ctx context.Context) error

	// Close releases the underlying database
	Close() error
}
