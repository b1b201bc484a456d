package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/trailbaseio/trailbase-go/internal/crypto"
	"github.com/trailbaseio/trailbase-go/pkg/api"
)

// EncryptedTokenStore is the encryption layer between the SDK's token
// triple and a TokenStorage backend: tokens are encrypted with a key
// derived from the store passphrase before they touch disk.
type EncryptedTokenStore struct {
	storage TokenStorage
}

// NewEncryptedTokenStore создает слой шифрования поверх storage.
func NewEncryptedTokenStore(storage TokenStorage) *EncryptedTokenStore {
	return &EncryptedTokenStore{storage: storage}
}

// Save шифрует токены ключом из passphrase и сохраняет их вместе со
// свежей солью деривации.
func (s *EncryptedTokenStore) Save(ctx context.Context, site, passphrase string, tokens *api.Tokens) error {
	if tokens == nil {
		return fmt.Errorf("tokens are nil")
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	key, err := crypto.DeriveStoreKey(passphrase, site, salt)
	if err != nil {
		return fmt.Errorf("failed to derive store key: %w", err)
	}

	encryptedAuth, err := crypto.Encrypt([]byte(tokens.AuthToken), key)
	if err != nil {
		return fmt.Errorf("failed to encrypt auth token: %w", err)
	}

	stored := &StoredTokens{
		Site:      site,
		AuthToken: base64.StdEncoding.EncodeToString(encryptedAuth),
		Salt:      base64.StdEncoding.EncodeToString(salt),
		SavedAt:   time.Now().Unix(),
	}

	if tokens.RefreshToken != nil {
		encryptedRefresh, err := crypto.Encrypt([]byte(*tokens.RefreshToken), key)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		stored.RefreshToken = base64.StdEncoding.EncodeToString(encryptedRefresh)
	}
	if tokens.CsrfToken != nil {
		stored.CsrfToken = *tokens.CsrfToken
	}

	return s.storage.SaveTokens(ctx, stored)
}

// Load читает сохраненную сессию и расшифровывает токены. Возвращает
// ErrSiteMismatch, если сессия принадлежит другому серверу.
func (s *EncryptedTokenStore) Load(ctx context.Context, site, passphrase string) (*api.Tokens, error) {
	stored, err := s.storage.GetTokens(ctx)
	if err != nil {
		return nil, err
	}
	if stored.Site != site {
		return nil, ErrSiteMismatch
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	key, err := crypto.DeriveStoreKey(passphrase, site, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive store key: %w", err)
	}

	authToken, err := s.decryptField(stored.AuthToken, key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt auth token: %w", err)
	}

	tokens := &api.Tokens{AuthToken: string(authToken)}
	if stored.RefreshToken != "" {
		refreshToken, err := s.decryptField(stored.RefreshToken, key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
		refresh := string(refreshToken)
		tokens.RefreshToken = &refresh
	}
	if stored.CsrfToken != "" {
		csrf := stored.CsrfToken
		tokens.CsrfToken = &csrf
	}
	return tokens, nil
}

// Delete удаляет сохраненную сессию.
func (s *EncryptedTokenStore) Delete(ctx context.Context) error {
	return s.storage.DeleteTokens(ctx)
}

func (s *EncryptedTokenStore) decryptField(encoded string, key []byte) ([]byte, error) {
	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return crypto.Decrypt(encrypted, key)
}
