package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/trailbaseio/trailbase-go/internal/storage"
)

var tokensKey = []byte("current")

// SaveTokens stores or replaces the current session
func (s *Storage) SaveTokens(ctx context.Context, tokens *storage.StoredTokens) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket == nil {
			return fmt.Errorf("tokens bucket not found")
		}

		// Сериализуем данные в JSON
		data, err := json.Marshal(tokens)
		if err != nil {
			return fmt.Errorf("failed to marshal tokens: %w", err)
		}

		// Сохраняем в bucket
		if err := bucket.Put(tokensKey, data); err != nil {
			return fmt.Errorf("failed to save tokens: %w", err)
		}

		return nil
	})
}

// GetTokens retrieves the stored session
func (s *Storage) GetTokens(ctx context.Context) (*storage.StoredTokens, error) {
	var tokens *storage.StoredTokens

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket == nil {
			return fmt.Errorf("tokens bucket not found")
		}

		// Получаем данные
		data := bucket.Get(tokensKey)
		if data == nil {
			return storage.ErrTokensNotFound
		}

		// Десериализуем
		tokens = &storage.StoredTokens{}
		if err := json.Unmarshal(data, tokens); err != nil {
			return fmt.Errorf("failed to unmarshal tokens: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// DeleteTokens removes the stored session (logout)
func (s *Storage) DeleteTokens(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket == nil {
			return fmt.Errorf("tokens bucket not found")
		}

		// Проверяем существование данных
		if bucket.Get(tokensKey) == nil {
			return storage.ErrTokensNotFound
		}

		// Удаляем данные
		if err := bucket.Delete(tokensKey); err != nil {
			return fmt.Errorf("failed to delete tokens: %w", err)
		}

		return nil
	})
}
