package api

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// BigInt is an arbitrary-precision integer that survives JSON round-trips
// bit-for-bit. Standard JSON number parsing goes through float64 and loses
// precision above 2^53; BigInt keeps the raw decimal digits instead.
//
// Используйте BigInt для INTEGER колонок, которые могут выходить за
// пределы точности float64 (например, snowflake id).
type BigInt struct {
	big.Int
}

// NewBigInt создает BigInt из int64.
func NewBigInt(v int64) *BigInt {
	b := &BigInt{}
	b.SetInt64(v)
	return b
}

// MarshalJSON пишет число как голые десятичные цифры, без кавычек.
func (b BigInt) MarshalJSON() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalJSON читает число из сырого текста источника. Принимает как
// JSON number, так и число в строке.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if _, ok := b.SetString(s, 10); !ok {
		return fmt.Errorf("invalid integer literal: %q", s)
	}
	return nil
}

// URLBytes is a byte slice that marshals as a URL-safe base64 string.
// Plain []byte fields already use the standard alphabet via encoding/json;
// URL-safe is what the backend emits for binary primary keys.
type URLBytes []byte

// MarshalJSON кодирует байты в base64url без padding.
func (u URLBytes) MarshalJSON() ([]byte, error) {
	return []byte(`"` + base64.RawURLEncoding.EncodeToString(u) + `"`), nil
}

// UnmarshalJSON принимает base64 в стандартном или URL-safe алфавите.
func (u *URLBytes) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	decoded, err := DecodeBase64(s)
	if err != nil {
		return err
	}
	*u = decoded
	return nil
}

// DecodeBase64 decodes a base64 string accepting both the standard and the
// URL-safe alphabet, padded or not.
func DecodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var firstErr error
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("failed to decode base64: %w", firstErr)
}
