package validation

import (
	"fmt"
	"regexp"
)

// APINamePattern определяет допустимый формат имени record API.
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
// Длина: 1-128 символов
var APINamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,128}$`)

const (
	// MaxAPINameLen максимальная длина имени API
	MaxAPINameLen = 128
)

// ValidateAPIName проверяет, что имя record API безопасно подставлять
// в путь запроса.
func ValidateAPIName(name string) error {
	if name == "" {
		return fmt.Errorf("api name cannot be empty")
	}

	if len(name) > MaxAPINameLen {
		return fmt.Errorf("api name must not exceed %d characters", MaxAPINameLen)
	}

	if !APINamePattern.MatchString(name) {
		return fmt.Errorf("api name can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidateRecordID проверяет, что идентификатор записи не пуст и не
// содержит разделителей пути.
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	for _, r := range id {
		if r == '/' || r == '?' || r == '#' {
			return fmt.Errorf("record id contains forbidden character %q", r)
		}
	}

	return nil
}
