package validation

import (
	"errors"
	"strings"
)

// Ошибки валидации входных данных аутентификации
var (
	// ErrEmailRequired email не передан или пустой
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordRequired пароль не передан или пустой
	ErrPasswordRequired = errors.New("password is required")
	// ErrIsActiveRequired флаг is_active не передан
	ErrIsActiveRequired = errors.New("is_active is required")
)

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям и в нижнем регистре.
// Уникальность email в хранилище проверяется по нормализованному значению,
// поэтому "A@X.com" и "a@x.com" считаются одним адресом.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials проверяет наличие email и пароля.
// Пароль не тримится: пробелы являются частью пароля.
func ValidateCredentials(email, password string) error {
	if NormalizeEmail(email) == "" {
		return ErrEmailRequired
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// ValidateSignUp проверяет обязательные поля регистрации.
// is_active обязателен, но явное значение false допустимо.
func ValidateSignUp(email, password string, isActive *bool) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if isActive == nil {
		return ErrIsActiveRequired
	}
	return nil
}
