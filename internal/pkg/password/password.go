// password разделяет открытый пароль и его bcrypt-хэш на уровне типов:
// Plaintext приходит от клиента и никогда не сохраняется, Hashed хранится в БД
// и никогда не сравнивается как строка.
package password

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/gearguard/internal/pkg/redact"
)

// MinLength - минимальная длина пароля в рунах.
const MinLength = 8

// MaxBytes - ограничение bcrypt на длину входа.
const MaxBytes = 72

var (
	// ErrEmpty - пароль пустой.
	ErrEmpty = errors.New("password is empty")
	// ErrTooShort - пароль короче MinLength.
	ErrTooShort = errors.New("password is too short")
	// ErrTooLong - пароль длиннее MaxBytes байт.
	ErrTooLong = errors.New("password is too long")
)

// Plaintext - пароль в открытом виде.
type Plaintext string

// String не раскрывает значение при случайной печати.
func (p Plaintext) String() string { return redact.Password() }

// LogValue не раскрывает значение в slog.
func (p Plaintext) LogValue() slog.Value { return slog.StringValue(redact.Password()) }

// Validate проверяет политику паролей.
func (p Plaintext) Validate() error {
	switch {
	case len(p) == 0:
		return ErrEmpty
	case utf8.RuneCountInString(string(p)) < MinLength:
		return ErrTooShort
	case len(p) > MaxBytes:
		return ErrTooLong
	}

	return nil
}

// Hashed - bcrypt-хэш пароля.
type Hashed string

// Hash хэширует пароль с заданной стоимостью (cost <= 0 -> bcrypt.DefaultCost).
func Hash(p Plaintext, cost int) (Hashed, error) {
	const op = "password.Hash"

	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	b, err := bcrypt.GenerateFromPassword([]byte(p), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w", op, ErrTooLong)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return Hashed(b), nil
}

// Matches сравнивает открытый пароль с хэшем за постоянное время.
func (h Hashed) Matches(p Plaintext) bool {
	if h == "" || p == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(h), []byte(p)) == nil
}
