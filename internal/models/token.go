package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenPair - пара токенов, выдаваемая при входе и ротации.
type TokenPair struct {
	// AccessToken - короткоживущий JWT для доступа к API.
	AccessToken string
	// RefreshToken - JWT для выпуска новой пары; на сервере хранится только его хэш.
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Principal - аутентифицированный субъект, извлечённый из access-токена.
type Principal struct {
	UserID   uuid.UUID
	Email    string
	Username string
	Role     Role
}
