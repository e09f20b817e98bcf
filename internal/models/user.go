package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/pkg/password"
)

// Role - роль пользователя в системе.
type Role string

const (
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
)

// Valid сообщает, входит ли роль в допустимый набор.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleTechnician
}

// User - модель пользователя.
//
// RefreshTokenHash - sha256 (base64url) единственного действующего
// refresh-токена; nil означает отсутствие активной сессии.
// TeamID допустим только для RoleTechnician.
type User struct {
	ID               uuid.UUID
	Username         string
	Email            string
	FullName         string
	PasswordHash     password.Hashed
	Role             Role
	TeamID           *uuid.UUID
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
