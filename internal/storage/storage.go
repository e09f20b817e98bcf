// storage задаёт контракты слоя хранения: пользователи и их единственный
// refresh-токен, бригады, оборудование и заявки на обслуживание.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/password"
)

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists - нарушение уникальности (email/username/serial/team и department name).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByLogin находит пользователя по email или username (без учёта регистра).
	UserByLogin(ctx context.Context, login string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetRefreshToken безусловно записывает хэш refresh-токена (nil - очистка).
	SetRefreshToken(ctx context.Context, id uuid.UUID, hash *string) error
	// SwapRefreshToken атомарно заменяет oldHash на newHash.
	// false без ошибки означает, что текущее значение уже не равно oldHash.
	SwapRefreshToken(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error)
	// UpdatePassword записывает новый хэш пароля.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash password.Hashed) error
	// UpdateRole меняет роль; для роли, отличной от TECHNICIAN, бригада сбрасывается.
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
	// AssignTeam назначает техника в бригаду.
	AssignTeam(ctx context.Context, id, teamID uuid.UUID) (*models.User, error)
}

// TeamStorage выполняет операции над бригадами.
type TeamStorage interface {
	SaveTeam(ctx context.Context, team *models.Team) error
	TeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// DepartmentStorage выполняет операции над подразделениями.
type DepartmentStorage interface {
	SaveDepartment(ctx context.Context, d *models.Department) error
	ListDepartments(ctx context.Context) ([]models.Department, error)
}

// EquipmentFilter - фильтр списка оборудования; nil-поля не фильтруют.
type EquipmentFilter struct {
	Status       *models.EquipmentStatus
	TeamID       *uuid.UUID
	DepartmentID *uuid.UUID
}

// EquipmentStorage выполняет операции над оборудованием.
type EquipmentStorage interface {
	SaveEquipment(ctx context.Context, e *models.Equipment) error
	// EquipmentByID возвращает оборудование вместе с числом открытых заявок.
	EquipmentByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	ListEquipment(ctx context.Context, filter EquipmentFilter) ([]models.Equipment, error)
	// MarkEquipmentScrapped переводит оборудование в SCRAPPED.
	// false без ошибки - оборудование уже было списано.
	MarkEquipmentScrapped(ctx context.Context, id uuid.UUID) (bool, error)
}

// RequestFilter - фильтр списка заявок; nil-поля не фильтруют.
// OverdueBefore отбирает открытые заявки с scheduled_date строго раньше момента.
type RequestFilter struct {
	EquipmentID   *uuid.UUID
	TeamID        *uuid.UUID
	TechnicianID  *uuid.UUID
	Stage         *models.Stage
	OverdueBefore *time.Time
}

// RequestUpdate - частичный апдейт заявки.
// Параметры задаются pointer-полями: только непустые указатели обновляются в БД.
type RequestUpdate struct {
	Subject            *string
	Stage              *models.Stage
	ScheduledDate      *time.Time
	ClearScheduledDate bool
	DurationHours      *float64
	TechnicianID       *uuid.UUID
}

// RequestStorage выполняет операции над заявками.
type RequestStorage interface {
	SaveRequest(ctx context.Context, r *models.MaintenanceRequest) error
	RequestByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.MaintenanceRequest, error)
	// UpdateRequest применяет апдейт и возвращает стадию до изменения,
	// прочитанную под блокировкой строки в том же запросе.
	UpdateRequest(ctx context.Context, id uuid.UUID, upd RequestUpdate) (models.Stage, *models.MaintenanceRequest, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	TeamStorage
	DepartmentStorage
	EquipmentStorage
	RequestStorage
	Close()
}
