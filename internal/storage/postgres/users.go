package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/password"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// userColumns - единый список колонок users (алиас u) для SELECT/RETURNING.
const userColumns = `
u.id, u.username, u.email, u.full_name, u.password_hash, u.role,
u.team_id, u.refresh_token_hash, u.created_at, u.updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user models.User
		hash string
		role string
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&hash,
		&role,
		&user.TeamID,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.PasswordHash = password.Hashed(hash)
	user.Role = models.Role(role)

	return &user, nil
}

// SaveUser создаёт нового пользователя.
// Ошибки: storage.ErrAlreadyExists при конфликте email/username.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
        INSERT INTO users (id, username, email, full_name, password_hash, role, team_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		string(user.PasswordHash),
		string(user.Role),
		user.TeamID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	return nil
}

// UserByLogin находит пользователя по email или username (CITEXT, без учёта регистра).
func (s *Storage) UserByLogin(ctx context.Context, login string) (*models.User, error) {
	const op = "storage.postgres.UserByLogin"

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 OR u.username = $1 LIMIT 1`

	user, err := scanUser(s.db.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// SetRefreshToken безусловно записывает хэш refresh-токена (nil очищает сессию).
func (s *Storage) SetRefreshToken(ctx context.Context, id uuid.UUID, hash *string) error {
	const op = "storage.postgres.SetRefreshToken"

	query := `
        UPDATE users
        SET refresh_token_hash = $2, updated_at = now()
        WHERE id = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SwapRefreshToken - compare-and-swap хэша refresh-токена одной строкой UPDATE.
// Из двух конкурентных ротаций одного токена строку обновит только первая:
// вторая после снятия блокировки перечитает строку и не пройдёт условие WHERE.
func (s *Storage) SwapRefreshToken(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error) {
	const op = "storage.postgres.SwapRefreshToken"

	query := `
        UPDATE users
        SET refresh_token_hash = $3, updated_at = now()
        WHERE id = $1 AND refresh_token_hash = $2
    `

	cmdTag, err := s.db.Exec(ctx, query, id, oldHash, newHash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// UpdatePassword записывает новый хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, hash password.Hashed) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
        UPDATE users
        SET password_hash = $2, updated_at = now()
        WHERE id = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, id, string(hash))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdateRole меняет роль и в том же UPDATE сбрасывает бригаду,
// если новая роль не TECHNICIAN.
func (s *Storage) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	const op = "storage.postgres.UpdateRole"

	query := `
        UPDATE users AS u
        SET role = $2::text,
            team_id = CASE WHEN $2::text = 'TECHNICIAN' THEN u.team_id ELSE NULL END,
            updated_at = now()
        WHERE u.id = $1
        RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRow(ctx, query, id, string(role)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// AssignTeam назначает бригаду технику.
// Ошибки: storage.ErrNotFound - нет пользователя-техника или бригады.
func (s *Storage) AssignTeam(ctx context.Context, id, teamID uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.AssignTeam"

	query := `
        UPDATE users AS u
        SET team_id = $2, updated_at = now()
        WHERE u.id = $1 AND u.role = 'TECHNICIAN'
        RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRow(ctx, query, id, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	return user, nil
}
