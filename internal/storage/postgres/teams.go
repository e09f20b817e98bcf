package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// SaveTeam создаёт бригаду; имя уникально без учёта регистра.
func (s *Storage) SaveTeam(ctx context.Context, team *models.Team) error {
	const op = "storage.postgres.SaveTeam"

	query := `INSERT INTO teams (id, name, created_at) VALUES ($1, $2, $3)`

	if _, err := s.db.Exec(ctx, query, team.ID, team.Name, team.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	return nil
}

func (s *Storage) TeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	const op = "storage.postgres.TeamByID"

	var team models.Team
	err := s.db.QueryRow(ctx, `SELECT id, name, created_at FROM teams WHERE id = $1`, id).
		Scan(&team.ID, &team.Name, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &team, nil
}

func (s *Storage) ListTeams(ctx context.Context) ([]models.Team, error) {
	const op = "storage.postgres.ListTeams"

	rows, err := s.db.Query(ctx, `SELECT id, name, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return teams, nil
}
