package postgres

import (
	"context"
	"fmt"

	"github.com/pribylovaa/gearguard/internal/models"
)

// SaveDepartment создаёт подразделение.
// Ошибки: storage.ErrAlreadyExists - имя занято (без учёта регистра).
func (s *Storage) SaveDepartment(ctx context.Context, d *models.Department) error {
	const op = "storage.postgres.SaveDepartment"

	query := `INSERT INTO departments (id, name, created_at) VALUES ($1, $2, $3)`

	if _, err := s.db.Exec(ctx, query, d.ID, d.Name, d.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	return nil
}

// ListDepartments возвращает подразделения, упорядоченные по имени.
func (s *Storage) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const op = "storage.postgres.ListDepartments"

	rows, err := s.db.Query(ctx, `SELECT id, name, created_at FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Department, 0)
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
