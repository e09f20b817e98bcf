package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// requestColumns - колонки maintenance_requests (алиас m) для SELECT/RETURNING.
const requestColumns = `
m.id, m.subject, m.equipment_id, m.team_id, m.technician_id, m.request_type,
m.stage, m.scheduled_date, m.duration_hours, m.created_at, m.updated_at
`

func requestDest(r *models.MaintenanceRequest, typ, stage *string) []any {
	return []any{
		&r.ID,
		&r.Subject,
		&r.EquipmentID,
		&r.TeamID,
		&r.TechnicianID,
		typ,
		stage,
		&r.ScheduledDate,
		&r.DurationHours,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

func scanRequest(row pgx.Row) (*models.MaintenanceRequest, error) {
	var (
		r     models.MaintenanceRequest
		typ   string
		stage string
	)

	if err := row.Scan(requestDest(&r, &typ, &stage)...); err != nil {
		return nil, err
	}

	r.Type = models.RequestType(typ)
	r.Stage = models.Stage(stage)

	return &r, nil
}

// SaveRequest создаёт заявку.
// Ошибки: storage.ErrNotFound - нет оборудования/бригады/техника.
func (s *Storage) SaveRequest(ctx context.Context, r *models.MaintenanceRequest) error {
	const op = "storage.postgres.SaveRequest"

	query := `
        INSERT INTO maintenance_requests (id, subject, equipment_id, team_id, technician_id, request_type,
                                          stage, scheduled_date, duration_hours, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `

	_, err := s.db.Exec(ctx, query,
		r.ID,
		r.Subject,
		r.EquipmentID,
		r.TeamID,
		r.TechnicianID,
		string(r.Type),
		string(r.Stage),
		r.ScheduledDate,
		r.DurationHours,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	return nil
}

func (s *Storage) RequestByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	const op = "storage.postgres.RequestByID"

	query := `SELECT ` + requestColumns + ` FROM maintenance_requests m WHERE m.id = $1`

	r, err := scanRequest(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r, nil
}

// ListRequests возвращает заявки по фильтру, новые первыми.
func (s *Storage) ListRequests(ctx context.Context, filter storage.RequestFilter) ([]models.MaintenanceRequest, error) {
	const op = "storage.postgres.ListRequests"

	where := []string{"TRUE"}
	args := make([]any, 0, 5)

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.EquipmentID != nil {
		add("m.equipment_id = $%d", *filter.EquipmentID)
	}
	if filter.TeamID != nil {
		add("m.team_id = $%d", *filter.TeamID)
	}
	if filter.TechnicianID != nil {
		add("m.technician_id = $%d", *filter.TechnicianID)
	}
	if filter.Stage != nil {
		add("m.stage = $%d", string(*filter.Stage))
	}
	if filter.OverdueBefore != nil {
		add("m.scheduled_date < $%d AND m.stage IN ('NEW', 'IN_PROGRESS')", *filter.OverdueBefore)
	}

	query := `SELECT ` + requestColumns + ` FROM maintenance_requests m WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY m.created_at DESC, m.id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.MaintenanceRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// UpdateRequest выполняет частичный апдейт: обновляются только поля с непустыми
// указателями, updated_at сдвигается всегда. Предыдущая стадия читается CTE
// под FOR UPDATE в том же запросе, поэтому она точна и при конкурентных апдейтах.
func (s *Storage) UpdateRequest(ctx context.Context, id uuid.UUID, upd storage.RequestUpdate) (models.Stage, *models.MaintenanceRequest, error) {
	const op = "storage.postgres.UpdateRequest"

	sets := []string{"updated_at = now()"}
	args := []any{id}

	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Subject != nil {
		set("subject", *upd.Subject)
	}
	if upd.Stage != nil {
		set("stage", string(*upd.Stage))
	}
	if upd.ClearScheduledDate {
		sets = append(sets, "scheduled_date = NULL")
	} else if upd.ScheduledDate != nil {
		set("scheduled_date", *upd.ScheduledDate)
	}
	if upd.DurationHours != nil {
		set("duration_hours", *upd.DurationHours)
	}
	if upd.TechnicianID != nil {
		set("technician_id", *upd.TechnicianID)
	}

	query := fmt.Sprintf(`
        WITH prev AS (
            SELECT id, stage FROM maintenance_requests WHERE id = $1 FOR UPDATE
        )
        UPDATE maintenance_requests AS m
        SET %s
        FROM prev
        WHERE m.id = prev.id
        RETURNING prev.stage, %s`, strings.Join(sets, ", "), requestColumns)

	var (
		r         models.MaintenanceRequest
		typ       string
		stage     string
		prevStage string
	)

	dest := append([]any{&prevStage}, requestDest(&r, &typ, &stage)...)
	if err := s.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", nil, fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	r.Type = models.RequestType(typ)
	r.Stage = models.Stage(stage)

	return models.Stage(prevStage), &r, nil
}
