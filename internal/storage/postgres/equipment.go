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

// equipmentColumns - колонки equipment (алиас e) и вычисляемый счётчик открытых заявок.
const equipmentColumns = `
e.id, e.name, e.serial_number, e.department_id, e.employee_id, e.team_id, e.location,
e.purchase_date, e.warranty_expiration, e.status, e.created_at, e.updated_at,
(SELECT count(*) FROM maintenance_requests r
  WHERE r.equipment_id = e.id AND r.stage IN ('NEW', 'IN_PROGRESS'))
`

func scanEquipment(row pgx.Row) (*models.Equipment, error) {
	var (
		e      models.Equipment
		status string
		open   int64
	)

	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.SerialNumber,
		&e.DepartmentID,
		&e.EmployeeID,
		&e.TeamID,
		&e.Location,
		&e.PurchaseDate,
		&e.WarrantyExpiration,
		&status,
		&e.CreatedAt,
		&e.UpdatedAt,
		&open,
	); err != nil {
		return nil, err
	}

	e.Status = models.EquipmentStatus(status)
	e.OpenRequests = int(open)

	return &e, nil
}

// SaveEquipment создаёт запись оборудования.
// Ошибки: storage.ErrAlreadyExists - серийный номер занят;
// storage.ErrNotFound - ссылка на несуществующую бригаду, подразделение или сотрудника.
func (s *Storage) SaveEquipment(ctx context.Context, e *models.Equipment) error {
	const op = "storage.postgres.SaveEquipment"

	query := `
        INSERT INTO equipment (id, name, serial_number, department_id, employee_id, team_id, location,
                               purchase_date, warranty_expiration, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `

	_, err := s.db.Exec(ctx, query,
		e.ID,
		e.Name,
		e.SerialNumber,
		e.DepartmentID,
		e.EmployeeID,
		e.TeamID,
		e.Location,
		e.PurchaseDate,
		e.WarrantyExpiration,
		string(e.Status),
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	return nil
}

// EquipmentByID возвращает оборудование вместе с числом открытых заявок.
func (s *Storage) EquipmentByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	const op = "storage.postgres.EquipmentByID"

	query := `SELECT ` + equipmentColumns + ` FROM equipment e WHERE e.id = $1`

	e, err := scanEquipment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

// ListEquipment возвращает оборудование по фильтру, упорядоченное по имени.
func (s *Storage) ListEquipment(ctx context.Context, filter storage.EquipmentFilter) ([]models.Equipment, error) {
	const op = "storage.postgres.ListEquipment"

	where := []string{"TRUE"}
	args := make([]any, 0, 3)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}

	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		where = append(where, fmt.Sprintf("e.team_id = $%d", len(args)))
	}

	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		where = append(where, fmt.Sprintf("e.department_id = $%d", len(args)))
	}

	query := `SELECT ` + equipmentColumns + ` FROM equipment e WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY e.name, e.id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// MarkEquipmentScrapped переводит оборудование в SCRAPPED.
// Повторный вызов - no-op (changed=false). Отсутствие строки - storage.ErrNotFound.
// Факт изменения и существование строки определяются одним запросом.
func (s *Storage) MarkEquipmentScrapped(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "storage.postgres.MarkEquipmentScrapped"

	query := `
        WITH upd AS (
            UPDATE equipment
            SET status = 'SCRAPPED', updated_at = now()
            WHERE id = $1 AND status <> 'SCRAPPED'
            RETURNING id
        )
        SELECT EXISTS (SELECT 1 FROM upd), EXISTS (SELECT 1 FROM equipment WHERE id = $1)
    `

	var changed, exists bool
	if err := s.db.QueryRow(ctx, query, id).Scan(&changed, &exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return changed, nil
}
