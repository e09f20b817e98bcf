package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/log"
)

// CreateDepartment создаёт подразделение с уникальным (без учёта регистра) именем.
func (s *Service) CreateDepartment(ctx context.Context, name string) (*models.Department, error) {
	const op = "service.departments.CreateDepartment"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: empty name: %w", op, ErrInvalidArgument)
	}

	d := &models.Department{ID: uuid.New(), Name: name, CreatedAt: s.now()}
	if err := s.storage.SaveDepartment(ctx, d); err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	log.From(ctx).Info("department_created", "op", op, "department_id", d.ID.String())

	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const op = "service.departments.ListDepartments"

	items, err := s.storage.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	return items, nil
}
