package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/log"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// CreateEquipmentInput - входные данные регистрации оборудования.
type CreateEquipmentInput struct {
	Name               string
	SerialNumber       string
	DepartmentID       *uuid.UUID
	EmployeeID         *uuid.UUID
	TeamID             *uuid.UUID
	Location           string
	PurchaseDate       time.Time
	WarrantyExpiration *time.Time
	Status             models.EquipmentStatus
}

// CreateEquipment регистрирует оборудование.
//
// Валидация: name и serialNumber непустые; purchaseDate задан;
// warrantyExpiration не раньше purchaseDate; статус по умолчанию OPERATIONAL.
// Ошибки: ErrAlreadyExists - серийный номер занят;
// ErrNotFound - нет бригады, подразделения или сотрудника.
func (s *Service) CreateEquipment(ctx context.Context, in CreateEquipmentInput) (*models.Equipment, error) {
	const op = "service.equipment.CreateEquipment"

	lg := log.From(ctx).With("op", op)

	name := strings.TrimSpace(in.Name)
	serial := strings.TrimSpace(in.SerialNumber)
	if name == "" || serial == "" {
		return nil, fmt.Errorf("%s: name and serial number are required: %w", op, ErrInvalidArgument)
	}

	if in.PurchaseDate.IsZero() {
		return nil, fmt.Errorf("%s: purchase date is required: %w", op, ErrInvalidArgument)
	}

	if in.WarrantyExpiration != nil && in.WarrantyExpiration.Before(in.PurchaseDate) {
		return nil, fmt.Errorf("%s: warranty expires before purchase: %w", op, ErrInvalidArgument)
	}

	status := in.Status
	if status == "" {
		status = models.EquipmentOperational
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%s: status %q: %w", op, status, ErrInvalidArgument)
	}

	now := s.now()
	e := &models.Equipment{
		ID:                 uuid.New(),
		Name:               name,
		SerialNumber:       serial,
		DepartmentID:       in.DepartmentID,
		EmployeeID:         in.EmployeeID,
		TeamID:             in.TeamID,
		Location:           strings.TrimSpace(in.Location),
		PurchaseDate:       in.PurchaseDate.UTC(),
		WarrantyExpiration: in.WarrantyExpiration,
		Status:             status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.storage.SaveEquipment(ctx, e); err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	lg.Info("equipment_created", "equipment_id", e.ID.String())

	return e, nil
}

// EquipmentByID возвращает оборудование с числом открытых заявок.
func (s *Service) EquipmentByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	const op = "service.equipment.EquipmentByID"

	if id == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	e, err := s.storage.EquipmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	return e, nil
}

func (s *Service) ListEquipment(ctx context.Context, filter storage.EquipmentFilter) ([]models.Equipment, error) {
	const op = "service.equipment.ListEquipment"

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%s: status: %w", op, ErrInvalidArgument)
	}

	items, err := s.storage.ListEquipment(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	return items, nil
}
