package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/log"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// CreateRequestInput - входные данные новой заявки.
type CreateRequestInput struct {
	Subject       string
	EquipmentID   uuid.UUID
	Type          models.RequestType
	TeamID        *uuid.UUID
	TechnicianID  *uuid.UUID
	ScheduledDate *time.Time
	DurationHours float64
}

// UpdateRequestInput - частичный апдейт заявки; nil-поля не меняются.
// ClearScheduledDate снимает дату и имеет приоритет над ScheduledDate.
type UpdateRequestInput struct {
	Subject            *string
	Stage              *models.Stage
	ScheduledDate      *time.Time
	ClearScheduledDate bool
	DurationHours      *float64
	TechnicianID       *uuid.UUID
}

// RequestListFilter - фильтр списка заявок.
type RequestListFilter struct {
	EquipmentID  *uuid.UUID
	TeamID       *uuid.UUID
	TechnicianID *uuid.UUID
	Stage        *models.Stage
	OverdueOnly  bool
}

// UpdateResult - итог апдейта заявки и исход каскада списания.
type UpdateResult struct {
	Request *models.MaintenanceRequest
	Cascade CascadeOutcome
}

// CreateRequest создаёт заявку в стадии NEW.
//
// Валидация: subject непустой; тип CORRECTIVE/PREVENTIVE; PREVENTIVE требует
// scheduledDate; durationHours >= 0 и конечен.
// Ошибки: ErrNotFound - нет оборудования; ErrEquipmentScrapped - оборудование списано.
// Бригада по умолчанию наследуется от оборудования.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.MaintenanceRequest, error) {
	const op = "service.requests.CreateRequest"

	lg := log.From(ctx).With("op", op, "equipment_id", in.EquipmentID.String())

	subject := strings.TrimSpace(in.Subject)
	if subject == "" || in.EquipmentID == uuid.Nil {
		return nil, fmt.Errorf("%s: subject and equipment are required: %w", op, ErrInvalidArgument)
	}

	if !in.Type.Valid() {
		return nil, fmt.Errorf("%s: type %q: %w", op, in.Type, ErrInvalidArgument)
	}

	if in.Type == models.RequestPreventive && in.ScheduledDate == nil {
		return nil, fmt.Errorf("%s: preventive request needs a scheduled date: %w", op, ErrInvalidArgument)
	}

	if err := validateDuration(in.DurationHours); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	equipment, err := s.storage.EquipmentByID(ctx, in.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: equipment: %w", op, s.mapStorageErr(ctx, op, err))
	}

	if equipment.Status == models.EquipmentScrapped {
		lg.Warn("request_for_scrapped_equipment")
		return nil, fmt.Errorf("%s: %w", op, ErrEquipmentScrapped)
	}

	teamID := in.TeamID
	if teamID == nil {
		teamID = equipment.TeamID
	}

	now := s.now()
	r := &models.MaintenanceRequest{
		ID:            uuid.New(),
		Subject:       subject,
		EquipmentID:   equipment.ID,
		TeamID:        teamID,
		TechnicianID:  in.TechnicianID,
		Type:          in.Type,
		Stage:         models.StageNew,
		ScheduledDate: utcPtr(in.ScheduledDate),
		DurationHours: in.DurationHours,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.SaveRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	r.IsOverdue = r.Overdue(now)
	lg.Info("request_created", "request_id", r.ID.String())

	return r, nil
}

// RequestByID возвращает заявку с вычисленным isOverdue.
func (s *Service) RequestByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	const op = "service.requests.RequestByID"

	if id == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	r, err := s.storage.RequestByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	r.IsOverdue = r.Overdue(s.now())

	return r, nil
}

// ListRequests возвращает заявки по фильтру; OverdueOnly отбирает просроченные на текущий момент.
func (s *Service) ListRequests(ctx context.Context, filter RequestListFilter) ([]models.MaintenanceRequest, error) {
	const op = "service.requests.ListRequests"

	if filter.Stage != nil && !filter.Stage.Valid() {
		return nil, fmt.Errorf("%s: stage: %w", op, ErrInvalidArgument)
	}

	now := s.now()
	sf := storage.RequestFilter{
		EquipmentID:  filter.EquipmentID,
		TeamID:       filter.TeamID,
		TechnicianID: filter.TechnicianID,
		Stage:        filter.Stage,
	}
	if filter.OverdueOnly {
		sf.OverdueBefore = &now
	}

	items, err := s.storage.ListRequests(ctx, sf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	for i := range items {
		items[i].IsOverdue = items[i].Overdue(now)
	}

	return items, nil
}

// UpdateRequest применяет частичный апдейт и затем запускает реакцию на смену
// стадии (onStageChanged). Переходы между стадиями не ограничены.
// Исход каскада возвращается в UpdateResult и никогда не откатывает сам апдейт.
func (s *Service) UpdateRequest(ctx context.Context, id uuid.UUID, in UpdateRequestInput) (*UpdateResult, error) {
	const op = "service.requests.UpdateRequest"

	lg := log.From(ctx).With("op", op, "request_id", id.String())

	if id == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	upd := storage.RequestUpdate{
		Stage:              in.Stage,
		ClearScheduledDate: in.ClearScheduledDate,
		ScheduledDate:      utcPtr(in.ScheduledDate),
		DurationHours:      in.DurationHours,
		TechnicianID:       in.TechnicianID,
	}

	if in.Subject != nil {
		subject := strings.TrimSpace(*in.Subject)
		if subject == "" {
			return nil, fmt.Errorf("%s: empty subject: %w", op, ErrInvalidArgument)
		}
		upd.Subject = &subject
	}

	if in.Stage != nil && !in.Stage.Valid() {
		return nil, fmt.Errorf("%s: stage %q: %w", op, *in.Stage, ErrInvalidArgument)
	}

	if in.DurationHours != nil {
		if err := validateDuration(*in.DurationHours); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	prev, r, err := s.storage.UpdateRequest(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	if prev != r.Stage {
		lg.Info("request_stage_changed", "from", string(prev), "to", string(r.Stage))
	}

	outcome := s.onStageChanged(ctx, r, prev)
	r.IsOverdue = r.Overdue(s.now())

	return &UpdateResult{Request: r, Cascade: outcome}, nil
}

func validateDuration(h float64) error {
	if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return fmt.Errorf("duration hours must be a non-negative number: %w", ErrInvalidArgument)
	}

	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()
	return &u
}
