package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/events"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/log"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// CascadeOutcome - исход каскада списания оборудования.
type CascadeOutcome string

const (
	// CascadeNone - каскад не требовался (стадия не SCRAP или уже была SCRAP).
	CascadeNone CascadeOutcome = "none"
	// CascadeApplied - оборудование переведено в SCRAPPED.
	CascadeApplied CascadeOutcome = "applied"
	// CascadeAlreadyScrapped - оборудование уже было списано.
	CascadeAlreadyScrapped CascadeOutcome = "already_scrapped"
	// CascadeEquipmentMissing - оборудование заявки не найдено.
	CascadeEquipmentMissing CascadeOutcome = "equipment_missing"
	// CascadeFailed - запись не удалась; повтор через ApplyScrapCascade.
	CascadeFailed CascadeOutcome = "failed"
)

// onStageChanged - явная реакция на смену стадии после фиксации апдейта.
// Каскад запускается только на переходе в SCRAP из другой стадии:
// SCRAP -> SCRAP его не повторяет.
func (s *Service) onStageChanged(ctx context.Context, r *models.MaintenanceRequest, prev models.Stage) CascadeOutcome {
	if r.Stage != models.StageScrap || prev == models.StageScrap {
		return CascadeNone
	}

	return s.scrapEquipment(ctx, r)
}

// ApplyScrapCascade повторяет каскад для заявки, уже находящейся в SCRAP
// (например, после CascadeFailed). Идемпотентна.
func (s *Service) ApplyScrapCascade(ctx context.Context, requestID uuid.UUID) (*UpdateResult, error) {
	const op = "service.lifecycle.ApplyScrapCascade"

	if requestID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	r, err := s.storage.RequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(ctx, op, err))
	}

	if r.Stage != models.StageScrap {
		return nil, fmt.Errorf("%s: request is in %s, not SCRAP: %w", op, r.Stage, ErrInvalidArgument)
	}

	outcome := s.scrapEquipment(ctx, r)
	r.IsOverdue = r.Overdue(s.now())

	return &UpdateResult{Request: r, Cascade: outcome}, nil
}

// scrapEquipment переводит оборудование заявки в SCRAPPED.
// Ошибки не возвращаются: они логируются, учитываются в метриках и отражаются в исходе.
func (s *Service) scrapEquipment(ctx context.Context, r *models.MaintenanceRequest) CascadeOutcome {
	const op = "service.lifecycle.scrapEquipment"

	lg := log.From(ctx).With("op", op, "request_id", r.ID.String(), "equipment_id", r.EquipmentID.String())

	outcome := CascadeApplied
	changed, err := s.storage.MarkEquipmentScrapped(ctx, r.EquipmentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		outcome = CascadeEquipmentMissing
		lg.Warn("scrap_cascade_equipment_missing")
	case err != nil:
		outcome = CascadeFailed
		lg.Error("scrap_cascade_failed", "err", err)
	case !changed:
		outcome = CascadeAlreadyScrapped
		lg.Info("scrap_cascade_already_scrapped")
	default:
		lg.Info("scrap_cascade_applied")
	}

	s.metrics.Cascade(string(outcome))

	if outcome == CascadeApplied && s.publisher != nil {
		ev := events.EquipmentScrapped{
			EquipmentID: r.EquipmentID,
			RequestID:   r.ID,
			ScrappedAt:  s.now(),
		}
		if err := s.publisher.PublishEquipmentScrapped(ctx, ev); err != nil {
			lg.Warn("scrap_event_publish_failed", "err", err)
		}
	}

	return outcome
}
