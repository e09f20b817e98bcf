package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestType - тип заявки на обслуживание.
type RequestType string

const (
	RequestCorrective RequestType = "CORRECTIVE"
	RequestPreventive RequestType = "PREVENTIVE"
)

// Valid сообщает, входит ли тип в допустимый набор.
func (t RequestType) Valid() bool {
	return t == RequestCorrective || t == RequestPreventive
}

// Stage - стадия жизненного цикла заявки.
type Stage string

const (
	StageNew        Stage = "NEW"
	StageInProgress Stage = "IN_PROGRESS"
	StageRepaired   Stage = "REPAIRED"
	StageScrap      Stage = "SCRAP"
)

// Valid сообщает, входит ли стадия в допустимый набор.
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageInProgress, StageRepaired, StageScrap:
		return true
	}

	return false
}

// Open - заявка ещё в работе (NEW или IN_PROGRESS).
func (s Stage) Open() bool {
	return s == StageNew || s == StageInProgress
}

// MaintenanceRequest - заявка на обслуживание оборудования.
//
// IsOverdue не хранится: его выставляет сервис через Overdue(now) при каждом чтении.
type MaintenanceRequest struct {
	ID            uuid.UUID
	Subject       string
	EquipmentID   uuid.UUID
	TeamID        *uuid.UUID
	TechnicianID  *uuid.UUID
	Type          RequestType
	Stage         Stage
	ScheduledDate *time.Time
	DurationHours float64
	IsOverdue     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Overdue - дата назначена, строго в прошлом относительно now, и заявка открыта.
func (r *MaintenanceRequest) Overdue(now time.Time) bool {
	if r.ScheduledDate == nil {
		return false
	}

	return r.Stage.Open() && r.ScheduledDate.Before(now)
}
