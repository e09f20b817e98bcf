package models

import (
	"time"

	"github.com/google/uuid"
)

// EquipmentStatus - эксплуатационный статус оборудования.
type EquipmentStatus string

const (
	EquipmentOperational EquipmentStatus = "OPERATIONAL"
	EquipmentMaintenance EquipmentStatus = "MAINTENANCE"
	EquipmentScrapped    EquipmentStatus = "SCRAPPED"
)

// Valid сообщает, входит ли статус в допустимый набор.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentOperational, EquipmentMaintenance, EquipmentScrapped:
		return true
	}

	return false
}

// Equipment - единица оборудования. Владелец - подразделение (DepartmentID)
// и/или сотрудник (EmployeeID).
//
// OpenRequests - вычисляемое поле: число заявок в стадиях NEW/IN_PROGRESS;
// заполняется при чтении и не хранится.
type Equipment struct {
	ID                 uuid.UUID
	Name               string
	SerialNumber       string
	DepartmentID       *uuid.UUID
	EmployeeID         *uuid.UUID
	TeamID             *uuid.UUID
	Location           string
	PurchaseDate       time.Time
	WarrantyExpiration *time.Time
	Status             EquipmentStatus
	OpenRequests       int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
