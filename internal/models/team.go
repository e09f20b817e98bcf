package models

import (
	"time"

	"github.com/google/uuid"
)

// Team - ремонтная бригада.
type Team struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
