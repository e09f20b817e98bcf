package models

import (
	"time"

	"github.com/google/uuid"
)

// Department - подразделение-владелец оборудования. Имя уникально без учёта регистра.
type Department struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
