// events описывает события жизненного цикла, публикуемые в брокер сообщений,
// и публикатор для RabbitMQ.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EquipmentScrapped публикуется, когда перевод заявки в SCRAP списал оборудование.
type EquipmentScrapped struct {
	EquipmentID uuid.UUID `json:"equipment_id"`
	RequestID   uuid.UUID `json:"request_id"`
	ScrappedAt  time.Time `json:"scrapped_at"`
}

// Publisher - контракт публикации событий. Ошибки публикации
// не должны прерывать основной поток запроса.
type Publisher interface {
	PublishEquipmentScrapped(ctx context.Context, ev EquipmentScrapped) error
	Close() error
}
