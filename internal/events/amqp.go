package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrClosed - публикатор закрыт.
var ErrClosed = errors.New("publisher closed")

// AMQPPublisher публикует события в durable-очередь через default exchange.
// Соединение и канал переиспользуются; при разрыве канал переоткрывается
// на следующей публикации.
type AMQPPublisher struct {
	url   string
	queue string

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// NewAMQPPublisher подключается к брокеру и объявляет очередь (идемпотентно).
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	const op = "events.NewAMQPPublisher"

	p := &AMQPPublisher{url: url, queue: queue}
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// connect вызывается под p.mu (или до публикации указателя).
func (p *AMQPPublisher) connect() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return err
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return err
	}

	p.ch = ch
	return nil
}

// PublishEquipmentScrapped публикует событие как persistent JSON-сообщение.
func (p *AMQPPublisher) PublishEquipmentScrapped(ctx context.Context, ev EquipmentScrapped) error {
	const op = "events.AMQPPublisher.PublishEquipmentScrapped"

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "equipment.scrapped",
		MessageId:    ev.RequestID.String(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("%s: reconnect: %w", op, err)
		}
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает канал и соединение. Повторный вызов - no-op.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}

	return errors.Join(errs...)
}

var _ Publisher = (*AMQPPublisher)(nil)
