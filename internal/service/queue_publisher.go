package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/yacht-charter/internal/queue"
)

// AMQPPublisher publishes booking events to RabbitMQ over one long-lived
// connection.  The connection is opened on first use and reopened after a
// failure, so a broker outage only costs the events published during it.
type AMQPPublisher struct {
	URL    string
	Logger echo.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, logger echo.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Logger: logger}
}

// channel returns an open channel with the queue declared.  Callers hold
// p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue.BookingChangedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// PublishBookingChanged sends ev as a persistent JSON message to the
// booking.changed queue.
func (p *AMQPPublisher) PublishBookingChanged(ctx context.Context, ev queue.BookingChangedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		p.Logger.Warnf("rabbitmq: %v", err)
		return err
	}
	err = ch.PublishWithContext(ctx, "", queue.BookingChangedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    fmt.Sprintf("%s:%s:%d", ev.BookingID, ev.Action, ev.OccurredAt.UnixNano()),
		Body:         body,
	})
	if err != nil {
		p.Logger.Warnf("rabbitmq: publish %s failed: %v", ev.BookingID, err)
		p.reset()
		return err
	}
	return nil
}

// Close releases the connection.  Safe to call more than once.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingChanged(context.Context, queue.BookingChangedEvent) error {
	return nil
}
