package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditConsumer appends one line per booking.changed message to a log
// file.  Run keeps reconnecting to the broker until ctx is cancelled.
type AuditConsumer struct {
	URL     string
	LogPath string
	Logger  echo.Logger
}

// Run connects, consumes and reconnects with backoff.  It returns
// ctx.Err() once ctx is done.
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(a.URL)
		if err != nil {
			a.Logger.Warnf("booking-audit: dial broker failed: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = a.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.Logger.Warnf("booking-audit: consume loop ended: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (a *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		a.Logger.Warnf("booking-audit: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(BookingChangedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, BookingChangedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := a.Handle(d.Body); err != nil {
			a.Logger.Errorf("booking-audit: handle message failed: %v", err)
			_ = d.Nack(false, false) // poison messages are dropped, not requeued
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message and appends its audit line.
func (a *AuditConsumer) Handle(body []byte) error {
	var ev BookingChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == "" {
		return errors.New("event without booking_id")
	}
	if err := os.MkdirAll(filepath.Dir(a.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(a.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single human-readable line.
func FormatAuditLine(ev BookingChangedEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] Booking %s | kind=%s | booking_id=%s | resource=%q | status=%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Action, ev.SourceKind, ev.BookingID, ev.ResourceName, ev.Status)
	if ev.PrevStatus != "" && ev.PrevStatus != ev.Status {
		fmt.Fprintf(&sb, " | prev_status=%s", ev.PrevStatus)
	}
	fmt.Fprintf(&sb, " | start=%s | end=%s", ev.Start.UTC().Format(time.RFC3339), ev.End.UTC().Format(time.RFC3339))
	if !ev.PrevStart.IsZero() {
		fmt.Fprintf(&sb, " | prev_start=%s", ev.PrevStart.UTC().Format(time.RFC3339))
	}
	if ev.ActorID != 0 {
		fmt.Fprintf(&sb, " | actor_id=%d", ev.ActorID)
	}
	sb.WriteString("\n")
	return sb.String()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
