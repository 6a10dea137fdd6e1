package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/yacht-charter/internal/queue"
)

// closedPort returns a local address nothing listens on.
func closedPort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestAMQPPublisher_BrokerDown(t *testing.T) {
	p := NewAMQPPublisher("amqp://guest:guest@"+closedPort(t)+"/", quietLogger())
	t.Cleanup(func() { _ = p.Close() })

	err := p.PublishBookingChanged(context.Background(), queue.BookingChangedEvent{
		BookingID:  "b1",
		Action:     queue.ActionCreated,
		OccurredAt: time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq dial")

	// a second attempt dials again instead of reusing a dead connection
	err = p.PublishBookingChanged(context.Background(), queue.BookingChangedEvent{BookingID: "b2"})
	assert.Error(t, err)
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	var p EventPublisher = NopPublisher{}
	assert.NoError(t, p.PublishBookingChanged(context.Background(), queue.BookingChangedEvent{}))
}
