package events

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := newMessage(map[string]string{"run_id": "r1"}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)
	assert.JSONEq(t, `{"run_id":"r1"}`, string(msg.Body))
}

func TestNewMessage_Unencodable(t *testing.T) {
	_, err := newMessage(make(chan int), time.Now())
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), MigrationCompleted, struct{}{}))
	assert.NoError(t, p.Close())
}

func TestNewAMQPPublisher_RequiresURL(t *testing.T) {
	_, err := NewAMQPPublisher("", "resume.events")
	assert.Error(t, err)
}
