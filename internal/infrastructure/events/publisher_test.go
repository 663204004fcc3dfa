package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-tracker/internal/domain/job"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeBroker struct {
	sent []published
	err  error
}

func (f *fakeBroker) Publish(topic string, qos byte, _ bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, qos: qos, payload: payload})
	return nil
}

func TestMQTTPublisher_Publish(t *testing.T) {
	broker := &fakeBroker{}
	p := NewMQTTPublisher(broker, "job-tracker/")

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	j := &job.Job{ID: uuid.New(), OwnerID: uuid.New(), Slug: "acme", Status: job.StatusInterview}
	require.NoError(t, p.Publish(context.Background(), job.NewEvent(job.EventUpdated, j, at)))

	require.Len(t, broker.sent, 1)
	assert.Equal(t, "job-tracker/jobs/updated", broker.sent[0].topic)
	assert.Equal(t, byte(1), broker.sent[0].qos)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(broker.sent[0].payload, &body))
	assert.Equal(t, "updated", body["event"])
	assert.Equal(t, j.ID.String(), body["job_id"])
	assert.Equal(t, "acme", body["slug"])
	assert.Equal(t, "interview", body["status"])
	assert.Equal(t, "2024-03-01T09:00:00Z", body["occurred_at"])
}

func TestMQTTPublisher_BrokerError(t *testing.T) {
	p := NewMQTTPublisher(&fakeBroker{err: errors.New("not connected")}, "jt")

	err := p.Publish(context.Background(), job.NewEvent(job.EventCreated, &job.Job{ID: uuid.New()}, time.Now()))
	assert.ErrorContains(t, err, "jt/jobs/created")
}

func TestMQTTPublisher_CancelledContext(t *testing.T) {
	broker := &fakeBroker{}
	p := NewMQTTPublisher(broker, "jt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, job.Event{Type: job.EventDeleted}), context.Canceled)
	assert.Empty(t, broker.sent)
}
