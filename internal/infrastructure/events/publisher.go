// Package events publishes job lifecycle events to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"job-tracker/internal/domain/job"
	"job-tracker/internal/logger"
)

const qosAtLeastOnce byte = 1

// Broker is the subset of the MQTT client the publisher needs.
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

type MQTTPublisher struct {
	broker      Broker
	topicPrefix string
}

func NewMQTTPublisher(broker Broker, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{
		broker:      broker,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
	}
}

// Topic returns "<prefix>/jobs/<event>".
func (p *MQTTPublisher) Topic(t job.EventType) string {
	return fmt.Sprintf("%s/jobs/%s", p.topicPrefix, t)
}

func (p *MQTTPublisher) Publish(ctx context.Context, event job.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode job event: %w", err)
	}

	topic := p.Topic(event.Type)
	if err := p.broker.Publish(topic, qosAtLeastOnce, false, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	logger.Debug("Job event published",
		zap.String("topic", topic),
		zap.String("job_id", event.JobID.String()),
	)
	return nil
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, job.Event) error { return nil }
