// Package sink forwards audit events to external systems.
package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"attendly/internal/platform/kafka/producer"
	audit "attendly/pkg/platform/audit"
)

// kafkaEnvelope is the wire form of an audit event.
type kafkaEnvelope struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	IP        string    `json:"ip,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// KafkaSink publishes audit events to a Kafka topic, keyed by user so
// per-user event order is preserved.
type KafkaSink struct {
	producer *producer.Producer
	logger   *slog.Logger
}

// NewKafkaSink connects a sink to the given brokers and topic.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	p, err := producer.New(brokers, topic, logger)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{producer: p, logger: logger}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, event audit.Event) error {
	envelope := kafkaEnvelope{
		Timestamp: event.Timestamp,
		Action:    event.Action,
		Outcome:   event.Outcome,
		Reason:    event.Reason,
		IP:        event.IP,
		RequestID: event.RequestID,
	}
	if !event.UserID.IsZero() {
		envelope.UserID = event.UserID.String()
	}
	if !event.SessionID.IsZero() {
		envelope.SessionID = event.SessionID.String()
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.producer.Publish(ctx, []byte(envelope.UserID), value)
	return nil
}

func (s *KafkaSink) Close() {
	s.producer.Close()
}
