// Package events publishes activity records to Kafka for downstream
// consumers (analytics, audit). Publishing is best-effort: a broker failure
// is logged and never fails the request that triggered it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventMessageCreated      = "message.created"
	EventNotificationCreated = "notification.created"
)

// Envelope is the record written to the topic.
type Envelope struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher is the producer surface services use. A nil *Producer is a valid
// no-op publisher, so Kafka stays optional in deployments without brokers.
type Publisher interface {
	Publish(ctx context.Context, event string, key string, payload interface{})
}

type Producer struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewProducer(brokers []string, topic string, log *zap.SugaredLogger) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Producer{writer: w, log: log}
}

func (p *Producer) Publish(ctx context.Context, event, key string, payload interface{}) {
	if p == nil {
		return
	}
	b, err := json.Marshal(Envelope{Event: event, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		p.log.Warnw("events: marshal", "event", event, "err", err)
		return
	}
	msg := kafka.Message{Key: []byte(key), Value: b, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnw("events: publish", "event", event, "err", err)
	}
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
