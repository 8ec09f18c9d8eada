package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/arjunkp/crowdshield/internal/config"
)

// messageWriter is the slice of kafka-go the publisher needs; tests swap in
// a fake.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher forwards severity transitions to a Kafka topic for the
// external alerting pipeline (SMS, TTS, broadcast systems).
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

func NewKafkaPublisher(cfg config.AlertConfig, logger *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish serializes and sends one severity change.
func (p *KafkaPublisher) Publish(ctx context.Context, change SeverityChange) error {
	msg, err := serializeChange(change)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish severity change: %w", err)
	}
	p.logger.Info("published severity change", "from", change.From, "to", change.To)
	return nil
}

// Run consumes the broadcaster channel until it closes, publishing every
// transition. Intended to run in its own goroutine.
func (p *KafkaPublisher) Run(ctx context.Context, changes <-chan SeverityChange) {
	for change := range changes {
		if err := p.Publish(ctx, change); err != nil {
			p.logger.Error("severity publish failed", "error", err)
		}
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func serializeChange(change SeverityChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize severity change: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(string(change.To)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "escalated", Value: []byte(fmt.Sprintf("%t", change.Escalated()))},
			{Key: "at", Value: []byte(change.At.Format(time.RFC3339))},
		},
	}, nil
}
