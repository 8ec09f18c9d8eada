package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunkp/crowdshield/internal/models"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{writer: fw, logger: discardLogger()}

	at := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), SeverityChange{
		From:     models.SeverityLow,
		To:       models.SeverityHigh,
		Combined: 0.62,
		At:       at,
	})
	require.NoError(t, err)
	require.Len(t, fw.messages, 1)

	msg := fw.messages[0]
	assert.Equal(t, []byte("HIGH"), msg.Key)

	var decoded SeverityChange
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, models.SeverityLow, decoded.From)
	assert.Equal(t, models.SeverityHigh, decoded.To)
	assert.Equal(t, 0.62, decoded.Combined)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "escalated", msg.Headers[0].Key)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	p := &KafkaPublisher{writer: fw, logger: discardLogger()}

	err := p.Publish(context.Background(), SeverityChange{From: models.SeverityLow, To: models.SeverityModerate})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestKafkaPublisher_RunDrainsChannel(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{writer: fw, logger: discardLogger()}

	changes := make(chan SeverityChange, 3)
	changes <- SeverityChange{From: models.SeverityLow, To: models.SeverityModerate}
	changes <- SeverityChange{From: models.SeverityModerate, To: models.SeverityHigh}
	close(changes)

	p.Run(context.Background(), changes)
	assert.Len(t, fw.messages, 2)
}
