package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// FeedbackMessage is the envelope published by the webhook server and
// consumed by the triage worker.
type FeedbackMessage struct {
	FeedbackID int64
	Source     string
	Content    string
	Metadata   map[string]string
	ReceivedAt time.Time
	TraceID    *string
	Attempt    int
}

type Producer interface {
	Enqueue(ctx context.Context, msg FeedbackMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg FeedbackMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"feedback_id": msg.FeedbackID,
		"source":      msg.Source,
		"content":     msg.Content,
		"received_at": msg.ReceivedAt.UTC().Format(time.RFC3339Nano),
		"attempt":     attempt,
	}

	if len(msg.Metadata) > 0 {
		meta, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		fields["metadata"] = string(meta)
	}

	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue feedback: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued feedback", "feedback_id", msg.FeedbackID, "source", msg.Source, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
