package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedEvent is published exactly once per feedback item once the
// pipeline reaches a terminal state. GitHubIssueURL is always null here;
// issues are only created when a reviewer approves the draft.
type ProcessedEvent struct {
	FeedbackID     int64   `json:"feedback_id"`
	Classification string  `json:"classification"`
	Severity       string  `json:"severity"`
	IsDuplicate    bool    `json:"is_duplicate"`
	DuplicateOf    *int64  `json:"duplicate_of,omitempty"`
	SpecWritten    bool    `json:"spec_written"`
	GitHubIssueURL *string `json:"github_issue_url"`
}

// PublishedEvent is emitted when a draft is approved and a tracker issue
// has been created.
type PublishedEvent struct {
	DraftID    int64  `json:"draft_id"`
	FeedbackID int64  `json:"feedback_id"`
	IssueURL   string `json:"issue_url"`
}

// Emitter publishes lifecycle events for downstream consumers.
type Emitter interface {
	EmitProcessed(ctx context.Context, event ProcessedEvent) error
	EmitPublished(ctx context.Context, event PublishedEvent) error
}

type redisEmitter struct {
	client          *redis.Client
	processedStream string
	publishedStream string
}

func NewRedisEmitter(client *redis.Client, processedStream, publishedStream string) Emitter {
	return &redisEmitter{
		client:          client,
		processedStream: processedStream,
		publishedStream: publishedStream,
	}
}

func (e *redisEmitter) EmitProcessed(ctx context.Context, event ProcessedEvent) error {
	if err := e.emit(ctx, e.processedStream, event); err != nil {
		return err
	}
	slog.InfoContext(ctx, "emitted processed event",
		"feedback_id", event.FeedbackID,
		"classification", event.Classification,
		"is_duplicate", event.IsDuplicate,
		"spec_written", event.SpecWritten)
	return nil
}

func (e *redisEmitter) EmitPublished(ctx context.Context, event PublishedEvent) error {
	if err := e.emit(ctx, e.publishedStream, event); err != nil {
		return err
	}
	slog.InfoContext(ctx, "emitted published event",
		"draft_id", event.DraftID,
		"issue_url", event.IssueURL)
	return nil
}

// Events carry a single JSON payload field rather than flat values so
// null fields survive the round trip.
func (e *redisEmitter) emit(ctx context.Context, stream string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event":      string(payload),
			"emitted_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err(); err != nil {
		return fmt.Errorf("emit event (stream=%s): %w", stream, err)
	}
	return nil
}
