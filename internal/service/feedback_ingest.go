package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"feedloop.app/triage/common/id"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/queue"
	"feedloop.app/triage/internal/store"
)

// ErrEmptyContent is returned when a webhook payload carries no usable text.
var ErrEmptyContent = errors.New("empty message content")

type FeedbackIngestParams struct {
	Source     model.Source
	Content    string
	Metadata   map[string]string
	RawPayload []byte
}

type FeedbackIngestResult struct {
	Item  *model.FeedbackItem
	Topic string
}

type FeedbackIngestService interface {
	Ingest(ctx context.Context, params FeedbackIngestParams) (*FeedbackIngestResult, error)
}

type feedbackIngestService struct {
	feedback store.FeedbackStore
	queue    queue.Producer
	topic    string
	logger   *slog.Logger
}

func NewFeedbackIngestService(feedback store.FeedbackStore, producer queue.Producer, topic string, logger *slog.Logger) FeedbackIngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &feedbackIngestService{
		feedback: feedback,
		queue:    producer,
		topic:    topic,
		logger:   logger,
	}
}

// Ingest persists the feedback item and enqueues it for the worker.
// The webhook response promises only that the item is queued; all triage
// happens asynchronously.
func (s *feedbackIngestService) Ingest(ctx context.Context, params FeedbackIngestParams) (*FeedbackIngestResult, error) {
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	item := &model.FeedbackItem{
		ID:         id.New(),
		Source:     params.Source,
		RawContent: content,
		RawPayload: params.RawPayload,
		Metadata:   params.Metadata,
		ReceivedAt: time.Now().UTC(),
	}

	if err := s.feedback.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("persisting feedback item: %w", err)
	}

	var traceID *string
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		t := span.SpanContext().TraceID().String()
		traceID = &t
	}

	if err := s.queue.Enqueue(ctx, queue.FeedbackMessage{
		FeedbackID: item.ID,
		Source:     string(item.Source),
		Content:    item.RawContent,
		Metadata:   item.Metadata,
		ReceivedAt: item.ReceivedAt,
		TraceID:    traceID,
	}); err != nil {
		return nil, fmt.Errorf("enqueueing feedback: %w", err)
	}

	s.logger.InfoContext(ctx, "feedback ingested",
		"feedback_id", item.ID,
		"source", item.Source,
		"content_length", len(item.RawContent))

	return &FeedbackIngestResult{Item: item, Topic: s.topic}, nil
}
