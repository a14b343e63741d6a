package worker

import (
	"context"

	"feedloop.app/triage/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// FeedbackProcessor abstracts the triage pipeline for testability.
type FeedbackProcessor interface {
	Process(ctx context.Context, msg queue.Message) error
}
