package dto

import "time"

// QueuedResponse acknowledges a webhook. The item is persisted and on the
// stream; triage happens asynchronously.
type QueuedResponse struct {
	Status    string    `json:"status"`
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
}
