package store

import (
	"context"
	"errors"

	"feedloop.app/triage/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when a state transition is attempted on an
// entity that is not in the required state (e.g. approving a rejected draft).
var ErrInvalidState = errors.New("invalid state")

// FeedbackStore defines the contract for feedback item data access
type FeedbackStore interface {
	GetByID(ctx context.Context, id int64) (*model.FeedbackItem, error)
	Create(ctx context.Context, item *model.FeedbackItem) error
	UpdateTriage(ctx context.Context, item *model.FeedbackItem) error
	MarkProcessed(ctx context.Context, id int64) error
}

// IssueDraftStore defines the contract for issue draft data access
type IssueDraftStore interface {
	GetByID(ctx context.Context, id int64) (*model.IssueDraft, error)
	GetByFeedbackID(ctx context.Context, feedbackID int64) (*model.IssueDraft, error)
	// Upsert inserts the draft or, when one already exists for the same
	// feedback item, refreshes its content. Redeliveries stay idempotent.
	Upsert(ctx context.Context, draft *model.IssueDraft) error
	ListByStatus(ctx context.Context, status model.DraftStatus, limit int32) ([]model.IssueDraft, error)
	CountByStatus(ctx context.Context, status model.DraftStatus) (int64, error)
	// MarkPublished transitions draft -> published. Returns ErrInvalidState
	// if the draft is not in "draft".
	MarkPublished(ctx context.Context, id int64, externalURL string) error
	// MarkRejected transitions draft -> rejected. Returns ErrInvalidState
	// if the draft is not in "draft".
	MarkRejected(ctx context.Context, id int64, reason *string) error
}
