package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/queue"
	"feedloop.app/triage/internal/store"
	"feedloop.app/triage/internal/tracker"
)

// ErrTrackerFailed is returned when the external tracker rejects or fails
// the issue creation. The draft stays in "draft" so approval can be retried.
var ErrTrackerFailed = errors.New("tracker issue creation failed")

type ApproveParams struct {
	DraftID      int64
	CustomTitle  *string
	CustomLabels []string
}

// DraftView is a draft joined with the duplicate linkage of its feedback
// item, for reviewers deciding what to publish.
type DraftView struct {
	model.IssueDraft
	IsDuplicate bool   `json:"is_duplicate"`
	DuplicateOf *int64 `json:"duplicate_of,omitempty"`
}

type ApprovalService interface {
	List(ctx context.Context, status model.DraftStatus, limit int32) ([]model.IssueDraft, error)
	Count(ctx context.Context, status model.DraftStatus) (int64, error)
	Get(ctx context.Context, draftID int64) (*DraftView, error)
	Approve(ctx context.Context, params ApproveParams) (*model.IssueDraft, error)
	Reject(ctx context.Context, draftID int64, reason *string) (*model.IssueDraft, error)
}

type approvalService struct {
	drafts   store.IssueDraftStore
	feedback store.FeedbackStore
	tracker  tracker.Client
	emitter  queue.Emitter
	logger   *slog.Logger
}

func NewApprovalService(drafts store.IssueDraftStore, feedback store.FeedbackStore, trackerClient tracker.Client, emitter queue.Emitter, logger *slog.Logger) ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &approvalService{
		drafts:   drafts,
		feedback: feedback,
		tracker:  trackerClient,
		emitter:  emitter,
		logger:   logger,
	}
}

func (s *approvalService) List(ctx context.Context, status model.DraftStatus, limit int32) ([]model.IssueDraft, error) {
	return s.drafts.ListByStatus(ctx, status, limit)
}

func (s *approvalService) Count(ctx context.Context, status model.DraftStatus) (int64, error) {
	return s.drafts.CountByStatus(ctx, status)
}

func (s *approvalService) Get(ctx context.Context, draftID int64) (*DraftView, error) {
	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	view := &DraftView{IssueDraft: *draft}

	item, err := s.feedback.GetByID(ctx, draft.FeedbackID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("fetching feedback item: %w", err)
		}
		return view, nil
	}
	view.IsDuplicate = item.IsDuplicate
	view.DuplicateOf = item.DuplicateOf
	return view, nil
}

// Approve creates the tracker issue first and transitions the draft only
// after the tracker succeeded. A tracker failure leaves the draft
// untouched so the reviewer can retry.
func (s *approvalService) Approve(ctx context.Context, params ApproveParams) (*model.IssueDraft, error) {
	draft, err := s.drafts.GetByID(ctx, params.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != model.DraftStatusDraft {
		return nil, store.ErrInvalidState
	}

	title := draft.Title
	if params.CustomTitle != nil && *params.CustomTitle != "" {
		title = *params.CustomTitle
	}
	labels := mergeLabels(draft.Labels, params.CustomLabels)

	issue, err := s.tracker.CreateIssue(ctx, tracker.IssueRequest{
		Title:  title,
		Body:   draft.Body,
		Labels: labels,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "tracker issue creation failed",
			"draft_id", draft.ID,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrTrackerFailed, err)
	}

	if err := s.drafts.MarkPublished(ctx, draft.ID, issue.URL); err != nil {
		// Issue exists in the tracker but the transition failed. Surface
		// the URL in the error so it can be reconciled by hand.
		return nil, fmt.Errorf("marking draft published (issue=%s): %w", issue.URL, err)
	}

	if err := s.emitter.EmitPublished(ctx, queue.PublishedEvent{
		DraftID:    draft.ID,
		FeedbackID: draft.FeedbackID,
		IssueURL:   issue.URL,
	}); err != nil {
		// Event emission is best-effort; the state transition already happened.
		s.logger.WarnContext(ctx, "failed to emit published event",
			"draft_id", draft.ID,
			"error", err)
	}

	s.logger.InfoContext(ctx, "draft approved and published",
		"draft_id", draft.ID,
		"issue_url", issue.URL)

	updated, err := s.drafts.GetByID(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *approvalService) Reject(ctx context.Context, draftID int64, reason *string) (*model.IssueDraft, error) {
	if err := s.drafts.MarkRejected(ctx, draftID, reason); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draft rejected", "draft_id", draftID)

	return s.drafts.GetByID(ctx, draftID)
}

// mergeLabels unions the draft's labels with reviewer-supplied ones,
// keeping first-seen order.
func mergeLabels(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, group := range [][]string{base, extra} {
		for _, label := range group {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			merged = append(merged, label)
		}
	}
	return merged
}
