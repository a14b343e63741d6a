package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"feedloop.app/triage/core/db"
	"feedloop.app/triage/internal/model"
)

type issueDraftStore struct {
	q db.Querier
}

func newIssueDraftStore(q db.Querier) IssueDraftStore {
	return &issueDraftStore{q: q}
}

const draftColumns = `id, feedback_id, title, body, classification, severity, reasoning,
	confidence, reproduction_steps, affected_components, acceptance_criteria, labels,
	spec_confidence, status, external_url, rejection_reason, created_at, updated_at`

func (s *issueDraftStore) GetByID(ctx context.Context, id int64) (*model.IssueDraft, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM issue_drafts WHERE id = $1`, id)
	draft, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return draft, nil
}

func (s *issueDraftStore) GetByFeedbackID(ctx context.Context, feedbackID int64) (*model.IssueDraft, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM issue_drafts WHERE feedback_id = $1`, feedbackID)
	draft, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return draft, nil
}

func (s *issueDraftStore) Upsert(ctx context.Context, draft *model.IssueDraft) error {
	// Content refresh only applies while the draft is still pending review.
	// A published or rejected draft keeps its state on redelivery.
	row := s.q.QueryRow(ctx,
		`INSERT INTO issue_drafts
		   (id, feedback_id, title, body, classification, severity, reasoning, confidence,
		    reproduction_steps, affected_components, acceptance_criteria, labels,
		    spec_confidence, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'draft', now(), now())
		 ON CONFLICT (feedback_id) DO UPDATE SET
		   title = EXCLUDED.title,
		   body = EXCLUDED.body,
		   classification = EXCLUDED.classification,
		   severity = EXCLUDED.severity,
		   reasoning = EXCLUDED.reasoning,
		   confidence = EXCLUDED.confidence,
		   reproduction_steps = EXCLUDED.reproduction_steps,
		   affected_components = EXCLUDED.affected_components,
		   acceptance_criteria = EXCLUDED.acceptance_criteria,
		   labels = EXCLUDED.labels,
		   spec_confidence = EXCLUDED.spec_confidence,
		   updated_at = now()
		 WHERE issue_drafts.status = 'draft'
		 RETURNING `+draftColumns,
		draft.ID, draft.FeedbackID, draft.Title, draft.Body, draft.Classification,
		draft.Severity, draft.Reasoning, draft.Confidence, draft.ReproductionSteps,
		draft.AffectedComponents, draft.AcceptanceCriteria, draft.Labels,
		draft.SpecConfidence)

	stored, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Terminal draft already exists for this feedback item.
			return s.reload(ctx, draft)
		}
		return fmt.Errorf("upserting issue draft: %w", err)
	}
	*draft = *stored
	return nil
}

func (s *issueDraftStore) reload(ctx context.Context, draft *model.IssueDraft) error {
	stored, err := s.GetByFeedbackID(ctx, draft.FeedbackID)
	if err != nil {
		return fmt.Errorf("reloading issue draft: %w", err)
	}
	*draft = *stored
	return nil
}

func (s *issueDraftStore) ListByStatus(ctx context.Context, status model.DraftStatus, limit int32) ([]model.IssueDraft, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+draftColumns+` FROM issue_drafts
		 WHERE status = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("listing issue drafts: %w", err)
	}
	defer rows.Close()

	var drafts []model.IssueDraft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *draft)
	}
	return drafts, rows.Err()
}

func (s *issueDraftStore) CountByStatus(ctx context.Context, status model.DraftStatus) (int64, error) {
	var count int64
	err := s.q.QueryRow(ctx,
		`SELECT count(*) FROM issue_drafts WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting issue drafts: %w", err)
	}
	return count, nil
}

func (s *issueDraftStore) MarkPublished(ctx context.Context, id int64, externalURL string) error {
	return s.transition(ctx, id,
		`UPDATE issue_drafts
		 SET status = 'published', external_url = $2, updated_at = now()
		 WHERE id = $1 AND status = 'draft'`, externalURL)
}

func (s *issueDraftStore) MarkRejected(ctx context.Context, id int64, reason *string) error {
	return s.transition(ctx, id,
		`UPDATE issue_drafts
		 SET status = 'rejected', rejection_reason = $2, updated_at = now()
		 WHERE id = $1 AND status = 'draft'`, reason)
}

// transition runs a guarded state change. Zero rows means either the draft
// does not exist or it already left the "draft" state; the caller needs to
// tell those apart.
func (s *issueDraftStore) transition(ctx context.Context, id int64, sql string, arg any) error {
	tag, err := s.q.Exec(ctx, sql, id, arg)
	if err != nil {
		return fmt.Errorf("updating draft status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.q.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM issue_drafts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("checking draft existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInvalidState
	}
	return nil
}

func scanDraft(row pgx.Row) (*model.IssueDraft, error) {
	var d model.IssueDraft
	err := row.Scan(
		&d.ID, &d.FeedbackID, &d.Title, &d.Body, &d.Classification, &d.Severity,
		&d.Reasoning, &d.Confidence, &d.ReproductionSteps, &d.AffectedComponents,
		&d.AcceptanceCriteria, &d.Labels, &d.SpecConfidence, &d.Status,
		&d.ExternalURL, &d.RejectionReason, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
