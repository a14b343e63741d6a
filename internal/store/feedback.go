package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"feedloop.app/triage/core/db"
	"feedloop.app/triage/internal/model"
)

type feedbackStore struct {
	q db.Querier
}

func newFeedbackStore(q db.Querier) FeedbackStore {
	return &feedbackStore{q: q}
}

const feedbackColumns = `id, source, raw_content, raw_payload, metadata, received_at,
	classification, severity, confidence, reasoning, fallback_applied,
	is_duplicate, duplicate_of, processed_at`

func (s *feedbackStore) GetByID(ctx context.Context, id int64) (*model.FeedbackItem, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+feedbackColumns+` FROM feedback_items WHERE id = $1`, id)
	item, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *feedbackStore) Create(ctx context.Context, item *model.FeedbackItem) error {
	meta, err := marshalMetadata(item.Metadata)
	if err != nil {
		return err
	}

	_, err = s.q.Exec(ctx,
		`INSERT INTO feedback_items (id, source, raw_content, raw_payload, metadata, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		item.ID, item.Source, item.RawContent, jsonbParam(item.RawPayload), meta, item.ReceivedAt)
	if err != nil {
		return fmt.Errorf("inserting feedback item: %w", err)
	}
	return nil
}

func (s *feedbackStore) UpdateTriage(ctx context.Context, item *model.FeedbackItem) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE feedback_items
		 SET classification = $2, severity = $3, confidence = $4, reasoning = $5,
		     fallback_applied = $6, is_duplicate = $7, duplicate_of = $8
		 WHERE id = $1`,
		item.ID, item.Classification, item.Severity, item.Confidence, item.Reasoning,
		item.FallbackApplied, item.IsDuplicate, item.DuplicateOf)
	if err != nil {
		return fmt.Errorf("updating triage result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *feedbackStore) MarkProcessed(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE feedback_items SET processed_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("marking feedback processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFeedback(row pgx.Row) (*model.FeedbackItem, error) {
	var (
		item    model.FeedbackItem
		payload []byte
		meta    []byte
	)
	err := row.Scan(
		&item.ID, &item.Source, &item.RawContent, &payload, &meta, &item.ReceivedAt,
		&item.Classification, &item.Severity, &item.Confidence, &item.Reasoning,
		&item.FallbackApplied, &item.IsDuplicate, &item.DuplicateOf, &item.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	item.RawPayload = payload
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &item.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal feedback metadata: %w", err)
		}
	}
	return &item, nil
}

func marshalMetadata(m map[string]string) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal feedback metadata: %w", err)
	}
	s := string(b)
	return &s, nil
}

// jsonbParam converts raw JSON bytes into a value pgx encodes as jsonb,
// preserving NULL for empty payloads.
func jsonbParam(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	return &s
}
