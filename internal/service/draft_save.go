package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"feedloop.app/triage/common/id"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/store"
)

type SaveIssueParams struct {
	FeedbackID         int64
	Title              string
	Body               string
	Classification     model.Classification
	Severity           model.Severity
	Reasoning          string
	Confidence         float64
	ReproductionSteps  []string
	AffectedComponents []string
	AcceptanceCriteria []string
	Labels             []string
	SpecConfidence     float64
	FallbackApplied    bool
}

type RecordTriageParams struct {
	FeedbackID      int64
	Classification  model.Classification
	Severity        model.Severity
	Confidence      float64
	Reasoning       string
	FallbackApplied bool
	IsDuplicate     bool
	DuplicateOf     *int64
}

// DraftSaveService is the server side of the worker callback. The worker
// has no database access; it persists pipeline results through here.
type DraftSaveService interface {
	SaveIssue(ctx context.Context, params SaveIssueParams) (*model.IssueDraft, error)
	RecordTriage(ctx context.Context, params RecordTriageParams) error
}

type draftSaveService struct {
	txRunner TxRunner
	logger   *slog.Logger
}

func NewDraftSaveService(txRunner TxRunner, logger *slog.Logger) DraftSaveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &draftSaveService{
		txRunner: txRunner,
		logger:   logger,
	}
}

// SaveIssue upserts the draft for a feedback item and records the triage
// outcome on the item itself, in one transaction. Redeliveries hit the
// same feedback_id and refresh the draft instead of duplicating it.
func (s *draftSaveService) SaveIssue(ctx context.Context, params SaveIssueParams) (*model.IssueDraft, error) {
	if params.FeedbackID == 0 {
		return nil, fmt.Errorf("feedbackId is required")
	}
	if params.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	draft := &model.IssueDraft{
		ID:                 id.New(),
		FeedbackID:         params.FeedbackID,
		Title:              params.Title,
		Body:               params.Body,
		Classification:     params.Classification,
		Severity:           params.Severity,
		Reasoning:          params.Reasoning,
		Confidence:         params.Confidence,
		ReproductionSteps:  orEmpty(params.ReproductionSteps),
		AffectedComponents: orEmpty(params.AffectedComponents),
		AcceptanceCriteria: orEmpty(params.AcceptanceCriteria),
		Labels:             orEmpty(params.Labels),
		SpecConfidence:     params.SpecConfidence,
		Status:             model.DraftStatusDraft,
	}

	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.IssueDrafts().Upsert(ctx, draft); err != nil {
			return err
		}

		item, err := stores.Feedback().GetByID(ctx, params.FeedbackID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("feedback item %d: %w", params.FeedbackID, err)
			}
			return err
		}
		item.Classification = params.Classification
		item.Severity = params.Severity
		item.Confidence = params.Confidence
		item.Reasoning = params.Reasoning
		item.FallbackApplied = params.FallbackApplied
		if err := stores.Feedback().UpdateTriage(ctx, item); err != nil {
			return err
		}
		return stores.Feedback().MarkProcessed(ctx, params.FeedbackID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "issue draft saved",
		"draft_id", draft.ID,
		"feedback_id", draft.FeedbackID,
		"status", draft.Status)

	return draft, nil
}

// RecordTriage persists the triage outcome for items that never get a
// draft (questions and duplicates) and stamps processed_at.
func (s *draftSaveService) RecordTriage(ctx context.Context, params RecordTriageParams) error {
	if params.FeedbackID == 0 {
		return fmt.Errorf("feedbackId is required")
	}

	return s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		item, err := stores.Feedback().GetByID(ctx, params.FeedbackID)
		if err != nil {
			return err
		}

		item.Classification = params.Classification
		item.Severity = params.Severity
		item.Confidence = params.Confidence
		item.Reasoning = params.Reasoning
		item.FallbackApplied = params.FallbackApplied
		item.IsDuplicate = params.IsDuplicate
		item.DuplicateOf = params.DuplicateOf

		if err := stores.Feedback().UpdateTriage(ctx, item); err != nil {
			return err
		}
		return stores.Feedback().MarkProcessed(ctx, params.FeedbackID)
	})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
