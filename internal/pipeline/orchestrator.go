package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"feedloop.app/triage/common/logger"
	"feedloop.app/triage/internal/dedup"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/queue"
	"feedloop.app/triage/internal/service"
)

// DuplicateChecker abstracts the dedup detector for testability.
type DuplicateChecker interface {
	Check(ctx context.Context, feedbackID int64, content string) (dedup.Result, []float32)
	Index(ctx context.Context, feedbackID int64, vec []float32) error
}

// Orchestrator runs the staged triage flow for one feedback item:
// classify, duplicate-check, draft, persist, index, emit. Every path ends
// in exactly one processed event.
type Orchestrator struct {
	classifier *Classifier
	drafter    *Drafter
	dedup      DuplicateChecker
	callback   service.CallbackClient
	emitter    queue.Emitter
}

func NewOrchestrator(classifier *Classifier, drafter *Drafter, checker DuplicateChecker, callback service.CallbackClient, emitter queue.Emitter) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		drafter:    drafter,
		dedup:      checker,
		callback:   callback,
		emitter:    emitter,
	}
}

func (o *Orchestrator) Process(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "triage.worker.pipeline",
	})

	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("classify")})
	classification := o.classifier.Classify(ctx, msg.Content)

	// Questions terminate before the duplicate check: no embedding, no
	// vector lookup.
	if classification.Classification == model.ClassificationQuestion {
		return o.finishWithoutDraft(ctx, msg, classification, dedup.Result{})
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("dedup")})
	dupResult, embedding := o.dedup.Check(ctx, msg.FeedbackID, msg.Content)

	if dupResult.IsDuplicate {
		return o.finishWithoutDraft(ctx, msg, classification, dupResult)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("draft")})
	draft := o.drafter.Draft(ctx, msg.Content, classification.Classification, classification.Severity)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("persist")})
	if err := o.callback.SaveIssue(ctx, service.SaveIssuePayload{
		FeedbackID:         msg.FeedbackID,
		Title:              draft.Title,
		Body:               draft.FormatBody(),
		Classification:     string(classification.Classification),
		Severity:           string(classification.Severity),
		Reasoning:          classification.Reasoning,
		Confidence:         classification.Confidence,
		ReproductionSteps:  draft.ReproductionSteps,
		AffectedComponents: draft.AffectedComponents,
		AcceptanceCriteria: draft.AcceptanceCriteria,
		Labels:             buildLabels(draft.SuggestedLabels, classification),
		SpecConfidence:     draft.SpecConfidence,
		FallbackApplied:    classification.FallbackApplied || draft.FallbackApplied,
	}); err != nil {
		return fmt.Errorf("saving issue draft: %w", err)
	}

	if err := o.index(ctx, msg.FeedbackID, embedding); err != nil {
		return err
	}

	return o.emitProcessed(ctx, msg.FeedbackID, classification, dupResult, true)
}

// finishWithoutDraft is the terminal path for questions and duplicates:
// record the triage outcome and emit the event. Only drafted items are
// indexed, so duplicate chains can't form against later duplicates.
func (o *Orchestrator) finishWithoutDraft(ctx context.Context, msg queue.Message, classification ClassificationResult, dupResult dedup.Result) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("persist")})
	if err := o.callback.RecordTriage(ctx, service.TriageResultPayload{
		FeedbackID:      msg.FeedbackID,
		Classification:  string(classification.Classification),
		Severity:        string(classification.Severity),
		Confidence:      classification.Confidence,
		Reasoning:       classification.Reasoning,
		FallbackApplied: classification.FallbackApplied,
		IsDuplicate:     dupResult.IsDuplicate,
		DuplicateOf:     dupResult.DuplicateOf,
	}); err != nil {
		return fmt.Errorf("recording triage result: %w", err)
	}

	return o.emitProcessed(ctx, msg.FeedbackID, classification, dupResult, false)
}

func (o *Orchestrator) index(ctx context.Context, feedbackID int64, embedding []float32) error {
	if len(embedding) == 0 {
		// Embedding failed earlier; the item terminates unindexed rather
		// than retrying the whole pipeline.
		slog.WarnContext(ctx, "no embedding to index", "feedback_id", feedbackID)
		return nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("index")})
	if err := o.dedup.Index(ctx, feedbackID, embedding); err != nil {
		return fmt.Errorf("indexing embedding: %w", err)
	}
	return nil
}

func (o *Orchestrator) emitProcessed(ctx context.Context, feedbackID int64, classification ClassificationResult, dupResult dedup.Result, specWritten bool) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("emit")})
	if err := o.emitter.EmitProcessed(ctx, queue.ProcessedEvent{
		FeedbackID:     feedbackID,
		Classification: string(classification.Classification),
		Severity:       string(classification.Severity),
		IsDuplicate:    dupResult.IsDuplicate,
		DuplicateOf:    dupResult.DuplicateOf,
		SpecWritten:    specWritten,
		GitHubIssueURL: nil,
	}); err != nil {
		return fmt.Errorf("emitting processed event: %w", err)
	}
	return nil
}

// buildLabels merges the model's suggestions with the classification and
// severity labels, preserving order and dropping duplicates.
func buildLabels(suggested []string, classification ClassificationResult) []string {
	seen := make(map[string]bool, len(suggested)+2)
	labels := make([]string, 0, len(suggested)+2)
	for _, l := range append(append([]string{}, suggested...),
		string(classification.Classification), string(classification.Severity)) {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	return labels
}
