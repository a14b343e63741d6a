package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so pipeline context (feedback_id, draft_id,
// etc.) is included in every log statement without threading it by hand.
type LogFields struct {
	FeedbackID *int64  // Feedback item ID being processed
	DraftID    *int64  // Issue draft ID
	MessageID  *string // Redis stream message ID
	Source     *string // Feedback source ("discord", "slack")
	Stage      *string // Pipeline stage (e.g., "classify", "dedup", "draft")
	Component  string  // Component name (OTel semantic convention style, e.g., "triage.worker.pipeline")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.FeedbackID != nil {
		result.FeedbackID = new.FeedbackID
	}
	if new.DraftID != nil {
		result.DraftID = new.DraftID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Source != nil {
		result.Source = new.Source
	}
	if new.Stage != nil {
		result.Stage = new.Stage
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{FeedbackID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like feedback content or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
