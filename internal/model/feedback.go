package model

import "time"

type Source string

const (
	SourceDiscord Source = "discord"
	SourceSlack   Source = "slack"
)

type Classification string

const (
	ClassificationBug      Classification = "bug"
	ClassificationFeature  Classification = "feature"
	ClassificationQuestion Classification = "question"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FeedbackItem is a single piece of user feedback captured from a chat
// source. Triage and dedup fields are filled in as the worker pipeline
// progresses; they are zero until the item has been processed.
type FeedbackItem struct {
	ID         int64             `json:"id"`
	Source     Source            `json:"source"`
	RawContent string            `json:"raw_content"`
	RawPayload []byte            `json:"-"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`

	Classification  Classification `json:"classification,omitempty"`
	Severity        Severity       `json:"severity,omitempty"`
	Confidence      float64        `json:"confidence"`
	Reasoning       string         `json:"reasoning,omitempty"`
	FallbackApplied bool           `json:"fallback_applied"`

	IsDuplicate bool       `json:"is_duplicate"`
	DuplicateOf *int64     `json:"duplicate_of,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ValidClassification reports whether s is one of the known classes.
func ValidClassification(s string) bool {
	switch Classification(s) {
	case ClassificationBug, ClassificationFeature, ClassificationQuestion:
		return true
	}
	return false
}

// ValidSeverity reports whether s is one of the known severities.
func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
