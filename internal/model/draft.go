package model

import "time"

type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusPublished DraftStatus = "published"
	DraftStatusRejected  DraftStatus = "rejected"
)

// IssueDraft is a tracker-ready issue generated from a feedback item.
// Drafts start in "draft" and move to exactly one of the terminal
// states: "published" (a tracker issue was created) or "rejected".
type IssueDraft struct {
	ID         int64 `json:"id"`
	FeedbackID int64 `json:"feedback_id"`

	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Classification Classification `json:"classification"`
	Severity       Severity       `json:"severity"`
	Reasoning      string         `json:"reasoning,omitempty"`
	Confidence     float64        `json:"confidence"`

	ReproductionSteps  []string `json:"reproduction_steps"`
	AffectedComponents []string `json:"affected_components"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	Labels             []string `json:"labels"`
	SpecConfidence     float64  `json:"spec_confidence"`

	Status          DraftStatus `json:"status"`
	ExternalURL     *string     `json:"external_url,omitempty"`
	RejectionReason *string     `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the draft has reached a final state.
func (d *IssueDraft) Terminal() bool {
	return d.Status == DraftStatusPublished || d.Status == DraftStatusRejected
}

func ValidDraftStatus(s string) bool {
	switch DraftStatus(s) {
	case DraftStatusDraft, DraftStatusPublished, DraftStatusRejected:
		return true
	}
	return false
}
