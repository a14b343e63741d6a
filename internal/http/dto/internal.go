package dto

// SaveIssueRequest is posted by the worker after the spec-draft stage.
// Field names are camelCase to match the callback client.
type SaveIssueRequest struct {
	FeedbackID         int64    `json:"feedbackId" binding:"required"`
	Title              string   `json:"title" binding:"required"`
	Body               string   `json:"body"`
	Classification     string   `json:"classification" binding:"required"`
	Severity           string   `json:"severity" binding:"required"`
	Reasoning          string   `json:"reasoning"`
	Confidence         float64  `json:"confidence"`
	ReproductionSteps  []string `json:"reproductionSteps"`
	AffectedComponents []string `json:"affectedComponents"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Labels             []string `json:"labels"`
	SpecConfidence     float64  `json:"specConfidence"`
	FallbackApplied    bool     `json:"fallbackApplied"`
}

// TriageResultRequest is posted by the worker for items that finish
// without a draft (questions and duplicates).
type TriageResultRequest struct {
	FeedbackID      int64   `json:"feedbackId" binding:"required"`
	Classification  string  `json:"classification" binding:"required"`
	Severity        string  `json:"severity" binding:"required"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	FallbackApplied bool    `json:"fallbackApplied"`
	IsDuplicate     bool    `json:"isDuplicate"`
	DuplicateOf     *int64  `json:"duplicateOf,omitempty"`
}
