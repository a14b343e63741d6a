package dto

// ApproveIssueRequest carries optional reviewer edits applied before the
// issue is created in the tracker.
type ApproveIssueRequest struct {
	CustomTitle  *string  `json:"custom_title,omitempty"`
	CustomLabels []string `json:"custom_labels,omitempty"`
}

type RejectIssueRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type IssueCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
