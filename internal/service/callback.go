package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SaveIssuePayload is the wire body for the internal save-issue callback.
type SaveIssuePayload struct {
	FeedbackID         int64    `json:"feedbackId"`
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	Classification     string   `json:"classification"`
	Severity           string   `json:"severity"`
	Reasoning          string   `json:"reasoning"`
	Confidence         float64  `json:"confidence"`
	ReproductionSteps  []string `json:"reproductionSteps"`
	AffectedComponents []string `json:"affectedComponents"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Labels             []string `json:"labels"`
	SpecConfidence     float64  `json:"specConfidence"`
	FallbackApplied    bool     `json:"fallbackApplied"`
}

// TriageResultPayload is the wire body for the internal triage-result
// callback, used for items that end without a draft.
type TriageResultPayload struct {
	FeedbackID      int64   `json:"feedbackId"`
	Classification  string  `json:"classification"`
	Severity        string  `json:"severity"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	FallbackApplied bool    `json:"fallbackApplied"`
	IsDuplicate     bool    `json:"isDuplicate"`
	DuplicateOf     *int64  `json:"duplicateOf,omitempty"`
}

// CallbackClient is the worker's HTTP client for persisting pipeline
// results through the API server's internal endpoints.
type CallbackClient interface {
	SaveIssue(ctx context.Context, payload SaveIssuePayload) error
	RecordTriage(ctx context.Context, payload TriageResultPayload) error
}

type callbackClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewCallbackClient(baseURL, apiKey string) CallbackClient {
	return &callbackClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *callbackClient) SaveIssue(ctx context.Context, payload SaveIssuePayload) error {
	return c.post(ctx, "/api/internal/save-issue", payload)
}

func (c *callbackClient) RecordTriage(ctx context.Context, payload TriageResultPayload) error {
	return c.post(ctx, "/api/internal/triage-result", payload)
}

func (c *callbackClient) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("callback %s: status %d: %s", path, resp.StatusCode, string(snippet))
	}

	return nil
}
