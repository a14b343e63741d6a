package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedloop.app/triage/common/llm"
	"feedloop.app/triage/internal/model"
)

type SpecResponse struct {
	Title              string   `json:"title" jsonschema:"minLength=5,maxLength=100" jsonschema_description:"Issue title, imperative mood"`
	ProblemStatement   string   `json:"problem_statement" jsonschema_description:"What is wrong or missing, from the user's perspective"`
	ReproductionSteps  []string `json:"reproduction_steps" jsonschema:"maxItems=10" jsonschema_description:"Steps to reproduce, empty for feature requests"`
	AffectedComponents []string `json:"affected_components" jsonschema:"minItems=1,maxItems=5" jsonschema_description:"Product areas likely involved"`
	AcceptanceCriteria []string `json:"acceptance_criteria" jsonschema:"minItems=1,maxItems=5" jsonschema_description:"Verifiable completion criteria"`
	SuggestedLabels    []string `json:"suggested_labels" jsonschema:"minItems=1,maxItems=5" jsonschema_description:"Tracker labels"`
	SpecConfidence     float64  `json:"spec_confidence" jsonschema_description:"Confidence that this spec captures the feedback, 0.0-1.0"`
}

var specSchema = llm.GenerateSchema[SpecResponse]()

// DraftResult is the spec drafting stage record.
type DraftResult struct {
	Title              string
	ProblemStatement   string
	ReproductionSteps  []string
	AffectedComponents []string
	AcceptanceCriteria []string
	SuggestedLabels    []string
	SpecConfidence     float64
	FallbackApplied    bool
}

type Drafter struct {
	llm         llm.Client
	maxTokens   int
	temperature float64
}

func NewDrafter(client llm.Client, maxTokens int, temperature float64) *Drafter {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Drafter{
		llm:         client,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

const specSystemPrompt = `You write actionable issue specs from raw user feedback.
The feedback has already been classified; your job is to turn it into something
an engineer can pick up.

Rules:
- Title is 5-100 characters, imperative, specific.
- reproduction_steps only for bugs that include enough detail; otherwise empty.
- affected_components: best-effort guesses are fine, 1-5 entries.
- acceptance_criteria: 1-5 verifiable statements.
- suggested_labels: 1-5 short lowercase labels.
- Do not invent details the feedback does not support; lower spec_confidence instead.`

// Draft produces a spec for a classified feedback item. LLM failure or an
// out-of-bounds response yields a deterministic fallback spec so the item
// still gets a reviewable draft.
func (d *Drafter) Draft(ctx context.Context, content string, classification model.Classification, severity model.Severity) DraftResult {
	prompt := fmt.Sprintf("Classification: %s\nSeverity: %s\n\nFeedback:\n%s",
		classification, severity, content)

	var response SpecResponse
	start := time.Now()

	_, err := llm.ChatWithRetry(ctx, d.llm, llm.Request{
		SystemPrompt: specSystemPrompt,
		UserPrompt:   prompt,
		SchemaName:   "spec_response",
		Schema:       specSchema,
		MaxTokens:    d.maxTokens,
		Temperature:  llm.Temp(d.temperature),
	}, &response)

	if err == nil {
		if boundsErr := validateSpec(response); boundsErr != nil {
			err = boundsErr
		}
	}

	if err != nil {
		slog.ErrorContext(ctx, "spec drafting failed, applying fallback", "error", err)
		return fallbackDraft(content, classification, severity)
	}

	slog.InfoContext(ctx, "spec drafted",
		"title", logTitle(response.Title),
		"spec_confidence", response.SpecConfidence,
		"latency_ms", time.Since(start).Milliseconds())

	return DraftResult{
		Title:              response.Title,
		ProblemStatement:   response.ProblemStatement,
		ReproductionSteps:  response.ReproductionSteps,
		AffectedComponents: response.AffectedComponents,
		AcceptanceCriteria: response.AcceptanceCriteria,
		SuggestedLabels:    response.SuggestedLabels,
		SpecConfidence:     response.SpecConfidence,
	}
}

func validateSpec(r SpecResponse) error {
	if l := len(r.Title); l < 5 || l > 100 {
		return fmt.Errorf("title length %d out of bounds", l)
	}
	if l := len(r.ReproductionSteps); l > 10 {
		return fmt.Errorf("reproduction_steps count %d out of bounds", l)
	}
	if l := len(r.AffectedComponents); l < 1 || l > 5 {
		return fmt.Errorf("affected_components count %d out of bounds", l)
	}
	if l := len(r.AcceptanceCriteria); l < 1 || l > 5 {
		return fmt.Errorf("acceptance_criteria count %d out of bounds", l)
	}
	if l := len(r.SuggestedLabels); l < 1 || l > 5 {
		return fmt.Errorf("suggested_labels count %d out of bounds", l)
	}
	return nil
}

func fallbackDraft(content string, classification model.Classification, severity model.Severity) DraftResult {
	return DraftResult{
		Title:              fallbackTitle(content, classification),
		ProblemStatement:   content,
		ReproductionSteps:  []string{},
		AffectedComponents: []string{"unknown"},
		AcceptanceCriteria: []string{"Verify the issue is resolved"},
		SuggestedLabels:    []string{string(classification), string(severity)},
		SpecConfidence:     0.0,
		FallbackApplied:    true,
	}
}

func fallbackTitle(content string, classification model.Classification) string {
	summary := content
	if runes := []rune(summary); len(runes) > 80 {
		summary = string(runes[:80])
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(classification)), summary)
}

// FormatBody renders the draft as tracker-ready markdown.
func (r DraftResult) FormatBody() string {
	var sb strings.Builder

	sb.WriteString("## Problem\n\n")
	sb.WriteString(r.ProblemStatement)
	sb.WriteString("\n")

	if len(r.ReproductionSteps) > 0 {
		sb.WriteString("\n## Reproduction Steps\n\n")
		for i, step := range r.ReproductionSteps {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
		}
	}

	if len(r.AffectedComponents) > 0 {
		sb.WriteString("\n## Affected Components\n\n")
		for _, c := range r.AffectedComponents {
			sb.WriteString(fmt.Sprintf("- %s\n", c))
		}
	}

	if len(r.AcceptanceCriteria) > 0 {
		sb.WriteString("\n## Acceptance Criteria\n\n")
		for _, c := range r.AcceptanceCriteria {
			sb.WriteString(fmt.Sprintf("- [ ] %s\n", c))
		}
	}

	return sb.String()
}

func logTitle(title string) string {
	if len(title) > 60 {
		return title[:60] + "..."
	}
	return title
}
