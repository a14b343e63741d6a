package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedloop.app/triage/common/llm"
	"feedloop.app/triage/internal/model"
)

type TriageResponse struct {
	Classification string  `json:"classification" jsonschema:"enum=bug,enum=feature,enum=question" jsonschema_description:"What kind of feedback this is"`
	Severity       string  `json:"severity" jsonschema:"enum=low,enum=medium,enum=high,enum=critical" jsonschema_description:"Impact severity"`
	Confidence     float64 `json:"confidence" jsonschema_description:"Confidence in the classification, 0.0-1.0"`
	Reasoning      string  `json:"reasoning" jsonschema_description:"One or two sentences explaining the classification"`
}

var triageSchema = llm.GenerateSchema[TriageResponse]()

// ClassificationResult is the classify stage record. FallbackApplied
// distinguishes a model answer from the deterministic default used when
// the model could not be reached.
type ClassificationResult struct {
	Classification  model.Classification
	Severity        model.Severity
	Confidence      float64
	Reasoning       string
	FallbackApplied bool
}

type Classifier struct {
	llm         llm.Client
	maxTokens   int
	temperature float64
}

func NewClassifier(client llm.Client, maxTokens int, temperature float64) *Classifier {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Classifier{
		llm:         client,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

const triageSystemPrompt = `You are a triage assistant for a software product team.
Classify a single piece of user feedback collected from chat channels.

Rules:
- "bug": the user reports broken, incorrect, or unexpected behavior.
- "feature": the user asks for new functionality or a change in behavior.
- "question": the user asks how something works, or the message fits neither category.
- Severity reflects user impact: "critical" for data loss, crashes, or security issues,
  "high" for broken core flows, "medium" for degraded but usable behavior, "low" otherwise.
- Questions are always "low" severity.
- Confidence is your own estimate between 0.0 and 1.0.`

// Classify never fails the pipeline: any LLM error after retries yields
// the question/low fallback so the item still reaches a terminal state.
func (c *Classifier) Classify(ctx context.Context, content string) ClassificationResult {
	var response TriageResponse
	start := time.Now()

	_, err := llm.ChatWithRetry(ctx, c.llm, llm.Request{
		SystemPrompt: triageSystemPrompt,
		UserPrompt:   fmt.Sprintf("Feedback:\n%s", content),
		SchemaName:   "triage_response",
		Schema:       triageSchema,
		MaxTokens:    c.maxTokens,
		Temperature:  llm.Temp(c.temperature),
	}, &response)

	if err == nil && (!model.ValidClassification(response.Classification) || !model.ValidSeverity(response.Severity)) {
		err = fmt.Errorf("model returned invalid classification %q/%q", response.Classification, response.Severity)
	}

	if err != nil {
		slog.ErrorContext(ctx, "classification failed, applying fallback", "error", err)
		return fallbackClassification(err)
	}

	slog.InfoContext(ctx, "feedback classified",
		"classification", response.Classification,
		"severity", response.Severity,
		"confidence", response.Confidence,
		"latency_ms", time.Since(start).Milliseconds())

	return ClassificationResult{
		Classification: model.Classification(response.Classification),
		Severity:       model.Severity(response.Severity),
		Confidence:     response.Confidence,
		Reasoning:      response.Reasoning,
	}
}

func fallbackClassification(err error) ClassificationResult {
	return ClassificationResult{
		Classification:  model.ClassificationQuestion,
		Severity:        model.SeverityLow,
		Confidence:      0.0,
		Reasoning:       fmt.Sprintf("Classification failed: %v. Defaulting to question.", err),
		FallbackApplied: true,
	}
}
