package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"feedloop.app/triage/internal/http/dto"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/service"
	"feedloop.app/triage/internal/store"
)

// InternalHandler receives the worker's persistence callbacks. Not
// exposed to reviewers; guarded by the shared internal key.
type InternalHandler struct {
	draftSave      service.DraftSaveService
	internalAPIKey string
}

func NewInternalHandler(draftSave service.DraftSaveService, internalAPIKey string) *InternalHandler {
	return &InternalHandler{
		draftSave:      draftSave,
		internalAPIKey: internalAPIKey,
	}
}

func (h *InternalHandler) SaveIssue(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SaveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid save-issue request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !model.ValidClassification(req.Classification) || !model.ValidSeverity(req.Severity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid classification or severity"})
		return
	}

	draft, err := h.draftSave.SaveIssue(ctx, service.SaveIssueParams{
		FeedbackID:         req.FeedbackID,
		Title:              req.Title,
		Body:               req.Body,
		Classification:     model.Classification(req.Classification),
		Severity:           model.Severity(req.Severity),
		Reasoning:          req.Reasoning,
		Confidence:         req.Confidence,
		ReproductionSteps:  req.ReproductionSteps,
		AffectedComponents: req.AffectedComponents,
		AcceptanceCriteria: req.AcceptanceCriteria,
		Labels:             req.Labels,
		SpecConfidence:     req.SpecConfidence,
		FallbackApplied:    req.FallbackApplied,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feedback item not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to save issue draft",
			"error", err,
			"feedback_id", req.FeedbackID,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save issue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved", "id": draft.ID})
}

func (h *InternalHandler) TriageResult(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TriageResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid triage-result request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !model.ValidClassification(req.Classification) || !model.ValidSeverity(req.Severity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid classification or severity"})
		return
	}

	err := h.draftSave.RecordTriage(ctx, service.RecordTriageParams{
		FeedbackID:      req.FeedbackID,
		Classification:  model.Classification(req.Classification),
		Severity:        model.Severity(req.Severity),
		Confidence:      req.Confidence,
		Reasoning:       req.Reasoning,
		FallbackApplied: req.FallbackApplied,
		IsDuplicate:     req.IsDuplicate,
		DuplicateOf:     req.DuplicateOf,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feedback item not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to record triage result",
			"error", err,
			"feedback_id", req.FeedbackID,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record triage result"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// RequireInternalAPIKey guards worker callbacks with the shared internal
// key, sent as a Bearer token.
func (h *InternalHandler) RequireInternalAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.internalAPIKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal API not configured"})
			c.Abort()
			return
		}

		apiKey := c.GetHeader("Authorization")
		if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
			apiKey = apiKey[7:]
		}

		if apiKey != h.internalAPIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
