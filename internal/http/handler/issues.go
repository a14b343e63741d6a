package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"feedloop.app/triage/internal/http/dto"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/service"
	"feedloop.app/triage/internal/store"
)

const defaultListLimit = 50

type IssueHandler struct {
	approval    service.ApprovalService
	adminAPIKey string
}

func NewIssueHandler(approval service.ApprovalService, adminAPIKey string) *IssueHandler {
	return &IssueHandler{
		approval:    approval,
		adminAPIKey: adminAPIKey,
	}
}

func (h *IssueHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	status, ok := statusParam(c)
	if !ok {
		return
	}

	limit := int32(defaultListLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = int32(parsed)
	}

	drafts, err := h.approval.List(ctx, status, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list issue drafts", "error", err, "status", status)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": drafts, "count": len(drafts)})
}

func (h *IssueHandler) Count(c *gin.Context) {
	ctx := c.Request.Context()

	status, ok := statusParam(c)
	if !ok {
		return
	}

	count, err := h.approval.Count(ctx, status)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count issue drafts", "error", err, "status", status)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count issues"})
		return
	}

	c.JSON(http.StatusOK, dto.IssueCountResponse{Status: string(status), Count: count})
}

func (h *IssueHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	draftID, ok := draftIDParam(c)
	if !ok {
		return
	}

	view, err := h.approval.Get(ctx, draftID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get issue draft", "error", err, "draft_id", draftID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get issue"})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *IssueHandler) Approve(c *gin.Context) {
	ctx := c.Request.Context()

	draftID, ok := draftIDParam(c)
	if !ok {
		return
	}

	var req dto.ApproveIssueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	draft, err := h.approval.Approve(ctx, service.ApproveParams{
		DraftID:      draftID,
		CustomTitle:  req.CustomTitle,
		CustomLabels: req.CustomLabels,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
		case errors.Is(err, store.ErrInvalidState):
			c.JSON(http.StatusBadRequest, gin.H{"error": "issue is not in draft status"})
		case errors.Is(err, service.ErrTrackerFailed):
			slog.ErrorContext(ctx, "tracker rejected issue creation", "error", err, "draft_id", draftID)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create tracker issue"})
		default:
			slog.ErrorContext(ctx, "failed to approve issue draft", "error", err, "draft_id", draftID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *IssueHandler) Reject(c *gin.Context) {
	ctx := c.Request.Context()

	draftID, ok := draftIDParam(c)
	if !ok {
		return
	}

	var req dto.RejectIssueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	draft, err := h.approval.Reject(ctx, draftID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
		case errors.Is(err, store.ErrInvalidState):
			c.JSON(http.StatusBadRequest, gin.H{"error": "issue is not in draft status"})
		default:
			slog.ErrorContext(ctx, "failed to reject issue draft", "error", err, "draft_id", draftID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject issue"})
		}
		return
	}

	c.JSON(http.StatusOK, draft)
}

// RequireAdminAPIKey guards the review endpoints. Accepts the key via
// X-Admin-API-Key or a Bearer token.
func (h *IssueHandler) RequireAdminAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminAPIKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin API not configured"})
			c.Abort()
			return
		}

		apiKey := c.GetHeader("X-Admin-API-Key")
		if apiKey == "" {
			apiKey = c.GetHeader("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}

		if apiKey != h.adminAPIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func statusParam(c *gin.Context) (model.DraftStatus, bool) {
	raw := c.DefaultQuery("status", string(model.DraftStatusDraft))
	if !model.ValidDraftStatus(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return "", false
	}
	return model.DraftStatus(raw), true
}

func draftIDParam(c *gin.Context) (int64, bool) {
	draftID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issue id"})
		return 0, false
	}
	return draftID, true
}
