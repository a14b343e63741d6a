package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"feedloop.app/triage/internal/http/dto"
	"feedloop.app/triage/internal/ingest"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/service"
)

type DiscordWebhookHandler struct {
	feedbackIngest service.FeedbackIngestService
}

func NewDiscordWebhookHandler(feedbackIngest service.FeedbackIngestService) *DiscordWebhookHandler {
	return &DiscordWebhookHandler{feedbackIngest: feedbackIngest}
}

func (h *DiscordWebhookHandler) HandleMessage(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var msg ingest.DiscordMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		slog.WarnContext(ctx, "invalid discord payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	text := msg.ExtractText()
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message content"})
		return
	}

	result, err := h.feedbackIngest.Ingest(ctx, service.FeedbackIngestParams{
		Source:     model.SourceDiscord,
		Content:    text,
		Metadata:   msg.Metadata(),
		RawPayload: body,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to ingest discord message",
			"error", err,
			"channel_id", msg.ChannelID,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue feedback"})
		return
	}

	c.JSON(http.StatusAccepted, dto.QueuedResponse{
		Status:    "queued",
		ID:        result.Item.ID,
		Topic:     result.Topic,
		Timestamp: result.Item.ReceivedAt,
	})
}
