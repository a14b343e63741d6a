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

type SlackWebhookHandler struct {
	feedbackIngest service.FeedbackIngestService
}

func NewSlackWebhookHandler(feedbackIngest service.FeedbackIngestService) *SlackWebhookHandler {
	return &SlackWebhookHandler{feedbackIngest: feedbackIngest}
}

// HandleEvent processes Slack Events API deliveries. URL verification
// challenges arrive on the same endpoint and are echoed back without
// touching the pipeline.
func (h *SlackWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var envelope ingest.SlackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		slog.WarnContext(ctx, "invalid slack payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if envelope.IsChallenge() {
		c.JSON(http.StatusOK, gin.H{"challenge": envelope.Challenge})
		return
	}

	var text string
	metadata := map[string]string{}
	if envelope.Event != nil {
		text = envelope.Event.ExtractText()
		metadata = envelope.Event.Metadata()
	}
	if envelope.TeamID != "" {
		metadata["team_id"] = envelope.TeamID
	}

	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message content"})
		return
	}

	result, err := h.feedbackIngest.Ingest(ctx, service.FeedbackIngestParams{
		Source:     model.SourceSlack,
		Content:    text,
		Metadata:   metadata,
		RawPayload: body,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to ingest slack event",
			"error", err,
			"channel", metadata["channel"],
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
