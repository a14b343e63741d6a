package webhook_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"feedloop.app/triage/internal/http/handler/webhook"
	"feedloop.app/triage/internal/model"
	"feedloop.app/triage/internal/service"
)

type mockIngestService struct {
	ingestFn func(ctx context.Context, params service.FeedbackIngestParams) (*service.FeedbackIngestResult, error)
	captured *service.FeedbackIngestParams
}

func (m *mockIngestService) Ingest(ctx context.Context, params service.FeedbackIngestParams) (*service.FeedbackIngestResult, error) {
	m.captured = &params
	if m.ingestFn != nil {
		return m.ingestFn(ctx, params)
	}
	return &service.FeedbackIngestResult{
		Item: &model.FeedbackItem{
			ID:         200,
			Source:     params.Source,
			RawContent: params.Content,
			ReceivedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		},
		Topic: "feedback:received",
	}, nil
}

var _ = Describe("Webhook handlers", func() {
	var (
		router *gin.Engine
		svc    *mockIngestService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockIngestService{}

		router.POST("/api/webhooks/discord", webhook.NewDiscordWebhookHandler(svc).HandleMessage)
		router.POST("/api/webhooks/slack", webhook.NewSlackWebhookHandler(svc).HandleEvent)
	})

	doPost := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Discord", func() {
		It("queues a plain message", func() {
			w := doPost("/api/webhooks/discord", `{
				"id": "111",
				"content": "the export button crashes the app",
				"channel_id": "222",
				"author": {"id": "333", "username": "alice"}
			}`)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(w.Body.String()).To(ContainSubstring(`"status":"queued"`))
			Expect(w.Body.String()).To(ContainSubstring(`"topic":"feedback:received"`))
			Expect(w.Body.String()).To(ContainSubstring(`"id":200`))

			Expect(svc.captured).NotTo(BeNil())
			Expect(svc.captured.Source).To(Equal(model.SourceDiscord))
			Expect(svc.captured.Content).To(Equal("the export button crashes the app"))
			Expect(svc.captured.Metadata["author_username"]).To(Equal("alice"))
		})

		It("extracts text from embeds when content is empty", func() {
			w := doPost("/api/webhooks/discord", `{
				"content": "",
				"embeds": [{"title": "Bug report", "description": "stack trace attached"}]
			}`)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(svc.captured.Content).To(Equal("stack trace attached"))
		})

		It("rejects a message with no usable text", func() {
			w := doPost("/api/webhooks/discord", `{"content": "   "}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("empty message content"))
			Expect(svc.captured).To(BeNil())
		})

		It("rejects malformed JSON", func() {
			w := doPost("/api/webhooks/discord", `{not json`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when ingestion fails", func() {
			svc.ingestFn = func(ctx context.Context, params service.FeedbackIngestParams) (*service.FeedbackIngestResult, error) {
				return nil, errors.New("database unavailable")
			}

			w := doPost("/api/webhooks/discord", `{"content": "something broke"}`)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Slack", func() {
		It("echoes the URL verification challenge", func() {
			w := doPost("/api/webhooks/slack", `{"type": "url_verification", "challenge": "abc123"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"challenge":"abc123"`))
			Expect(svc.captured).To(BeNil())
		})

		It("queues an event callback", func() {
			w := doPost("/api/webhooks/slack", `{
				"type": "event_callback",
				"team_id": "T123",
				"event": {
					"type": "message",
					"text": "search is broken for me",
					"channel": "C456",
					"user": "U789"
				}
			}`)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(svc.captured.Source).To(Equal(model.SourceSlack))
			Expect(svc.captured.Content).To(Equal("search is broken for me"))
			Expect(svc.captured.Metadata["channel"]).To(Equal("C456"))
			Expect(svc.captured.Metadata["team_id"]).To(Equal("T123"))
		})

		It("prefers rich text blocks over the plain text field", func() {
			doPost("/api/webhooks/slack", `{
				"type": "event_callback",
				"event": {
					"type": "message",
					"text": "fallback",
					"blocks": [{
						"type": "rich_text",
						"elements": [{
							"type": "rich_text_section",
							"elements": [{"type": "text", "text": "from blocks"}]
						}]
					}]
				}
			}`)

			Expect(svc.captured.Content).To(Equal("from blocks"))
		})

		It("rejects an event with no usable text", func() {
			w := doPost("/api/webhooks/slack", `{"type": "event_callback", "event": {"type": "message", "text": ""}}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("empty message content"))
		})

		It("rejects an envelope without an event", func() {
			w := doPost("/api/webhooks/slack", `{"type": "event_callback"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
