package router

import (
	"github.com/gin-gonic/gin"

	"feedloop.app/triage/internal/http/handler"
	"feedloop.app/triage/internal/http/handler/webhook"
	"feedloop.app/triage/internal/service"
)

type RouterConfig struct {
	AdminAPIKey    string
	InternalAPIKey string
}

type Services struct {
	FeedbackIngest service.FeedbackIngestService
	Approval       service.ApprovalService
	DraftSave      service.DraftSaveService
}

func SetupRoutes(router *gin.Engine, services Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		discordHandler := webhook.NewDiscordWebhookHandler(services.FeedbackIngest)
		slackHandler := webhook.NewSlackWebhookHandler(services.FeedbackIngest)
		WebhookRouter(api.Group("/webhooks"), discordHandler, slackHandler)

		issueHandler := handler.NewIssueHandler(services.Approval, cfg.AdminAPIKey)
		IssueRouter(api.Group("/issues"), issueHandler)

		internalHandler := handler.NewInternalHandler(services.DraftSave, cfg.InternalAPIKey)
		InternalRouter(api.Group("/internal"), internalHandler)
	}
}
