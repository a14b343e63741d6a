package router

import (
	"github.com/gin-gonic/gin"

	"feedloop.app/triage/internal/http/handler/webhook"
)

func WebhookRouter(router *gin.RouterGroup, discord *webhook.DiscordWebhookHandler, slack *webhook.SlackWebhookHandler) {
	router.POST("/discord", discord.HandleMessage)
	router.POST("/slack", slack.HandleEvent)
}
