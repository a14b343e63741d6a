package router

import (
	"github.com/gin-gonic/gin"

	"feedloop.app/triage/internal/http/handler"
)

func InternalRouter(router *gin.RouterGroup, h *handler.InternalHandler) {
	router.Use(h.RequireInternalAPIKey())

	router.POST("/save-issue", h.SaveIssue)
	router.POST("/triage-result", h.TriageResult)
}
