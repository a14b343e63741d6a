package router

import (
	"github.com/gin-gonic/gin"

	"feedloop.app/triage/internal/http/handler"
)

func IssueRouter(router *gin.RouterGroup, h *handler.IssueHandler) {
	router.Use(h.RequireAdminAPIKey())

	router.GET("", h.List)
	router.GET("/count", h.Count)
	router.GET("/:id", h.Get)
	router.POST("/:id/approve", h.Approve)
	router.POST("/:id/reject", h.Reject)
}
