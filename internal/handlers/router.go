package handlers

import (
	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the engine's operations under /api/v1.
func SetupRoutes(router *gin.Engine, handler *HomeworkHandler, logger utils.Logger) {
	router.Use(utils.RequestLogger(logger))
	router.Use(gin.Recovery())

	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		assignments := v1.Group("/assignments")
		{
			assignments.GET("/:id", handler.GetAssignment)
			assignments.POST("/:id/session", handler.GetOrCreateSession)
			assignments.GET("/:id/responses", handler.GetResponses)
			assignments.GET("/:id/report", handler.ExportGradeReport)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.PUT("/:id/assignments/:assignment_id/responses/:question_id", handler.SaveResponse)
			sessions.PUT("/:id/progress", handler.AdvanceProgress)
			sessions.POST("/:id/submit", handler.Submit)
		}
	}
}
