package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/homework-service/internal/services"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

type ErrorResponse struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// studentID extracts the caller identity established by the upstream auth
// layer. Authentication itself is out of scope here; the gateway guarantees
// a stable identifier.
func studentID(c *gin.Context) string {
	if id := c.GetHeader("X-Student-ID"); id != "" {
		return id
	}
	return c.Query("student_id")
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Retried-and-exhausted transient failures come back as 503 with a
// retryable marker so clients render explicit feedback, never a silent
// console line.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: err.Error(),
			Code:    "invalid_input",
		})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
			Code:    "not_found",
		})
	default:
		if sf, ok := services.IsSaveFailure(err); ok {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Message: "answer not saved, please retry",
				Code:    "save_failed",
				Details: sf,
			})
			return
		}
		if pf, ok := services.IsPartialFailure(err); ok {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Message: "submission not recorded, please retry",
				Code:    "submit_failed",
				Details: pf,
			})
			return
		}
		if services.IsTransient(err) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Message: "temporary backend failure, please retry",
				Code:    "transient",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "internal server error",
			Code:    "internal",
		})
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
