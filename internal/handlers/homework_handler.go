package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/services"
	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// HomeworkHandler exposes the synchronization engine to the presentation
// layer.
type HomeworkHandler struct {
	assignments services.AssignmentService
	sessions    services.SessionService
	responses   services.ResponseService
	progress    services.ProgressTracker
	submissions services.SubmissionService
	reports     services.ReportService
	logger      utils.Logger
}

func NewHomeworkHandler(
	assignments services.AssignmentService,
	sessions services.SessionService,
	responses services.ResponseService,
	progress services.ProgressTracker,
	submissions services.SubmissionService,
	reports services.ReportService,
	logger utils.Logger,
) *HomeworkHandler {
	return &HomeworkHandler{
		assignments: assignments,
		sessions:    sessions,
		responses:   responses,
		progress:    progress,
		submissions: submissions,
		reports:     reports,
		logger:      logger,
	}
}

// GetAssignment handles GET /api/v1/assignments/:id
func (h *HomeworkHandler) GetAssignment(c *gin.Context) {
	assignment, err := h.assignments.LoadRaw(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// GetOrCreateSession handles POST /api/v1/assignments/:id/session
func (h *HomeworkHandler) GetOrCreateSession(c *gin.Context) {
	student := studentID(c)
	assignment, err := h.assignments.LoadRaw(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	session, err := h.sessions.GetOrCreate(c.Request.Context(), student, assignment.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// Resumption payload: durable session state plus the stored answers so
	// the client can rebuild its local cache in one round trip.
	responses, err := h.responses.GetResponses(c.Request.Context(), student, assignment.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":    session,
		"assignment": assignment,
		"responses":  responses,
	})
}

type saveAnswerBody struct {
	Answer json.RawMessage `json:"answer" binding:"required"`
}

// SaveResponse handles PUT /api/v1/sessions/:id/assignments/:assignment_id/responses/:question_id
func (h *HomeworkHandler) SaveResponse(c *gin.Context) {
	student := studentID(c)

	assignmentID, err := parseUintParam(c, "assignment_id")
	if err != nil {
		handleServiceError(c, services.ErrInvalidID)
		return
	}
	questionID, err := parseUintParam(c, "question_id")
	if err != nil {
		handleServiceError(c, services.ErrInvalidID)
		return
	}

	var body saveAnswerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Code: "invalid_input"})
		return
	}

	assignment, err := h.assignments.Load(c.Request.Context(), assignmentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	question := findQuestion(assignment.Questions, questionID)
	if question == nil {
		handleServiceError(c, services.ErrQuestionNotFound)
		return
	}

	response, err := h.responses.Save(c.Request.Context(), &services.SaveResponseRequest{
		StudentID:    student,
		QuestionID:   questionID,
		AssignmentID: assignmentID,
		RawAnswer:    body.Answer,
		Question:     question,
	})
	if err != nil {
		if errors.Is(err, services.ErrSaveSuperseded) {
			// A newer answer replaced this one while it was in flight; the
			// client already holds the newer value.
			c.JSON(http.StatusOK, SuccessResponse{Message: "superseded"})
			return
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "saved", Data: response})
}

type advanceBody struct {
	Index        int    `json:"index" binding:"min=0"`
	StudentID    string `json:"student_id"`
	AssignmentID uint   `json:"assignment_id"`
}

// AdvanceProgress handles PUT /api/v1/sessions/:id/progress. It never
// blocks on the durable write; the tracker persists asynchronously.
func (h *HomeworkHandler) AdvanceProgress(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		handleServiceError(c, services.ErrInvalidID)
		return
	}
	var body advanceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Code: "invalid_input"})
		return
	}
	student := body.StudentID
	if student == "" {
		student = studentID(c)
	}

	h.progress.Advance(sessionID, student, body.AssignmentID, body.Index)
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "accepted"})
}

// Submit handles POST /api/v1/sessions/:id/submit
func (h *HomeworkHandler) Submit(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		handleServiceError(c, services.ErrInvalidID)
		return
	}

	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Code: "invalid_input"})
		return
	}
	req.SessionID = sessionID
	if req.StudentID == "" {
		req.StudentID = studentID(c)
	}

	result, err := h.submissions.Submit(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetResponses handles GET /api/v1/assignments/:id/responses
func (h *HomeworkHandler) GetResponses(c *gin.Context) {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		handleServiceError(c, services.ErrInvalidID)
		return
	}
	responses, err := h.responses.GetResponses(c.Request.Context(), studentID(c), assignmentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// ExportGradeReport handles GET /api/v1/assignments/:id/report
func (h *HomeworkHandler) ExportGradeReport(c *gin.Context) {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		handleServiceError(c, services.ErrInvalidID)
		return
	}
	report, err := h.reports.ExportGradeReport(c.Request.Context(), studentID(c), assignmentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=grade_report.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report)
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, services.ErrInvalidID
	}
	return uint(id), nil
}

func findQuestion(questions []models.Question, id uint) *models.Question {
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i]
		}
	}
	return nil
}
