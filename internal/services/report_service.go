package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ReportService builds a grade report for one student's assignment: every
// question with the stored answer, derived grading, and the recorded
// submission score.
type ReportService interface {
	ExportGradeReport(ctx context.Context, studentID string, assignmentID uint) ([]byte, error)
}

type reportService struct {
	assignments AssignmentService
	responses   ResponseService
	submissions SubmissionService
	logger      utils.Logger
}

func NewReportService(assignments AssignmentService, responses ResponseService, submissions SubmissionService, logger utils.Logger) ReportService {
	return &reportService{
		assignments: assignments,
		responses:   responses,
		submissions: submissions,
		logger:      logger,
	}
}

func (s *reportService) ExportGradeReport(ctx context.Context, studentID string, assignmentID uint) ([]byte, error) {
	assignment, err := s.assignments.Load(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.GetResponses(ctx, studentID, assignmentID)
	if err != nil {
		return nil, err
	}
	submission, err := s.submissions.GetSubmission(ctx, studentID, assignmentID)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Grade Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"#", "Question", "Type", "Answer", "Correct", "Points Earned", "Points Possible"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	row := 2
	for _, question := range assignment.Questions {
		values := []interface{}{
			question.Position + 1,
			question.Prompt,
			string(question.Type),
			"",
			"",
			0.0,
			question.Points,
		}
		if response, ok := responses[question.ID]; ok {
			values[3] = string(response.Answer)
			switch {
			case response.NeedsReview:
				values[4] = "needs review"
			case response.IsCorrect != nil && *response.IsCorrect:
				values[4] = "yes"
			case response.IsCorrect != nil:
				values[4] = "no"
			}
			values[5] = response.PointsEarned
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, value)
		}
		row++
	}

	row++
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Title")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), assignment.Title)
	row++
	if submission != nil {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Score")
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row),
			fmt.Sprintf("%.1f / %.1f", submission.Score, submission.MaxScore))
		row++
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Submitted")
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), submission.SubmittedAt.Format("2006-01-02 15:04"))
	} else {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Score")
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "not submitted")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}

	s.logger.Info("grade report exported",
		"student_id", studentID,
		"assignment_id", assignmentID,
		"questions", len(assignment.Questions))
	return buf.Bytes(), nil
}
