package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/store"
	"github.com/SAP-F-2025/homework-service/internal/utils"
)

// SubmissionService finalizes a homework session. Two durable effects must
// both happen on a backend without cross-record transactions, so the order
// is fixed: the score-bearing submission record is written first, the
// session completion mark second. A missing completion mark is a
// lower-stakes inconsistency than a missing score and is retried in the
// background without blocking the user-visible success.
type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error)
	GetSubmission(ctx context.Context, studentID string, assignmentID uint) (*models.Submission, error)
}

type SubmitRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	AssignmentID uint   `json:"assignment_id" validate:"required,min=1"`
	SessionID    uint   `json:"session_id" validate:"required,min=1"`
	CurrentIndex int    `json:"current_index" validate:"min=0"`
}

type SubmitResult struct {
	Submission *models.Submission `json:"submission"`

	// CompletionPending is true when the score is durably recorded but the
	// session completion mark is still being retried in the background.
	CompletionPending bool `json:"completion_pending"`
}

type submissionService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *utils.Validator
	progress  ProgressTracker
	retry     store.RetryPolicy
	analytics analyticsEmitter
}

func NewSubmissionService(repo repositories.Repository, logger utils.Logger, validator *utils.Validator, progress ProgressTracker, publisher events.Publisher) SubmissionService {
	return &submissionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		progress:  progress,
		retry:     store.DefaultRetryPolicy(),
		analytics: analyticsEmitter{publisher: publisher, logger: logger},
	}
}

func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, ErrValidationFailed
	}

	session, err := s.getSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.StudentID != req.StudentID || session.AssignmentID != req.AssignmentID {
		return nil, ErrSessionNotOwned
	}
	if session.Completed {
		// Re-submission of a finalized session replays the recorded result
		// instead of producing a second one.
		submission, err := s.GetSubmission(ctx, req.StudentID, req.AssignmentID)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Submission: submission}, nil
	}

	// Settle any still-pending navigation writes before scoring.
	if s.progress != nil {
		if err := s.progress.Flush(ctx); err != nil {
			s.logger.Warn("progress flush before submit failed", "session_id", req.SessionID, "error", err)
		}
	}

	score, maxScore, err := s.computeScore(ctx, req.StudentID, req.AssignmentID)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		StudentID:    req.StudentID,
		AssignmentID: req.AssignmentID,
		Score:        score,
		MaxScore:     maxScore,
		SubmittedAt:  time.Now(),
	}

	// Step 1: the submission record. If this fails the session stays
	// not-completed and the whole operation is retryable.
	err = s.retry.Do(ctx, "submission.upsert", func(ctx context.Context) error {
		return s.repo.Submission().Upsert(ctx, submission)
	})
	if err != nil {
		return nil, &PartialFailure{Step: StepSubmissionRecord, Err: err}
	}

	// Step 2: the completion mark. The score is already durable, so a
	// failure here downgrades to a background retry.
	err = s.retry.Do(ctx, "session.complete", func(ctx context.Context) error {
		return s.repo.Session().MarkCompleted(ctx, req.SessionID, submission.SubmittedAt)
	})
	completionPending := false
	if err != nil {
		completionPending = true
		s.logger.Warn("session completion mark deferred to background retry",
			"session_id", req.SessionID,
			"error", err)
		s.retryCompletionInBackground(req.SessionID, submission.SubmittedAt)
	}

	s.logger.Info("homework submitted",
		"student_id", req.StudentID,
		"assignment_id", req.AssignmentID,
		"session_id", req.SessionID,
		"score", score,
		"max_score", maxScore)
	s.analytics.emit(events.NewAnalyticsEvent(events.EventHomeworkSubmitted, req.StudentID, req.AssignmentID).
		WithData("score", score).
		WithData("max_score", maxScore))

	return &SubmitResult{Submission: submission, CompletionPending: completionPending}, nil
}

func (s *submissionService) GetSubmission(ctx context.Context, studentID string, assignmentID uint) (*models.Submission, error) {
	if studentID == "" || assignmentID == 0 {
		return nil, ErrInvalidID
	}
	var submission *models.Submission
	err := s.retry.Do(ctx, "submission.get", func(ctx context.Context) error {
		var err error
		submission, err = s.repo.Submission().GetByStudentAndAssignment(ctx, studentID, assignmentID)
		return err
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}

func (s *submissionService) getSession(ctx context.Context, sessionID uint) (*models.Session, error) {
	var session *models.Session
	err := s.retry.Do(ctx, "session.get", func(ctx context.Context) error {
		var err error
		session, err = s.repo.Session().GetByID(ctx, sessionID)
		return err
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// computeScore sums derived points over stored responses. Grading already
// happened at save time, so this is a read, not a grading pass.
func (s *submissionService) computeScore(ctx context.Context, studentID string, assignmentID uint) (float64, float64, error) {
	var assignment *models.Assignment
	err := s.retry.Do(ctx, "assignment.get", func(ctx context.Context) error {
		var err error
		assignment, err = s.repo.Assignment().GetByIDWithQuestions(ctx, assignmentID)
		return err
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, 0, ErrAssignmentNotFound
		}
		return 0, 0, err
	}

	var responses []*models.Response
	err = s.retry.Do(ctx, "response.list", func(ctx context.Context) error {
		var err error
		responses, err = s.repo.Response().GetByStudentAndAssignment(ctx, studentID, assignmentID)
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	var score float64
	for _, response := range responses {
		score += response.PointsEarned
	}

	maxScore := float64(assignment.TotalPoints)
	if maxScore == 0 {
		for _, q := range assignment.Questions {
			maxScore += float64(q.Points)
		}
	}
	return score, maxScore, nil
}

// retryCompletionInBackground keeps trying the completion mark after the
// user-visible submit already succeeded.
func (s *submissionService) retryCompletionInBackground(sessionID uint, at time.Time) {
	policy := s.retry
	policy.MaxAttempts = 5
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		err := policy.Do(ctx, "session.complete", func(ctx context.Context) error {
			return s.repo.Session().MarkCompleted(ctx, sessionID, at)
		})
		if err != nil {
			// The submission record is durable; the stale completion flag is
			// reconciled the next time the session is read.
			s.logger.Error("background session completion failed",
				"session_id", sessionID,
				"error", err)
			return
		}
		s.logger.Info("background session completion succeeded", "session_id", sessionID)
	}()
}
