package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/grader"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/store"
	"github.com/SAP-F-2025/homework-service/internal/utils"
)

// ResponseService autosaves individual answers: grade, then idempotent
// upsert keyed on (student, question, assignment), with per-key in-flight
// supersession so only the latest value ever lands.
type ResponseService interface {
	Save(ctx context.Context, req *SaveResponseRequest) (*models.Response, error)

	// GetResponses repopulates client state on resumption.
	GetResponses(ctx context.Context, studentID string, assignmentID uint) (map[uint]*models.Response, error)
}

type SaveResponseRequest struct {
	StudentID    string           `json:"student_id" validate:"required"`
	QuestionID   uint             `json:"question_id" validate:"required,min=1"`
	AssignmentID uint             `json:"assignment_id" validate:"required,min=1"`
	RawAnswer    json.RawMessage  `json:"answer" validate:"required"`
	Question     *models.Question `json:"-" validate:"required"`
}

type responseKey struct {
	StudentID    string
	QuestionID   uint
	AssignmentID uint
}

// inflightWrite tracks one pending durable write for a question key.
type inflightWrite struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

type responseService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *utils.Validator
	retry     store.RetryPolicy
	analytics analyticsEmitter

	mu       sync.Mutex
	inflight map[responseKey]*inflightWrite
}

func NewResponseService(repo repositories.Repository, logger utils.Logger, validator *utils.Validator, publisher events.Publisher) ResponseService {
	return &responseService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		retry:     store.DefaultRetryPolicy(),
		analytics: analyticsEmitter{publisher: publisher, logger: logger},
		inflight:  make(map[responseKey]*inflightWrite),
	}
}

// errSupersededCause cancels an older write when a newer answer for the
// same question arrives.
var errSupersededCause = errors.New("superseded by newer answer for the same question")

func (s *responseService) Save(ctx context.Context, req *SaveResponseRequest) (*models.Response, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, errors.Join(ErrValidationFailed, err)
	}
	if req.Question.ID != req.QuestionID {
		return nil, ErrQuestionNotFound
	}

	// Decode once at the boundary; everything below works with the typed
	// variant.
	answer, err := models.DecodeAnswer(req.Question.Type, req.RawAnswer)
	if err != nil {
		return nil, errors.Join(ErrInvalidAnswer, err)
	}

	// Grade before writing so the stored record always carries derived
	// grading and never needs a second pass.
	result := grader.Grade(req.Question, answer)

	encoded, err := models.EncodeAnswer(answer)
	if err != nil {
		return nil, errors.Join(ErrInvalidAnswer, err)
	}
	response := &models.Response{
		StudentID:    req.StudentID,
		QuestionID:   req.QuestionID,
		AssignmentID: req.AssignmentID,
		Answer:       encoded,
		PointsEarned: result.PointsEarned,
		NeedsReview:  result.NeedsReview,
	}
	if result.Gradable {
		correct := result.Correct
		response.IsCorrect = &correct
	}

	key := responseKey{req.StudentID, req.QuestionID, req.AssignmentID}
	writeCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	entry := &inflightWrite{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	prev := s.inflight[key]
	s.inflight[key] = entry
	s.mu.Unlock()

	if prev != nil {
		// Supersede the older write and wait it out so this value is
		// guaranteed to land last.
		prev.cancel(errSupersededCause)
		<-prev.done
	}

	defer func() {
		close(entry.done)
		s.mu.Lock()
		if s.inflight[key] == entry {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
	}()

	err = s.retry.Do(writeCtx, "response.upsert", func(ctx context.Context) error {
		return s.repo.Response().Upsert(ctx, response)
	})
	if err != nil {
		if errors.Is(context.Cause(writeCtx), errSupersededCause) {
			return nil, ErrSaveSuperseded
		}
		s.logger.Warn("answer save exhausted retries",
			"student_id", req.StudentID,
			"question_id", req.QuestionID,
			"assignment_id", req.AssignmentID,
			"error", err)
		s.analytics.emit(events.NewAnalyticsEvent(events.EventAnswerSaveFailed, req.StudentID, req.AssignmentID).
			WithQuestion(req.QuestionID))
		return nil, &SaveFailure{
			StudentID:    req.StudentID,
			QuestionID:   req.QuestionID,
			AssignmentID: req.AssignmentID,
			Attempts:     s.retry.MaxAttempts,
			Err:          err,
		}
	}

	s.analytics.emit(events.NewAnalyticsEvent(events.EventAnswerSaved, req.StudentID, req.AssignmentID).
		WithQuestion(req.QuestionID))
	return response, nil
}

func (s *responseService) GetResponses(ctx context.Context, studentID string, assignmentID uint) (map[uint]*models.Response, error) {
	if studentID == "" || assignmentID == 0 {
		return nil, ErrInvalidID
	}

	var responses []*models.Response
	err := s.retry.Do(ctx, "response.list", func(ctx context.Context) error {
		var err error
		responses, err = s.repo.Response().GetByStudentAndAssignment(ctx, studentID, assignmentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uint]*models.Response, len(responses))
	for _, response := range responses {
		byQuestion[response.QuestionID] = response
	}
	return byQuestion, nil
}
