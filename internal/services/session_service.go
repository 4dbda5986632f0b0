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

// SessionService owns the one-session-per-(student, assignment) invariant
// and resumption.
type SessionService interface {
	GetOrCreate(ctx context.Context, studentID string, assignmentID uint) (*models.Session, error)
	Get(ctx context.Context, sessionID uint) (*models.Session, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Session, error)
}

type sessionService struct {
	repo      repositories.Repository
	logger    utils.Logger
	retry     store.RetryPolicy
	analytics analyticsEmitter
}

func NewSessionService(repo repositories.Repository, logger utils.Logger, publisher events.Publisher) SessionService {
	return &sessionService{
		repo:      repo,
		logger:    logger,
		retry:     store.DefaultRetryPolicy(),
		analytics: analyticsEmitter{publisher: publisher, logger: logger},
	}
}

// GetOrCreate looks up the session for (student, assignment) and creates it
// with index 0 only when the lookup definitively reported NotFound. A
// lookup that keeps failing transiently aborts instead of falling back to
// creation: shadow-creating a fresh session over an existing one is exactly
// the "progress not saved" bug this layer exists to prevent.
func (s *sessionService) GetOrCreate(ctx context.Context, studentID string, assignmentID uint) (*models.Session, error) {
	if studentID == "" || assignmentID == 0 {
		return nil, ErrInvalidID
	}

	session, err := s.lookup(ctx, studentID, assignmentID)
	switch {
	case err == nil:
		s.touchActivity(session.ID)
		s.analytics.emit(events.NewAnalyticsEvent(events.EventSessionResumed, studentID, assignmentID).
			WithData("current_index", session.CurrentIndex))
		return session, nil
	case !repositories.IsNotFoundError(err):
		return nil, err
	}

	now := time.Now()
	created := &models.Session{
		StudentID:      studentID,
		AssignmentID:   assignmentID,
		CurrentIndex:   0,
		StartedAt:      now,
		LastActivityAt: now,
	}
	err = s.retry.Do(ctx, "session.create", func(ctx context.Context) error {
		return s.repo.Session().CreateIfAbsent(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	// Racing duplicate loads reconcile here: the conflict-key insert has a
	// single winner either way, and the re-read returns it to both callers.
	session, err = s.lookup(ctx, studentID, assignmentID)
	if err != nil {
		return nil, err
	}

	// The winning creator gets an ID back from the insert; the loser's
	// insert was a conflict no-op.
	if created.ID != 0 && created.ID == session.ID {
		s.logger.Info("homework session created",
			"student_id", studentID,
			"assignment_id", assignmentID,
			"session_id", session.ID)
		s.analytics.emit(events.NewAnalyticsEvent(events.EventSessionStarted, studentID, assignmentID))
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID uint) (*models.Session, error) {
	if sessionID == 0 {
		return nil, ErrInvalidID
	}
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

func (s *sessionService) ListByStudent(ctx context.Context, studentID string) ([]*models.Session, error) {
	if studentID == "" {
		return nil, ErrInvalidID
	}
	var sessions []*models.Session
	err := s.retry.Do(ctx, "session.list", func(ctx context.Context) error {
		var err error
		sessions, err = s.repo.Session().ListByStudent(ctx, studentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *sessionService) lookup(ctx context.Context, studentID string, assignmentID uint) (*models.Session, error) {
	var session *models.Session
	err := s.retry.Do(ctx, "session.lookup", func(ctx context.Context) error {
		var err error
		session, err = s.repo.Session().GetByStudentAndAssignment(ctx, studentID, assignmentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// touchActivity updates last-activity in the background. Best effort: the
// session was found, so a failing touch must not abort resumption.
func (s *sessionService) touchActivity(sessionID uint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.retry.CallTimeout)
		defer cancel()
		if err := s.repo.Session().TouchActivity(ctx, sessionID, time.Now()); err != nil {
			s.logger.Debug("session activity touch failed", "session_id", sessionID, "error", err)
		}
	}()
}
