package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/store"
)

// The store gateway exposes four operation shapes per entity: point lookup
// by equality filter (Get...), insert (Create...), patch by filter
// (Touch/Advance/Mark...), and conflict-key upsert (Upsert/CreateIfAbsent).
// Every backend failure that is not a NotFound is surfaced as a
// store.TransientError; callers own retry.

// AssignmentRepository is read-only: assignment content is immutable for
// the duration of a session.
type AssignmentRepository interface {
	// GetByIDWithQuestions fetches the assignment and its ordered question
	// list in one logical read; callers must never chain an existence check
	// in front of this.
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assignment, error)
}

type SessionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Session, error)
	GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) (*models.Session, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Session, error)

	// CreateIfAbsent inserts the session unless a row for the same
	// (student, assignment) already exists. Racing creators reconcile to a
	// single winner; the caller re-reads to learn which row won.
	CreateIfAbsent(ctx context.Context, session *models.Session) error

	TouchActivity(ctx context.Context, id uint, at time.Time) error

	// AdvanceIndex persists a new current question index. The write is a
	// no-op when the stored index is already >= index or the session is
	// completed, so a stale in-flight write can never regress progress.
	AdvanceIndex(ctx context.Context, id uint, index int, at time.Time) error

	MarkCompleted(ctx context.Context, id uint, at time.Time) error
}

type ResponseRepository interface {
	// Upsert writes the response keyed by (student, question, assignment);
	// replaying the same write is a no-op in effect.
	Upsert(ctx context.Context, response *models.Response) error

	GetByKey(ctx context.Context, studentID string, questionID, assignmentID uint) (*models.Response, error)
	GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) ([]*models.Response, error)
}

type SubmissionRepository interface {
	// Upsert writes the submission keyed by (student, assignment); a
	// retried finalization must not create a second record.
	Upsert(ctx context.Context, submission *models.Submission) error

	GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) (*models.Submission, error)
}

// Repository bundles the per-entity gateways behind one injection point.
type Repository interface {
	Assignment() AssignmentRepository
	Session() SessionRepository
	Response() ResponseRepository
	Submission() SubmissionRepository
}

// IsNotFoundError reports whether err represents an absent record rather
// than a real backend failure.
func IsNotFoundError(err error) bool {
	return store.IsNotFound(err)
}
