package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, classify("session.get", err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		First(&session).Error
	if err != nil {
		return nil, classify("session.lookup", err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) ListByStudent(ctx context.Context, studentID string) ([]*models.Session, error) {
	var sessions []*models.Session
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, classify("session.list", err)
	}
	return sessions, nil
}

// CreateIfAbsent relies on the unique (student_id, assignment_id) index:
// the losing side of a racing create becomes a no-op instead of a
// duplicate row.
func (s *SessionPostgreSQL) CreateIfAbsent(ctx context.Context, session *models.Session) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "assignment_id"}},
			DoNothing: true,
		}).
		Create(session).Error
	return classify("session.create", err)
}

func (s *SessionPostgreSQL) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Update("last_activity_at", at).Error
	return classify("session.touch", err)
}

func (s *SessionPostgreSQL) AdvanceIndex(ctx context.Context, id uint, index int, at time.Time) error {
	// The current_index guard makes stale or replayed writes no-ops, so the
	// durable cursor never moves backwards.
	err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND current_index < ? AND completed = ?", id, index, false).
		Updates(map[string]interface{}{
			"current_index":    index,
			"last_activity_at": at,
		}).Error
	return classify("session.advance", err)
}

func (s *SessionPostgreSQL) MarkCompleted(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"completed":        true,
			"completed_at":     at,
			"last_activity_at": at,
		}).Error
	return classify("session.complete", err)
}
