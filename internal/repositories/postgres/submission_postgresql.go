package postgres

import (
	"context"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Upsert(ctx context.Context, submission *models.Submission) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"}, {Name: "assignment_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "max_score", "submitted_at",
			}),
		}).
		Create(submission).Error
	return classify("submission.upsert", err)
}

func (s *SubmissionPostgreSQL) GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		First(&submission).Error
	if err != nil {
		return nil, classify("submission.get", err)
	}
	return &submission, nil
}
