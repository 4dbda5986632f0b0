package postgres

import (
	"context"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r *ResponsePostgreSQL) Upsert(ctx context.Context, response *models.Response) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"}, {Name: "question_id"}, {Name: "assignment_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer", "is_correct", "points_earned", "needs_review", "updated_at",
			}),
		}).
		Create(response).Error
	return classify("response.upsert", err)
}

func (r *ResponsePostgreSQL) GetByKey(ctx context.Context, studentID string, questionID, assignmentID uint) (*models.Response, error) {
	var response models.Response
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND question_id = ? AND assignment_id = ?", studentID, questionID, assignmentID).
		First(&response).Error
	if err != nil {
		return nil, classify("response.get", err)
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) ([]*models.Response, error) {
	var responses []*models.Response
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		Find(&responses).Error
	if err != nil {
		return nil, classify("response.list", err)
	}
	return responses, nil
}
