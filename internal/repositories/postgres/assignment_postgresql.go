package postgres

import (
	"context"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/gorm"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (a *AssignmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := a.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&assignment, id).Error
	if err != nil {
		return nil, classify("assignment.get", err)
	}
	return &assignment, nil
}
