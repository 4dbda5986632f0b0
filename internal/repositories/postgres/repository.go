package postgres

import (
	"errors"

	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/store"
	"gorm.io/gorm"
)

type Repository struct {
	assignment repositories.AssignmentRepository
	session    repositories.SessionRepository
	response   repositories.ResponseRepository
	submission repositories.SubmissionRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		assignment: NewAssignmentPostgreSQL(db),
		session:    NewSessionPostgreSQL(db),
		response:   NewResponsePostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
	}
}

func (r *Repository) Assignment() repositories.AssignmentRepository { return r.assignment }
func (r *Repository) Session() repositories.SessionRepository       { return r.session }
func (r *Repository) Response() repositories.ResponseRepository     { return r.response }
func (r *Repository) Submission() repositories.SubmissionRepository { return r.submission }

// classify maps gorm errors onto the gateway taxonomy: an absent record is
// the only non-transient outcome.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return store.NewTransientError(op, err)
}
