package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session is the durable record of one student's progress through one
// assignment. Exactly one non-retired row exists per (student, assignment);
// the unique index backs the conflict-key upsert in the session repository.
type Session struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentID    string `json:"student_id" gorm:"not null;size:64;uniqueIndex:uq_sessions_student_assignment" validate:"required"`
	AssignmentID uint   `json:"assignment_id" gorm:"not null;uniqueIndex:uq_sessions_student_assignment" validate:"required,min=1"`

	CurrentIndex int  `json:"current_index" gorm:"not null;default:0"` // 0-based, non-decreasing
	Completed    bool `json:"completed" gorm:"not null;default:false"`

	StartedAt      time.Time  `json:"started_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// Response holds a student's stored answer to one question with derived
// grading. Keyed by (student, question, assignment); later writes for the
// same key overwrite rather than duplicate.
type Response struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentID    string `json:"student_id" gorm:"not null;size:64;uniqueIndex:uq_responses_key" validate:"required"`
	QuestionID   uint   `json:"question_id" gorm:"not null;uniqueIndex:uq_responses_key" validate:"required,min=1"`
	AssignmentID uint   `json:"assignment_id" gorm:"not null;index;uniqueIndex:uq_responses_key" validate:"required,min=1"`

	Answer datatypes.JSON `json:"answer" gorm:"type:jsonb"` // TextAnswer, SelectionAnswer or GridAnswer

	// Derived grading, computed before the write so the stored record never
	// needs a second pass.
	IsCorrect    *bool   `json:"is_correct"` // nil when the type is not auto-gradable
	PointsEarned float64 `json:"points_earned" gorm:"not null;default:0"`
	NeedsReview  bool    `json:"needs_review" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submission records the finalized score for one (student, assignment).
// Created exactly once per successful finalization; retried finalizations
// upsert on the same key.
type Submission struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentID    string `json:"student_id" gorm:"not null;size:64;uniqueIndex:uq_submissions_key" validate:"required"`
	AssignmentID uint   `json:"assignment_id" gorm:"not null;uniqueIndex:uq_submissions_key" validate:"required,min=1"`

	Score       float64   `json:"score" gorm:"not null"`
	MaxScore    float64   `json:"max_score" gorm:"not null"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (Session) TableName() string {
	return "homework_sessions"
}

func (Response) TableName() string {
	return "responses"
}

func (Submission) TableName() string {
	return "submissions"
}
