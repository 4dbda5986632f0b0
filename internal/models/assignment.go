package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	ShortAnswer    QuestionType = "short_answer"
	LongAnswer     QuestionType = "long_answer"
	Tickbox        QuestionType = "tickbox"
	Grid           QuestionType = "grid"
)

type Assignment struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	TotalPoints int     `json:"total_points" gorm:"not null" validate:"min=0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:AssignmentID"`
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssignmentID uint         `json:"assignment_id" gorm:"not null;index"`
	Position     int          `json:"position" gorm:"not null"` // 0-based order within the assignment
	Type         QuestionType `json:"type" gorm:"not null" validate:"required,question_type"`
	Prompt       string       `json:"prompt" gorm:"not null;type:text" validate:"required"`
	Points       int          `json:"points" gorm:"not null;default:1" validate:"min=0"`

	// Type-specific payloads, one serialization strategy per variant (see answer.go)
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb"`        // ChoiceOptions or GridOptions
	CorrectAnswer datatypes.JSON `json:"correct_answer" gorm:"type:jsonb"` // nil for ungradable types
	ImageURLs     datatypes.JSON `json:"image_urls" gorm:"type:jsonb"`     // []string, consumed by the image widget
}

func (Assignment) TableName() string {
	return "assignments"
}

func (Question) TableName() string {
	return "questions"
}
