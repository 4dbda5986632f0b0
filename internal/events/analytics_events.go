package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// Analytics events are strictly best-effort: emission must never delay or
// fail an engine operation.

type EventType string

const (
	EventSessionStarted    EventType = "session_started"
	EventSessionResumed    EventType = "session_resumed"
	EventAnswerSaved       EventType = "answer_saved"
	EventAnswerSaveFailed  EventType = "answer_save_failed"
	EventProgressAdvanced  EventType = "progress_advanced"
	EventHomeworkSubmitted EventType = "homework_submitted"
)

type AnalyticsEvent struct {
	ID           string                 `json:"id"`
	Type         EventType              `json:"type"`
	StudentID    string                 `json:"student_id"`
	AssignmentID uint                   `json:"assignment_id"`
	QuestionID   uint                   `json:"question_id,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

// NewAnalyticsEvent stamps identity and time on a new event.
func NewAnalyticsEvent(eventType EventType, studentID string, assignmentID uint) *AnalyticsEvent {
	return &AnalyticsEvent{
		ID:           watermill.NewUUID(),
		Type:         eventType,
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Timestamp:    time.Now(),
	}
}

func (e *AnalyticsEvent) WithQuestion(questionID uint) *AnalyticsEvent {
	e.QuestionID = questionID
	return e
}

func (e *AnalyticsEvent) WithData(key string, value interface{}) *AnalyticsEvent {
	if e.Data == nil {
		e.Data = make(map[string]interface{})
	}
	e.Data[key] = value
	return e
}
