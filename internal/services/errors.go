package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/homework-service/internal/store"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Caller bugs, surfaced immediately and never retried
	ErrInvalidID        = errors.New("invalid identifier")
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidAnswer    = errors.New("invalid answer payload")

	// Absent entities, terminal for the load that hit them
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrQuestionNotFound   = errors.New("question not found in assignment")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSubmissionNotFound = errors.New("submission not found")

	// State conflicts
	ErrSessionCompleted = errors.New("session already completed")
	ErrSessionNotOwned  = errors.New("session does not belong to student")

	// ErrSaveSuperseded signals that a newer answer for the same question
	// replaced this save while it was in flight. Not a user-visible failure:
	// the latest value is what lands.
	ErrSaveSuperseded = errors.New("save superseded by newer answer")
)

// ===== CUSTOM ERROR TYPES =====

// SaveFailure is returned when a response save exhausted its retries. It is
// an observable state, not a log line: the caller must render "not saved"
// and offer retry for the named question.
type SaveFailure struct {
	StudentID    string `json:"student_id"`
	QuestionID   uint   `json:"question_id"`
	AssignmentID uint   `json:"assignment_id"`
	Attempts     int    `json:"attempts"`
	Err          error  `json:"-"`
}

func (sf *SaveFailure) Error() string {
	return fmt.Sprintf("answer for question %d not saved after %d attempts: %v",
		sf.QuestionID, sf.Attempts, sf.Err)
}

func (sf *SaveFailure) Unwrap() error {
	return sf.Err
}

// Finalization steps named by PartialFailure.
const (
	StepSubmissionRecord  = "submission_record"
	StepSessionCompletion = "session_completion"
)

// PartialFailure reports a multi-step finalization where some but not all
// steps succeeded, with enough detail to know what to retry.
type PartialFailure struct {
	Step string `json:"step"`
	Err  error  `json:"-"`
}

func (pf *PartialFailure) Error() string {
	return fmt.Sprintf("submission incomplete at step %s: %v", pf.Step, pf.Err)
}

func (pf *PartialFailure) Unwrap() error {
	return pf.Err
}

// ===== ERROR HELPERS =====

// IsInvalidInput checks if err is a caller bug rather than a backend state.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidAnswer)
}

// IsNotFound checks if err represents an absent entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		store.IsNotFound(err)
}

// IsTransient checks if err is a retried-and-exhausted backend failure that
// the caller should surface as recoverable.
func IsTransient(err error) bool {
	return store.IsTransient(err)
}

// IsPartialFailure extracts a PartialFailure from err, if present.
func IsPartialFailure(err error) (*PartialFailure, bool) {
	var pf *PartialFailure
	if errors.As(err, &pf) {
		return pf, true
	}
	return nil, false
}

// IsSaveFailure extracts a SaveFailure from err, if present.
func IsSaveFailure(err error) (*SaveFailure, bool) {
	var sf *SaveFailure
	if errors.As(err, &sf) {
		return sf, true
	}
	return nil, false
}
