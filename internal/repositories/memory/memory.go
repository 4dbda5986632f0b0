// Package memory implements the store gateway against process-local maps
// with injectable latency and failure behavior. It stands in for the real
// backend in tests and local development, where the interesting property is
// not durability but the 0.5-3s latency and ~10% transient failure rate the
// engine has to survive.
package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/store"
)

type responseKey struct {
	StudentID    string
	QuestionID   uint
	AssignmentID uint
}

type submissionKey struct {
	StudentID    string
	AssignmentID uint
}

type Store struct {
	mu sync.Mutex

	assignments map[uint]*models.Assignment
	sessions    map[uint]*models.Session
	responses   map[responseKey]*models.Response
	submissions map[submissionKey]*models.Submission

	nextSessionID    uint
	nextResponseID   uint
	nextSubmissionID uint

	latency     time.Duration
	failureRate float64
	rng         *rand.Rand

	scriptedFailures map[string]int
	scriptedDelays   map[string][]time.Duration
	calls            map[string]int
}

func NewStore() *Store {
	return &Store{
		assignments:      make(map[uint]*models.Assignment),
		sessions:         make(map[uint]*models.Session),
		responses:        make(map[responseKey]*models.Response),
		submissions:      make(map[submissionKey]*models.Submission),
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		scriptedFailures: make(map[string]int),
		scriptedDelays:   make(map[string][]time.Duration),
		calls:            make(map[string]int),
	}
}

// SetLatency applies a fixed delay to every call.
func (s *Store) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// SetFailureRate makes every call fail transiently with probability rate.
func (s *Store) SetFailureRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureRate = rate
}

// FailNext makes the next n calls of op fail transiently, independent of
// the random failure rate. Op names match the gateway operations, e.g.
// "session.lookup", "response.upsert".
func (s *Store) FailNext(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptedFailures[op] += n
}

// DelayNext delays the next call of op by d before it takes effect.
// Queued delays apply in call order.
func (s *Store) DelayNext(op string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptedDelays[op] = append(s.scriptedDelays[op], d)
}

// CallCount reports how many calls of op reached the store, including ones
// that failed.
func (s *Store) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// SeedAssignment installs assignment content for reads. Question order
// follows Position.
func (s *Store) SeedAssignment(assignment *models.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *assignment
	s.assignments[assignment.ID] = &cp
}

// simulate applies the configured latency and failure behavior for one
// call. It must be invoked without holding s.mu.
func (s *Store) simulate(ctx context.Context, op string) error {
	s.mu.Lock()
	s.calls[op]++
	delay := s.latency
	if q := s.scriptedDelays[op]; len(q) > 0 {
		delay += q[0]
		s.scriptedDelays[op] = q[1:]
	}
	fail := false
	if s.scriptedFailures[op] > 0 {
		s.scriptedFailures[op]--
		fail = true
	} else if s.failureRate > 0 && s.rng.Float64() < s.failureRate {
		fail = true
	}
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return store.NewTransientError(op, ctx.Err())
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return store.NewTransientError(op, err)
	}
	if fail {
		return store.NewTransientError(op, errSimulated)
	}
	return nil
}

var errSimulated = simulatedError("simulated backend failure")

type simulatedError string

func (e simulatedError) Error() string { return string(e) }

// ===== Repository =====

func (s *Store) Assignment() repositories.AssignmentRepository { return assignmentStore{s} }
func (s *Store) Session() repositories.SessionRepository       { return sessionStore{s} }
func (s *Store) Response() repositories.ResponseRepository     { return responseStore{s} }
func (s *Store) Submission() repositories.SubmissionRepository { return submissionStore{s} }

// ===== Assignments =====

type assignmentStore struct{ s *Store }

func (a assignmentStore) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assignment, error) {
	if err := a.s.simulate(ctx, "assignment.get"); err != nil {
		return nil, err
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	assignment, ok := a.s.assignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *assignment
	cp.Questions = append([]models.Question(nil), assignment.Questions...)
	return &cp, nil
}

// ===== Sessions =====

type sessionStore struct{ s *Store }

func (st sessionStore) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	if err := st.s.simulate(ctx, "session.get"); err != nil {
		return nil, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	session, ok := st.s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (st sessionStore) GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) (*models.Session, error) {
	if err := st.s.simulate(ctx, "session.lookup"); err != nil {
		return nil, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if session := st.s.findSessionLocked(studentID, assignmentID); session != nil {
		cp := *session
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (st sessionStore) ListByStudent(ctx context.Context, studentID string) ([]*models.Session, error) {
	if err := st.s.simulate(ctx, "session.list"); err != nil {
		return nil, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	var out []*models.Session
	for _, session := range st.s.sessions {
		if session.StudentID == studentID {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (st sessionStore) CreateIfAbsent(ctx context.Context, session *models.Session) error {
	if err := st.s.simulate(ctx, "session.create"); err != nil {
		return err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if existing := st.s.findSessionLocked(session.StudentID, session.AssignmentID); existing != nil {
		// Conflict-key no-op; the racing creator re-reads the winner.
		return nil
	}
	st.s.nextSessionID++
	cp := *session
	cp.ID = st.s.nextSessionID
	st.s.sessions[cp.ID] = &cp
	session.ID = cp.ID
	return nil
}

func (st sessionStore) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	if err := st.s.simulate(ctx, "session.touch"); err != nil {
		return err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if session, ok := st.s.sessions[id]; ok {
		session.LastActivityAt = at
	}
	return nil
}

func (st sessionStore) AdvanceIndex(ctx context.Context, id uint, index int, at time.Time) error {
	if err := st.s.simulate(ctx, "session.advance"); err != nil {
		return err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	session, ok := st.s.sessions[id]
	if !ok {
		return nil
	}
	if session.Completed || session.CurrentIndex >= index {
		return nil
	}
	session.CurrentIndex = index
	session.LastActivityAt = at
	return nil
}

func (st sessionStore) MarkCompleted(ctx context.Context, id uint, at time.Time) error {
	if err := st.s.simulate(ctx, "session.complete"); err != nil {
		return err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if session, ok := st.s.sessions[id]; ok {
		session.Completed = true
		completedAt := at
		session.CompletedAt = &completedAt
		session.LastActivityAt = at
	}
	return nil
}

func (s *Store) findSessionLocked(studentID string, assignmentID uint) *models.Session {
	for _, session := range s.sessions {
		if session.StudentID == studentID && session.AssignmentID == assignmentID {
			return session
		}
	}
	return nil
}

// ===== Responses =====

type responseStore struct{ s *Store }

func (rs responseStore) Upsert(ctx context.Context, response *models.Response) error {
	if err := rs.s.simulate(ctx, "response.upsert"); err != nil {
		return err
	}
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	key := responseKey{response.StudentID, response.QuestionID, response.AssignmentID}
	now := time.Now()
	if existing, ok := rs.s.responses[key]; ok {
		existing.Answer = response.Answer
		existing.IsCorrect = response.IsCorrect
		existing.PointsEarned = response.PointsEarned
		existing.NeedsReview = response.NeedsReview
		existing.UpdatedAt = now
		response.ID = existing.ID
		return nil
	}
	rs.s.nextResponseID++
	cp := *response
	cp.ID = rs.s.nextResponseID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	rs.s.responses[key] = &cp
	response.ID = cp.ID
	return nil
}

func (rs responseStore) GetByKey(ctx context.Context, studentID string, questionID, assignmentID uint) (*models.Response, error) {
	if err := rs.s.simulate(ctx, "response.get"); err != nil {
		return nil, err
	}
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	response, ok := rs.s.responses[responseKey{studentID, questionID, assignmentID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *response
	return &cp, nil
}

func (rs responseStore) GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) ([]*models.Response, error) {
	if err := rs.s.simulate(ctx, "response.list"); err != nil {
		return nil, err
	}
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	var out []*models.Response
	for key, response := range rs.s.responses {
		if key.StudentID == studentID && key.AssignmentID == assignmentID {
			cp := *response
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ===== Submissions =====

type submissionStore struct{ s *Store }

func (ss submissionStore) Upsert(ctx context.Context, submission *models.Submission) error {
	if err := ss.s.simulate(ctx, "submission.upsert"); err != nil {
		return err
	}
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	key := submissionKey{submission.StudentID, submission.AssignmentID}
	if existing, ok := ss.s.submissions[key]; ok {
		existing.Score = submission.Score
		existing.MaxScore = submission.MaxScore
		existing.SubmittedAt = submission.SubmittedAt
		submission.ID = existing.ID
		return nil
	}
	ss.s.nextSubmissionID++
	cp := *submission
	cp.ID = ss.s.nextSubmissionID
	ss.s.submissions[key] = &cp
	submission.ID = cp.ID
	return nil
}

func (ss submissionStore) GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) (*models.Submission, error) {
	if err := ss.s.simulate(ctx, "submission.get"); err != nil {
		return nil, err
	}
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	submission, ok := ss.s.submissions[submissionKey{studentID, assignmentID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *submission
	return &cp, nil
}
