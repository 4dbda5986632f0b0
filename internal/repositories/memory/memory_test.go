package memory

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_NotFoundIsNotTransient(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Assignment().GetByIDWithQuestions(ctx, 42)
	assert.True(t, store.IsNotFound(err))
	assert.False(t, store.IsTransient(err))

	_, err = s.Session().GetByID(ctx, 42)
	assert.True(t, store.IsNotFound(err))

	_, err = s.Response().GetByKey(ctx, "student-1", 1, 1)
	assert.True(t, store.IsNotFound(err))

	_, err = s.Submission().GetByStudentAndAssignment(ctx, "student-1", 1)
	assert.True(t, store.IsNotFound(err))
}

func TestStore_ScriptedFailuresAreTransient(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.SeedAssignment(&models.Assignment{ID: 1, Title: "t"})

	s.FailNext("assignment.get", 2)

	_, err := s.Assignment().GetByIDWithQuestions(ctx, 1)
	assert.True(t, store.IsTransient(err))

	_, err = s.Assignment().GetByIDWithQuestions(ctx, 1)
	assert.True(t, store.IsTransient(err))

	_, err = s.Assignment().GetByIDWithQuestions(ctx, 1)
	assert.NoError(t, err)

	assert.Equal(t, 3, s.CallCount("assignment.get"))
}

func TestStore_LatencyRespectsContext(t *testing.T) {
	s := NewStore()
	s.SetLatency(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Session().GetByID(ctx, 1)
	require.Error(t, err)
	assert.True(t, store.IsTransient(err), "a timed-out call reads as transient, not absent")
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the simulated latency short")
}

func TestStore_CreateIfAbsentSingleWinner(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &models.Session{StudentID: "student-1", AssignmentID: 1, StartedAt: time.Now(), LastActivityAt: time.Now()}
	require.NoError(t, s.Session().CreateIfAbsent(ctx, first))
	require.NotZero(t, first.ID)

	// The losing insert is a no-op and gets no ID back.
	second := &models.Session{StudentID: "student-1", AssignmentID: 1, StartedAt: time.Now(), LastActivityAt: time.Now()}
	require.NoError(t, s.Session().CreateIfAbsent(ctx, second))
	assert.Zero(t, second.ID)

	found, err := s.Session().GetByStudentAndAssignment(ctx, "student-1", 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestStore_AdvanceIndexMonotonicGuard(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	session := &models.Session{StudentID: "student-1", AssignmentID: 1, StartedAt: time.Now(), LastActivityAt: time.Now()}
	require.NoError(t, s.Session().CreateIfAbsent(ctx, session))

	require.NoError(t, s.Session().AdvanceIndex(ctx, session.ID, 4, time.Now()))
	require.NoError(t, s.Session().AdvanceIndex(ctx, session.ID, 2, time.Now()))

	stored, err := s.Session().GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.CurrentIndex, "a stale write must not regress the cursor")

	// Completion freezes the cursor entirely.
	require.NoError(t, s.Session().MarkCompleted(ctx, session.ID, time.Now()))
	require.NoError(t, s.Session().AdvanceIndex(ctx, session.ID, 9, time.Now()))
	stored, err = s.Session().GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.CurrentIndex)
}

func TestStore_ResponseUpsertOverwritesInPlace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &models.Response{StudentID: "student-1", QuestionID: 1, AssignmentID: 1, Answer: []byte(`{"text":"A"}`)}
	require.NoError(t, s.Response().Upsert(ctx, first))
	require.NotZero(t, first.ID)

	second := &models.Response{StudentID: "student-1", QuestionID: 1, AssignmentID: 1, Answer: []byte(`{"text":"B"}`)}
	require.NoError(t, s.Response().Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID, "the upsert keys on (student, question, assignment)")

	all, err := s.Response().GetByStudentAndAssignment(ctx, "student-1", 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.JSONEq(t, `{"text":"B"}`, string(all[0].Answer))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	session := &models.Session{StudentID: "student-1", AssignmentID: 1, StartedAt: time.Now(), LastActivityAt: time.Now()}
	require.NoError(t, s.Session().CreateIfAbsent(ctx, session))

	read, err := s.Session().GetByID(ctx, session.ID)
	require.NoError(t, err)
	read.CurrentIndex = 99

	again, err := s.Session().GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.CurrentIndex, "callers must not be able to mutate stored state")
}
