package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories/memory"
	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type responseFixture struct {
	store      *memory.Store
	assignment *models.Assignment
	publisher  *events.MockPublisher
}

func newResponseService(t *testing.T) (ResponseService, *responseFixture) {
	t.Helper()
	store, assignment := seedStore(t)
	publisher := events.NewMockPublisher()
	svc := NewResponseService(store, testLogger(), utils.NewValidator(), publisher)
	return svc, &responseFixture{store: store, assignment: assignment, publisher: publisher}
}

func TestResponseService_SaveGradesBeforeWriting(t *testing.T) {
	svc, fx := newResponseService(t)
	ctx := context.Background()

	response, err := svc.Save(ctx, &SaveResponseRequest{
		StudentID:    "student-1",
		QuestionID:   11,
		AssignmentID: 1,
		RawAnswer:    mustJSON(t, models.TextAnswer{Text: "water and sunlight"}),
		Question:     question(t, fx.assignment, 11),
	})
	require.NoError(t, err)

	require.NotNil(t, response.IsCorrect)
	assert.True(t, *response.IsCorrect)
	assert.Equal(t, 2.0, response.PointsEarned)

	stored, err := fx.store.Response().GetByKey(ctx, "student-1", 11, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, stored.PointsEarned)
}

func TestResponseService_SaveIsIdempotent(t *testing.T) {
	svc, fx := newResponseService(t)
	ctx := context.Background()

	req := &SaveResponseRequest{
		StudentID:    "student-1",
		QuestionID:   11,
		AssignmentID: 1,
		RawAnswer:    mustJSON(t, models.TextAnswer{Text: "Water and sunlight"}),
		Question:     question(t, fx.assignment, 11),
	}

	_, err := svc.Save(ctx, req)
	require.NoError(t, err)
	_, err = svc.Save(ctx, req)
	require.NoError(t, err)

	all, err := fx.store.Response().GetByStudentAndAssignment(ctx, "student-1", 1)
	require.NoError(t, err)
	assert.Len(t, all, 1, "replaying the same save must not duplicate the record")
}

func TestResponseService_LastWriteWins(t *testing.T) {
	svc, fx := newResponseService(t)
	ctx := context.Background()

	// The first write is held up long enough for the second to arrive.
	fx.store.DelayNext("response.upsert", 400*time.Millisecond)

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Save(ctx, &SaveResponseRequest{
			StudentID:    "student-1",
			QuestionID:   11,
			AssignmentID: 1,
			RawAnswer:    mustJSON(t, models.TextAnswer{Text: "A"}),
			Question:     question(t, fx.assignment, 11),
		})
		firstDone <- err
	}()

	time.Sleep(100 * time.Millisecond)

	_, err := svc.Save(ctx, &SaveResponseRequest{
		StudentID:    "student-1",
		QuestionID:   11,
		AssignmentID: 1,
		RawAnswer:    mustJSON(t, models.TextAnswer{Text: "B"}),
		Question:     question(t, fx.assignment, 11),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, <-firstDone, ErrSaveSuperseded)

	stored, err := fx.store.Response().GetByKey(ctx, "student-1", 11, 1)
	require.NoError(t, err)

	var answer models.TextAnswer
	require.NoError(t, json.Unmarshal(stored.Answer, &answer))
	assert.Equal(t, "B", answer.Text, "an older in-flight write must never clobber a newer one")
}

func TestResponseService_RetriesTransientFailures(t *testing.T) {
	svc, fx := newResponseService(t)
	ctx := context.Background()

	// Two failures fit inside the three-attempt bound.
	fx.store.FailNext("response.upsert", 2)

	_, err := svc.Save(ctx, &SaveResponseRequest{
		StudentID:    "student-1",
		QuestionID:   12,
		AssignmentID: 1,
		RawAnswer:    mustJSON(t, models.SelectionAnswer{Selected: []string{"Tree", "Dog", "Flower"}}),
		Question:     question(t, fx.assignment, 12),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, fx.store.CallCount("response.upsert"))
}

func TestResponseService_ExhaustedRetriesSurfaceFailure(t *testing.T) {
	svc, fx := newResponseService(t)
	ctx := context.Background()

	fx.store.FailNext("response.upsert", 3)

	_, err := svc.Save(ctx, &SaveResponseRequest{
		StudentID:    "student-1",
		QuestionID:   11,
		AssignmentID: 1,
		RawAnswer:    mustJSON(t, models.TextAnswer{Text: "A"}),
		Question:     question(t, fx.assignment, 11),
	})
	require.Error(t, err)

	failure, ok := IsSaveFailure(err)
	require.True(t, ok, "exhausted retries must surface as an observable SaveFailure, got %v", err)
	assert.Equal(t, uint(11), failure.QuestionID)
	assert.Equal(t, 3, failure.Attempts)

	assert.Eventually(t, func() bool {
		for _, event := range fx.publisher.PublishedEvents() {
			if event.Type == events.EventAnswerSaveFailed && event.QuestionID == 11 {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "save failure should emit an analytics event")
}

func TestResponseService_InvalidAnswerRejectedBeforeWrite(t *testing.T) {
	svc, fx := newResponseService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, &SaveResponseRequest{
		StudentID:    "student-1",
		QuestionID:   11,
		AssignmentID: 1,
		RawAnswer:    []byte(`{"text": 42}`),
		Question:     question(t, fx.assignment, 11),
	})
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
	assert.Zero(t, fx.store.CallCount("response.upsert"), "caller bugs never reach the store")
}

func TestResponseService_GetResponsesMapsByQuestion(t *testing.T) {
	svc, fx := newResponseService(t)
	ctx := context.Background()

	for _, save := range []struct {
		questionID uint
		raw        []byte
	}{
		{11, mustJSON(t, models.TextAnswer{Text: "Water and sunlight"})},
		{13, mustJSON(t, models.TextAnswer{Text: "plants making food from light"})},
	} {
		_, err := svc.Save(ctx, &SaveResponseRequest{
			StudentID:    "student-1",
			QuestionID:   save.questionID,
			AssignmentID: 1,
			RawAnswer:    save.raw,
			Question:     question(t, fx.assignment, save.questionID),
		})
		require.NoError(t, err)
	}

	byQuestion, err := svc.GetResponses(ctx, "student-1", 1)
	require.NoError(t, err)
	assert.Len(t, byQuestion, 2)
	assert.Contains(t, byQuestion, uint(11))
	assert.Contains(t, byQuestion, uint(13))
	assert.True(t, byQuestion[13].NeedsReview)
}
