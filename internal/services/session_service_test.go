package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_GetOrCreateStartsAtZero(t *testing.T) {
	store, _ := seedStore(t)
	svc := NewSessionService(store, testLogger(), events.NewMockPublisher())

	session, err := svc.GetOrCreate(context.Background(), "student-1", 1)
	require.NoError(t, err)
	assert.NotZero(t, session.ID)
	assert.Equal(t, 0, session.CurrentIndex)
	assert.False(t, session.Completed)
}

func TestSessionService_GetOrCreateResumesExisting(t *testing.T) {
	store, _ := seedStore(t)
	svc := NewSessionService(store, testLogger(), events.NewMockPublisher())
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "student-1", 1)
	require.NoError(t, err)

	require.NoError(t, store.Session().AdvanceIndex(ctx, first.ID, 2, time.Now()))

	second, err := svc.GetOrCreate(ctx, "student-1", 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.CurrentIndex, "resumption must surface the saved cursor, not a fresh one")
}

func TestSessionService_ConcurrentGetOrCreateSingleSession(t *testing.T) {
	store, _ := seedStore(t)
	svc := NewSessionService(store, testLogger(), events.NewMockPublisher())
	ctx := context.Background()

	const loaders = 8
	ids := make([]uint, loaders)
	var wg sync.WaitGroup
	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			session, err := svc.GetOrCreate(ctx, "student-1", 1)
			if assert.NoError(t, err) {
				ids[slot] = session.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "duplicate loads must converge on one session")
	}

	sessions, err := store.Session().ListByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionService_LookupFailureDoesNotShadowCreate(t *testing.T) {
	store, _ := seedStore(t)
	svc := NewSessionService(store, testLogger(), events.NewMockPublisher())
	ctx := context.Background()

	existing, err := svc.GetOrCreate(ctx, "student-1", 1)
	require.NoError(t, err)
	require.NoError(t, store.Session().AdvanceIndex(ctx, existing.ID, 3, time.Now()))

	// The lookup keeps failing past the retry bound. The service must give
	// up rather than create a fresh session over the existing one.
	store.FailNext("session.lookup", 3)

	_, err = svc.GetOrCreate(ctx, "student-1", 1)
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	sessions, err := store.Session().ListByStudent(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 3, sessions[0].CurrentIndex, "the existing session must be untouched")
}

func TestSessionService_GetOrCreateRetriesTransientLookup(t *testing.T) {
	store, _ := seedStore(t)
	svc := NewSessionService(store, testLogger(), events.NewMockPublisher())
	ctx := context.Background()

	existing, err := svc.GetOrCreate(ctx, "student-1", 1)
	require.NoError(t, err)

	// Two failures fit inside the bound, so resumption still succeeds.
	store.FailNext("session.lookup", 2)

	session, err := svc.GetOrCreate(ctx, "student-1", 1)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, session.ID)
}

func TestSessionService_GetRejectsUnknownID(t *testing.T) {
	store, _ := seedStore(t)
	svc := NewSessionService(store, testLogger(), events.NewMockPublisher())

	_, err := svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}
