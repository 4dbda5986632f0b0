package services

import (
	"context"
	"sync"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/store"
	"github.com/SAP-F-2025/homework-service/internal/utils"
)

// ProgressTracker propagates the current question index to the durable
// session record without ever blocking navigation. Writes are coalesced:
// within a throttle window only the most recent index per session is
// persisted, and a stale write can never regress the durable cursor (the
// repository guards monotonicity).
type ProgressTracker interface {
	// Advance records the new index and returns immediately.
	Advance(sessionID uint, studentID string, assignmentID uint, index int)

	// Flush synchronously persists everything still pending. Used on
	// submission and shutdown.
	Flush(ctx context.Context) error

	// Close stops the background flusher after a final flush.
	Close()
}

type pendingProgress struct {
	StudentID    string
	AssignmentID uint
	Index        int
}

type progressTracker struct {
	repo      repositories.Repository
	logger    utils.Logger
	retry     store.RetryPolicy
	analytics analyticsEmitter
	interval  time.Duration

	mu      sync.Mutex
	pending map[uint]pendingProgress

	notify    chan struct{}
	stop      chan struct{}
	stopped   sync.WaitGroup
	closeOnce sync.Once
}

// DefaultProgressInterval is the coalescing window for progress writes.
const DefaultProgressInterval = 500 * time.Millisecond

func NewProgressTracker(repo repositories.Repository, logger utils.Logger, publisher events.Publisher, interval time.Duration) ProgressTracker {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	t := &progressTracker{
		repo:      repo,
		logger:    logger,
		retry:     store.DefaultRetryPolicy(),
		analytics: analyticsEmitter{publisher: publisher, logger: logger},
		interval:  interval,
		pending:   make(map[uint]pendingProgress),
		notify:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	t.stopped.Add(1)
	go t.run()
	return t
}

func (t *progressTracker) Advance(sessionID uint, studentID string, assignmentID uint, index int) {
	if sessionID == 0 || index < 0 {
		return
	}

	t.mu.Lock()
	current, ok := t.pending[sessionID]
	if !ok || index > current.Index {
		t.pending[sessionID] = pendingProgress{
			StudentID:    studentID,
			AssignmentID: assignmentID,
			Index:        index,
		}
	}
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
}

func (t *progressTracker) Flush(ctx context.Context) error {
	return t.flush(ctx)
}

func (t *progressTracker) Close() {
	t.closeOnce.Do(func() {
		close(t.stop)
	})
	t.stopped.Wait()
}

func (t *progressTracker) run() {
	defer t.stopped.Done()
	for {
		select {
		case <-t.stop:
			// Final drain so navigation recorded just before shutdown is
			// not lost.
			ctx, cancel := context.WithTimeout(context.Background(), t.retry.CallTimeout)
			if err := t.flush(ctx); err != nil {
				t.logger.Warn("progress flush on shutdown failed", "error", err)
			}
			cancel()
			return
		case <-t.notify:
			// Let a burst of navigation events settle; only the last index
			// within the window reaches the store.
			timer := time.NewTimer(t.interval)
			select {
			case <-t.stop:
				timer.Stop()
				continue
			case <-timer.C:
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(t.retry.MaxAttempts)*t.retry.CallTimeout)
			if err := t.flush(ctx); err != nil {
				// Silent beyond the bound: the durable index may lag and is
				// reconciled at the next resumption.
				t.logger.Warn("progress write exhausted retries", "error", err)
			}
			cancel()
		}
	}
}

func (t *progressTracker) flush(ctx context.Context) error {
	t.mu.Lock()
	batch := t.pending
	t.pending = make(map[uint]pendingProgress)
	t.mu.Unlock()

	var lastErr error
	for sessionID, progress := range batch {
		err := t.retry.Do(ctx, "session.advance", func(ctx context.Context) error {
			return t.repo.Session().AdvanceIndex(ctx, sessionID, progress.Index, time.Now())
		})
		if err != nil {
			lastErr = err
			continue
		}
		t.analytics.emit(events.NewAnalyticsEvent(events.EventProgressAdvanced, progress.StudentID, progress.AssignmentID).
			WithData("session_id", sessionID).
			WithData("index", progress.Index))
	}
	return lastErr
}
