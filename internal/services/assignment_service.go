package services

import (
	"context"
	"strconv"

	"github.com/SAP-F-2025/homework-service/internal/cache"
	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"github.com/SAP-F-2025/homework-service/internal/store"
	"github.com/SAP-F-2025/homework-service/internal/utils"
)

// AssignmentService loads assignment content. Read-only: assignments are
// immutable for the duration of a session.
type AssignmentService interface {
	// Load fetches an assignment with its ordered question list.
	Load(ctx context.Context, id uint) (*models.Assignment, error)

	// LoadRaw parses and validates a raw identifier before any network
	// call, then loads.
	LoadRaw(ctx context.Context, rawID string) (*models.Assignment, error)
}

type assignmentService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger utils.Logger
	retry  store.RetryPolicy
}

func NewAssignmentService(repo repositories.Repository, cacheService cache.CacheService, logger utils.Logger) AssignmentService {
	return &assignmentService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
		retry:  store.DefaultRetryPolicy(),
	}
}

func (s *assignmentService) LoadRaw(ctx context.Context, rawID string) (*models.Assignment, error) {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id == 0 {
		// Fail fast, no wasted round trip on a malformed identifier.
		return nil, ErrInvalidID
	}
	return s.Load(ctx, uint(id))
}

func (s *assignmentService) Load(ctx context.Context, id uint) (*models.Assignment, error) {
	if id == 0 {
		return nil, ErrInvalidID
	}

	if s.cache != nil {
		var cached models.Assignment
		if err := s.cache.Get(ctx, cache.AssignmentKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	// One logical fetch: assignment and questions come back together, never
	// as chained sequential reads.
	var assignment *models.Assignment
	err := s.retry.Do(ctx, "assignment.get", func(ctx context.Context) error {
		var err error
		assignment, err = s.repo.Assignment().GetByIDWithQuestions(ctx, id)
		return err
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.AssignmentKey(id), assignment, cache.AssignmentTTL); err != nil {
			s.logger.Debug("assignment cache write skipped", "assignment_id", id, "error", err)
		}
	}

	return assignment, nil
}
