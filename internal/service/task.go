package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edubrovskiy/task-tracker-api/internal/cache"
	"github.com/edubrovskiy/task-tracker-api/internal/guard"
	"github.com/edubrovskiy/task-tracker-api/internal/model"
	"github.com/edubrovskiy/task-tracker-api/internal/query"
	"github.com/edubrovskiy/task-tracker-api/internal/repo"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrForbidden = errors.New("not authorized for this task")
)

// TaskService orchestrates task commands and list queries. The caller's
// identity is an explicit parameter on every operation; there is no ambient
// request state.
type TaskService struct {
	repo   repo.TaskRepository
	cache  *cache.AnalyticsCache
	logger *zap.Logger
}

func NewTaskService(r repo.TaskRepository, c *cache.AnalyticsCache, logger *zap.Logger) *TaskService {
	return &TaskService{repo: r, cache: c, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, owner uuid.UUID, in model.CreateInput, idempKey string) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}

	// If this key already produced a task for this owner, return it instead
	// of creating a duplicate. A store failure here is surfaced, not treated
	// as an unknown key.
	if idempKey != "" {
		existingID, err := s.repo.GetIdempotencyKey(ctx, owner, idempKey)
		switch {
		case err == nil:
			return s.repo.Get(ctx, existingID)
		case !errors.Is(err, repo.ErrorNotFound):
			return model.Task{}, err
		}
	}

	created, err := s.repo.Create(ctx, in.Task(owner))
	if err != nil {
		return created, err
	}

	// The task exists at this point; a failed key save only weakens retry
	// deduplication, so it is logged rather than failing the create.
	if idempKey != "" {
		if err := s.repo.SaveIdempotencyKey(ctx, owner, idempKey, created.ID); err != nil {
			s.logger.Warn("failed to save idempotency key",
				zap.String("key", idempKey),
				zap.Error(err),
			)
		}
	}

	s.cache.Invalidate(ctx, owner)
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, owner, id uuid.UUID) (model.Task, error) {
	return s.authorized(ctx, owner, id)
}

func (s *TaskService) List(ctx context.Context, owner uuid.UUID, p query.Params) ([]model.Task, error) {
	return s.repo.List(ctx, query.Build(owner, p))
}

// Update merges the provided fields over the stored record, re-validates the
// result and persists it in one statement, so a failed update never leaves a
// partially applied record.
func (s *TaskService) Update(ctx context.Context, owner, id uuid.UUID, in model.UpdateInput) (model.Task, error) {
	current, err := s.authorized(ctx, owner, id)
	if err != nil {
		return model.Task{}, err
	}

	merged := in.Apply(current)
	if err := merged.Validate(); err != nil {
		return model.Task{}, err
	}

	updated, err := s.repo.Update(ctx, merged)
	if errors.Is(err, repo.ErrorNotFound) {
		return updated, ErrNotFound
	}
	if err != nil {
		return updated, err
	}

	s.cache.Invalidate(ctx, owner)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if _, err := s.authorized(ctx, owner, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.cache.Invalidate(ctx, owner)
	return nil
}

// authorized fetches a task by id and runs the ownership guard. Every
// read-by-id, update and delete goes through here.
func (s *TaskService) authorized(ctx context.Context, owner, id uuid.UUID) (model.Task, error) {
	t, err := s.repo.Get(ctx, id)

	var rec *model.Task
	switch {
	case err == nil:
		rec = &t
	case errors.Is(err, repo.ErrorNotFound):
		rec = nil
	default:
		return model.Task{}, err
	}

	switch guard.Check(owner, rec) {
	case guard.NotFound:
		return model.Task{}, ErrNotFound
	case guard.Forbidden:
		return model.Task{}, ErrForbidden
	}
	return t, nil
}
