package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/edubrovskiy/task-tracker-api/internal/model"
	"github.com/edubrovskiy/task-tracker-api/internal/query"
)

// TaskRepository is the storage boundary for tasks. List and the analytics
// queries are pre-scoped to an owner; Get/Update/Delete operate by id and
// rely on the caller running the ownership guard first.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (model.Task, error)
	List(ctx context.Context, spec query.Spec) ([]model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error

	PriorityDistribution(ctx context.Context, owner uuid.UUID) ([]model.DistributionBucket, error)
	StatusDistribution(ctx context.Context, owner uuid.UUID) ([]model.DistributionBucket, error)
	UpcomingDeadlines(ctx context.Context, owner uuid.UUID, days, limit int) ([]model.Task, error)
	CountTasks(ctx context.Context, owner uuid.UUID, status model.Status) (int, error)

	SaveIdempotencyKey(ctx context.Context, owner uuid.UUID, key string, resourceID uuid.UUID) error
	GetIdempotencyKey(ctx context.Context, owner uuid.UUID, key string) (uuid.UUID, error)
}
