package service

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/edubrovskiy/task-tracker-api/internal/cache"
	"github.com/edubrovskiy/task-tracker-api/internal/model"
	"github.com/edubrovskiy/task-tracker-api/internal/repo"
)

const (
	// deadlineWindowDays is the inclusive look-ahead for upcoming deadlines.
	deadlineWindowDays = 7
	// deadlineLimit caps how many upcoming tasks the snapshot carries.
	deadlineLimit = 5
)

// AnalyticsService computes the productivity snapshot for one owner. The
// snapshot is assembled from independent queries with no transaction around
// them: concurrent writes between sub-queries may skew the combined view by a
// record. That weak consistency is the contract, not a bug to paper over.
type AnalyticsService struct {
	repo  repo.TaskRepository
	cache *cache.AnalyticsCache
}

func NewAnalyticsService(r repo.TaskRepository, c *cache.AnalyticsCache) *AnalyticsService {
	return &AnalyticsService{repo: r, cache: c}
}

func (s *AnalyticsService) Snapshot(ctx context.Context, owner uuid.UUID) (model.AnalyticsSnapshot, error) {
	if snap, ok := s.cache.Get(ctx, owner); ok {
		return snap, nil
	}

	total, err := s.repo.CountTasks(ctx, owner, "")
	if err != nil {
		return model.AnalyticsSnapshot{}, err
	}
	completed, err := s.repo.CountTasks(ctx, owner, model.StatusCompleted)
	if err != nil {
		return model.AnalyticsSnapshot{}, err
	}
	pending, err := s.repo.CountTasks(ctx, owner, model.StatusPending)
	if err != nil {
		return model.AnalyticsSnapshot{}, err
	}

	priorityDist, err := s.repo.PriorityDistribution(ctx, owner)
	if err != nil {
		return model.AnalyticsSnapshot{}, err
	}
	statusDist, err := s.repo.StatusDistribution(ctx, owner)
	if err != nil {
		return model.AnalyticsSnapshot{}, err
	}
	upcoming, err := s.repo.UpcomingDeadlines(ctx, owner, deadlineWindowDays, deadlineLimit)
	if err != nil {
		return model.AnalyticsSnapshot{}, err
	}

	snap := model.AnalyticsSnapshot{
		TotalTasks:           total,
		CompletedTasks:       completed,
		PendingTasks:         pending,
		CompletionRate:       completionRate(completed, total),
		PriorityDistribution: priorityDist,
		StatusDistribution:   statusDist,
		UpcomingDeadlines:    upcoming,
	}

	s.cache.Set(ctx, owner, snap)
	return snap, nil
}

// completionRate is completed/total as a percentage rounded to two decimals.
// An empty task set yields 0 rather than dividing by zero.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*100) / 100
}
