package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edubrovskiy/task-tracker-api/internal/model"
	"github.com/edubrovskiy/task-tracker-api/internal/query"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = "id, owner_id, title, description, due_date, priority, status, created_at, updated_at"

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (owner_id, title, description, due_date, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+taskColumns+`
	`, t.OwnerID, t.Title, t.Description, t.DueDate, t.Priority, t.Status).Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context, spec query.Spec) ([]model.Task, error) {
	sql := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		  AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR status = $3)
		  AND ($4 = '' OR priority = $4)
		ORDER BY ` + orderClause(spec.Sort)

	rows, err := r.pool.Query(ctx, sql, spec.Owner, escapeLike(spec.Search), spec.Status, spec.Priority)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// orderClause maps the resolved sort to SQL. The priority ordinal must match
// model.Priority.Rank; ties fall back to newest-first so the order is stable.
func orderClause(s query.Sort) string {
	switch s {
	case query.SortDueDate:
		return "due_date ASC, id ASC"
	case query.SortPriority:
		return "CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// escapeLike neutralizes LIKE metacharacters so the search term always means
// a literal substring.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, due_date = $4, priority = $5, status = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, t.ID, t.Title, t.Description, t.DueDate, t.Priority, t.Status).Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) PriorityDistribution(ctx context.Context, owner uuid.UUID) ([]model.DistributionBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT priority, COUNT(*)
		FROM tasks
		WHERE owner_id = $1
		GROUP BY priority
		ORDER BY CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBuckets(rows)
}

func (r *TaskRepo) StatusDistribution(ctx context.Context, owner uuid.UUID) ([]model.DistributionBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE owner_id = $1
		GROUP BY status
		ORDER BY status
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBuckets(rows)
}

// UpcomingDeadlines selects pending tasks due between now and now + days,
// inclusive, soonest first. The window is evaluated on the database clock so
// it matches the rows it selects.
func (r *TaskRepo) UpcomingDeadlines(ctx context.Context, owner uuid.UUID, days, limit int) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner_id = $1
		  AND status = 'Pending'
		  AND due_date >= now()
		  AND due_date <= now() + make_interval(days => $2)
		ORDER BY due_date ASC, id ASC
		LIMIT $3
	`, owner, days, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *TaskRepo) CountTasks(ctx context.Context, owner uuid.UUID, status model.Status) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM tasks
		WHERE owner_id = $1
		  AND ($2 = '' OR status = $2)
	`, owner, string(status)).Scan(&count)
	return count, err
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, owner uuid.UUID, key string, resourceID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (owner_id, key, resource_id) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, key) DO NOTHING
	`, owner, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, owner uuid.UUID, key string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE owner_id = $1 AND key = $2
	`, owner, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrorNotFound
	}
	return id, err
}

func scanTasks(rows pgx.Rows) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanBuckets(rows pgx.Rows) ([]model.DistributionBucket, error) {
	buckets := make([]model.DistributionBucket, 0)
	for rows.Next() {
		var b model.DistributionBucket
		if err := rows.Scan(&b.Value, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
