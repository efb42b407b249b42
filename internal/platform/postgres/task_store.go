package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/platform/logger"
	"github.com/taskshare/task-api/internal/store"
)

// TaskStore implements the store.TaskStore interface using a PostgreSQL
// database as the storage backend.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. The database handle is initialized and managed by the caller.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority, deadline, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Deadline,
		task.OwnerID,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("owner_id", task.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, task.OwnerID)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

const taskColumns = "t.id, t.title, t.description, t.status, t.priority, t.deadline, t.owner_id, t.created_at, t.updated_at"

func scanTask(row interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.Deadline,
		&task.OwnerID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	return &task, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}
	return task, nil
}

// Update implements store.TaskStore.Update
// owner_id is never written; ownership is immutable after creation.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, deadline = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Deadline,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
// Share rows referencing the task are removed by ON DELETE CASCADE.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// ListVisible implements store.TaskStore.ListVisible
// It returns one page of the caller's visible tasks (owned or shared)
// matching the filter, plus the total match count. Owner email and share
// count ride along for the read surface.
func (s *TaskStore) ListVisible(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	sort store.TaskSort,
	page store.Page,
	now time.Time,
) ([]*store.TaskWithMeta, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildTaskListConditions(userID, filter, now)

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks t WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count visible tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}

	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(`
		SELECT %s, u.email,
			(SELECT COUNT(*) FROM task_shares sc WHERE sc.task_id = t.id)
		FROM tasks t
		JOIN users u ON u.id = t.owner_id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, taskColumns, where, taskOrderClause(sort), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list visible tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}
	defer closeRows(rows, log)

	var results []*store.TaskWithMeta
	for rows.Next() {
		var item store.TaskWithMeta
		var status, priority string
		err := rows.Scan(
			&item.Task.ID,
			&item.Task.Title,
			&item.Task.Description,
			&status,
			&priority,
			&item.Task.Deadline,
			&item.Task.OwnerID,
			&item.Task.CreatedAt,
			&item.Task.UpdatedAt,
			&item.OwnerEmail,
			&item.ShareCount,
		)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, 0, err
		}
		item.Task.Status = domain.Status(status)
		item.Task.Priority = domain.Priority(priority)
		results = append(results, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if results == nil {
		results = []*store.TaskWithMeta{}
	}

	log.Debug("listed visible tasks",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(results)),
		slog.Int("total", total))
	return results, total, nil
}

// CountByOwner implements store.TaskStore.CountByOwner
func (s *TaskStore) CountByOwner(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindDueBetween implements store.TaskStore.FindDueBetween
// It returns unfinished tasks with a deadline in [from, to), oldest
// deadline first.
func (s *TaskStore) FindDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.deadline >= $1 AND t.deadline < $2 AND t.status IN ($3, $4)
		ORDER BY t.deadline ASC, t.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, from, to, domain.StatusNew, domain.StatusInProgress)
	if err != nil {
		log.Error("failed to query due tasks", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}
