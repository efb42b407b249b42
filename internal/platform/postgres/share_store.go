package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/platform/logger"
	"github.com/taskshare/task-api/internal/store"
)

// TaskShareStore implements the store.TaskShareStore interface using a
// PostgreSQL database as the storage backend.
type TaskShareStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskShareStore creates a new PostgreSQL implementation of the
// TaskShareStore interface. The database handle is initialized and managed
// by the caller.
func NewTaskShareStore(db store.DBTX, logger *slog.Logger) *TaskShareStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskShareStore{
		db:     db,
		logger: logger.With(slog.String("component", "share_store")),
	}
}

// Ensure TaskShareStore implements store.TaskShareStore interface
var _ store.TaskShareStore = (*TaskShareStore)(nil)

// WithTx implements store.TaskShareStore.WithTx
func (s *TaskShareStore) WithTx(tx *sql.Tx) store.TaskShareStore {
	return &TaskShareStore{db: tx, logger: s.logger}
}

// Upsert implements store.TaskShareStore.Upsert
// The (task_id, user_id) unique constraint resolves concurrent grants onto
// a single row; a conflicting insert updates the permission in place. The
// returned flag distinguishes a fresh grant from a permission change.
func (s *TaskShareStore) Upsert(ctx context.Context, share *domain.TaskShare) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := share.Validate(); err != nil {
		log.Warn("share validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("share_id", share.ID.String()))
		return false, err
	}

	// xmax = 0 only holds for freshly inserted rows, which is how we tell
	// insert from conflict-update without a second round trip.
	query := `
		INSERT INTO task_shares (id, task_id, user_id, permission, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (task_id, user_id)
		DO UPDATE SET permission = EXCLUDED.permission
		RETURNING id, created_at, (xmax = 0)
	`
	var created bool
	err := s.db.QueryRowContext(
		ctx,
		query,
		share.ID,
		share.TaskID,
		share.UserID,
		share.Permission,
		share.CreatedAt,
	).Scan(&share.ID, &share.CreatedAt, &created)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during share upsert",
				slog.String("task_id", share.TaskID.String()),
				slog.String("user_id", share.UserID.String()))
			return false, fmt.Errorf("%w: task or user does not exist", store.ErrInvalidEntity)
		}
		log.Error("failed to upsert share",
			slog.String("error", err.Error()),
			slog.String("task_id", share.TaskID.String()),
			slog.String("user_id", share.UserID.String()))
		return false, MapError(err)
	}

	log.Info("share upserted",
		slog.String("share_id", share.ID.String()),
		slog.String("task_id", share.TaskID.String()),
		slog.String("user_id", share.UserID.String()),
		slog.String("permission", string(share.Permission)),
		slog.Bool("created", created))
	return created, nil
}

const shareColumns = "id, task_id, user_id, permission, created_at"

func scanShare(row interface{ Scan(dest ...any) error }) (*domain.TaskShare, error) {
	var share domain.TaskShare
	var permission string
	err := row.Scan(
		&share.ID,
		&share.TaskID,
		&share.UserID,
		&permission,
		&share.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	share.Permission = domain.Permission(permission)
	return &share, nil
}

// GetByID implements store.TaskShareStore.GetByID
func (s *TaskShareStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskShare, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE id = $1`
	share, err := scanShare(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrShareNotFound
		}
		log.Error("failed to get share by ID",
			slog.String("error", err.Error()),
			slog.String("share_id", id.String()))
		return nil, err
	}
	return share, nil
}

// ListByTask implements store.TaskShareStore.ListByTask
func (s *TaskShareStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskShare, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE task_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to list shares by task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, err
	}
	defer closeRows(rows, log)

	var shares []*domain.TaskShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			log.Error("failed to scan share row", slog.String("error", err.Error()))
			return nil, err
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if shares == nil {
		shares = []*domain.TaskShare{}
	}
	return shares, nil
}

// Delete implements store.TaskShareStore.Delete
func (s *TaskShareStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM task_shares WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete share",
			slog.String("error", err.Error()),
			slog.String("share_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrShareNotFound)
}

// CountByUser implements store.TaskShareStore.CountByUser
func (s *TaskShareStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM task_shares WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
