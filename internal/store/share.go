package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
)

// TaskShareStore defines the interface for task share persistence.
type TaskShareStore interface {
	// Upsert creates the share, or updates the permission of the existing
	// share for the same (task, user) pair. Reports whether a new row was
	// created. The (task_id, user_id) uniqueness is enforced at the
	// storage layer, so concurrent grants collapse onto one row.
	Upsert(ctx context.Context, share *domain.TaskShare) (created bool, err error)

	// GetByID retrieves a share by its unique ID.
	// Returns ErrShareNotFound if the share does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskShare, error)

	// ListByTask returns all shares of the given task.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskShare, error)

	// Delete removes a share by its ID.
	// Returns ErrShareNotFound if the share does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByUser returns the number of tasks shared with userID.
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// WithTx returns a TaskShareStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskShareStore
}
