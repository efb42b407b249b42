package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
)

// TaskSortField names a column task lists may be ordered by.
type TaskSortField string

// Sortable task list fields.
const (
	TaskSortCreatedAt TaskSortField = "created_at"
	TaskSortDeadline  TaskSortField = "deadline"
	TaskSortPriority  TaskSortField = "priority"
	TaskSortStatus    TaskSortField = "status"
)

// IsValid reports whether f is a known sort field.
func (f TaskSortField) IsValid() bool {
	switch f {
	case TaskSortCreatedAt, TaskSortDeadline, TaskSortPriority, TaskSortStatus:
		return true
	}
	return false
}

// TaskFilter is the explicit filter specification for task list queries.
// All fields are optional; filter kinds combine with AND, values within a
// multi-valued filter with OR. Each field maps to one store-level predicate
// in the query builder.
type TaskFilter struct {
	// Statuses narrows results to the given subset of statuses.
	Statuses []domain.Status

	// Priorities narrows results to the given subset of priorities.
	Priorities []domain.Priority

	// DeadlineAfter keeps tasks whose deadline is at or after the bound.
	DeadlineAfter *time.Time

	// DeadlineBefore keeps tasks whose deadline is at or before the bound.
	DeadlineBefore *time.Time

	// IsOverdue, when true, keeps tasks with a deadline strictly in the
	// past and status other than done. When false, it excludes exactly
	// (deadline < now AND status IN (new, in_progress)) — note this is not
	// the strict negation of the true branch: tasks with no deadline land
	// in the "not overdue" bucket.
	IsOverdue *bool

	// Search keeps tasks whose title or description contains the string,
	// case-insensitively. Empty means no filtering.
	Search string
}

// TaskSort describes the ordering of a task list. Ties are always broken by
// id so pagination stays deterministic.
type TaskSort struct {
	Field      TaskSortField
	Descending bool
}

// Page describes an offset/limit window over a result set.
type Page struct {
	Offset int
	Limit  int
}

// TaskWithMeta bundles a task with read-side metadata the list surface
// serves alongside it.
type TaskWithMeta struct {
	Task       domain.Task
	OwnerEmail string
	ShareCount int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID regardless of visibility.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update modifies an existing task's fields. Ownership is immutable;
	// implementations never write owner_id.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Shares referencing the task are removed by
	// the storage layer's cascade.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListVisible returns the page of tasks visible to userID — tasks they
	// own plus tasks shared with them — matching the filter, in the given
	// order, along with the total match count. now anchors the overdue
	// predicates.
	ListVisible(
		ctx context.Context,
		userID uuid.UUID,
		filter TaskFilter,
		sort TaskSort,
		page Page,
		now time.Time,
	) ([]*TaskWithMeta, int, error)

	// CountByOwner returns the number of tasks owned by userID.
	CountByOwner(ctx context.Context, userID uuid.UUID) (int, error)

	// FindDueBetween returns unfinished tasks (status new or in_progress)
	// whose deadline falls in [from, to). Used by the reminder job.
	FindDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error)

	// WithTx returns a TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
