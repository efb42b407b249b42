package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/store"
)

// Task list query construction. The visibility predicate and every filter
// kind map to one explicit SQL condition; conditions combine with AND,
// values within a multi-valued filter with OR (IN lists). Kept separate
// from the store methods so the generated SQL is unit-testable without a
// database.

// buildTaskListConditions returns the WHERE clause body and its arguments
// for a task list scoped to userID and narrowed by the filter. now anchors
// the overdue predicates. Placeholders are numbered from $1.
func buildTaskListConditions(
	userID uuid.UUID,
	filter store.TaskFilter,
	now time.Time,
) (string, []any) {
	var conds []string
	var args []any

	// Visibility: owned or shared. The EXISTS form cannot duplicate rows,
	// so no DISTINCT is needed even for multi-share pathologies.
	args = append(args, userID)
	conds = append(conds, fmt.Sprintf(
		"(t.owner_id = $%d OR EXISTS (SELECT 1 FROM task_shares s WHERE s.task_id = t.id AND s.user_id = $%d))",
		len(args), len(args),
	))

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		conds = append(conds, "t.status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.Priorities) > 0 {
		placeholders := make([]string, 0, len(filter.Priorities))
		for _, priority := range filter.Priorities {
			args = append(args, string(priority))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		conds = append(conds, "t.priority IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.DeadlineAfter != nil {
		args = append(args, *filter.DeadlineAfter)
		conds = append(conds, fmt.Sprintf("t.deadline >= $%d", len(args)))
	}

	if filter.DeadlineBefore != nil {
		args = append(args, *filter.DeadlineBefore)
		conds = append(conds, fmt.Sprintf("t.deadline <= $%d", len(args)))
	}

	if filter.IsOverdue != nil {
		args = append(args, now)
		n := len(args)
		if *filter.IsOverdue {
			conds = append(conds, fmt.Sprintf(
				"(t.deadline < $%d AND t.status <> '%s')", n, domain.StatusDone,
			))
		} else {
			// Intentionally not the negation of the true branch: tasks with
			// no deadline, a future deadline, or status done all count as
			// "not overdue".
			conds = append(conds, fmt.Sprintf(
				"(t.deadline IS NULL OR t.deadline >= $%d OR t.status = '%s')",
				n, domain.StatusDone,
			))
		}
	}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(t.title ILIKE $%d OR t.description ILIKE $%d)", n, n,
		))
	}

	return strings.Join(conds, " AND "), args
}

// taskOrderClause maps a TaskSort to an ORDER BY body. Ties always break on
// id so pagination stays deterministic across requests.
func taskOrderClause(sort store.TaskSort) string {
	field := sort.Field
	if !field.IsValid() {
		field = store.TaskSortCreatedAt
	}
	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}
	return fmt.Sprintf("t.%s %s, t.id ASC", field, direction)
}
