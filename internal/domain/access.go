package domain

import "github.com/google/uuid"

// Access policy for tasks. These are pure predicates over a task and its
// shares, independent of any request or storage context, so authorization
// decisions are unit-testable in isolation.
//
// Callers are expected to map a false result to a not-found response on
// read/write/delete paths: the existence of a task the caller cannot see
// is never revealed.

// CanRead reports whether userID may view the task.
// The owner and any sharee (view or edit) may read.
func CanRead(task *Task, shares []*TaskShare, userID uuid.UUID) bool {
	if task.OwnerID == userID {
		return true
	}
	for _, share := range shares {
		if share.TaskID == task.ID && share.UserID == userID {
			return true
		}
	}
	return false
}

// CanWrite reports whether userID may mutate the task's fields.
// The owner and sharees holding an edit permission may write.
func CanWrite(task *Task, shares []*TaskShare, userID uuid.UUID) bool {
	if task.OwnerID == userID {
		return true
	}
	for _, share := range shares {
		if share.TaskID == task.ID && share.UserID == userID && share.Permission == PermissionEdit {
			return true
		}
	}
	return false
}

// CanDelete reports whether userID may delete the task.
// Only the owner may delete; shares never grant delete.
func CanDelete(task *Task, userID uuid.UUID) bool {
	return task.OwnerID == userID
}
