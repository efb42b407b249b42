package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskShare validation errors
var (
	ErrShareIDEmpty      = errors.New("share ID cannot be empty")
	ErrShareTaskEmpty    = errors.New("share task ID cannot be empty")
	ErrShareUserEmpty    = errors.New("share user ID cannot be empty")
	ErrInvalidPermission = errors.New("invalid share permission")
	ErrSelfShare         = errors.New("cannot share a task with its owner")
)

// Permission is the access level a share grants to a non-owner user.
type Permission string

// Valid share permissions.
const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// IsValid reports whether p is a known permission.
func (p Permission) IsValid() bool {
	return p == PermissionView || p == PermissionEdit
}

// TaskShare grants a user view or edit access to another user's task.
// At most one share exists per (task, user) pair; re-sharing updates the
// permission in place. The share's user is never the task's owner.
type TaskShare struct {
	ID         uuid.UUID  `json:"id"`
	TaskID     uuid.UUID  `json:"task"`
	UserID     uuid.UUID  `json:"user"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewTaskShare creates a share of taskID with userID at the given permission.
// Returns an error if validation fails.
func NewTaskShare(taskID, userID uuid.UUID, permission Permission) (*TaskShare, error) {
	share := &TaskShare{
		ID:         uuid.New(),
		TaskID:     taskID,
		UserID:     userID,
		Permission: permission,
		CreatedAt:  time.Now().UTC(),
	}

	if err := share.Validate(); err != nil {
		return nil, err
	}

	return share, nil
}

// Validate checks if the TaskShare has valid data.
// Returns an error if any field fails validation.
func (s *TaskShare) Validate() error {
	if s.ID == uuid.Nil {
		return ErrShareIDEmpty
	}

	if s.TaskID == uuid.Nil {
		return ErrShareTaskEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrShareUserEmpty
	}

	if !s.Permission.IsValid() {
		return ErrInvalidPermission
	}

	return nil
}
