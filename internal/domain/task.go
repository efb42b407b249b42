package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task validation errors
var (
	ErrTaskIDEmpty      = errors.New("task ID cannot be empty")
	ErrTaskOwnerEmpty   = errors.New("task owner ID cannot be empty")
	ErrTaskTitleEmpty   = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 255 characters")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrInvalidPriority  = errors.New("invalid task priority")
)

// Status represents the lifecycle state of a task.
type Status string

// Valid task statuses.
const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority represents the importance of a task.
type Priority string

// Valid task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a unit of work owned by exactly one user.
// Ownership is immutable after creation.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	OwnerID     uuid.UUID  `json:"owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a new Task owned by ownerID.
// Empty status and priority default to "new" and "medium".
// Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, title, description string, status Status, priority Priority, deadline *time.Time) (*Task, error) {
	if status == "" {
		status = StatusNew
	}
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		Deadline:    deadline,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.OwnerID == uuid.Nil {
		return ErrTaskOwnerEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if len(t.Title) > 255 {
		return ErrTaskTitleTooLong
	}

	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}

	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}

	return nil
}

// IsOverdue reports whether the task's deadline has passed while the task
// is still unfinished, relative to now. Tasks without a deadline and done
// tasks are never overdue. The value is derived on read and never stored.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil || t.Status == StatusDone {
		return false
	}
	return now.After(*t.Deadline)
}
