package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/platform/logger"
	"github.com/taskshare/task-api/internal/store"
)

// PageSize is the fixed number of items per list page.
const PageSize = 20

// TaskPatch describes a task mutation. Nil fields are left unchanged, so
// the same shape serves both full and partial updates: full updates set
// every field, partial updates set only the submitted ones.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *domain.Status
	Priority    *domain.Priority
	Deadline    *time.Time
	// ClearDeadline removes the deadline; distinct from a nil Deadline,
	// which means "leave as is".
	ClearDeadline bool
}

// TaskList is one page of visible tasks with the total match count.
type TaskList struct {
	Items []*store.TaskWithMeta
	Total int
}

// TaskDetail is a task with the read-side metadata the detail surface serves.
type TaskDetail struct {
	Task       *domain.Task
	OwnerEmail string
	ShareCount int
}

// TaskService provides task CRUD gated by the access policy, plus the
// visible-task query surface.
type TaskService interface {
	// List returns the page of tasks visible to userID matching the filter.
	// Pages beyond the result range return an empty list, not an error.
	List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter, sort store.TaskSort, pageNumber int) (*TaskList, error)

	// Create creates a task owned by userID.
	Create(ctx context.Context, userID uuid.UUID, title, description string, status domain.Status, priority domain.Priority, deadline *time.Time) (*domain.Task, error)

	// Get returns the task if userID may read it; otherwise
	// store.ErrTaskNotFound, whether or not the task exists.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*TaskDetail, error)

	// Update applies the patch if userID may write the task. A task the
	// user cannot see yields store.ErrTaskNotFound; a visible task without
	// write permission yields ErrWriteForbidden.
	Update(ctx context.Context, userID, taskID uuid.UUID, patch TaskPatch) (*TaskDetail, error)

	// Delete removes the task. Only the owner may delete; a visible but
	// unowned task yields ErrWriteForbidden, an invisible one
	// store.ErrTaskNotFound.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

type taskService struct {
	taskStore  store.TaskStore
	shareStore store.TaskShareStore
	userStore  store.UserStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewTaskService creates a TaskService over the given stores.
func NewTaskService(
	taskStore store.TaskStore,
	shareStore store.TaskShareStore,
	userStore store.UserStore,
	logger *slog.Logger,
) TaskService {
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if shareStore == nil {
		panic("shareStore cannot be nil")
	}
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskService{
		taskStore:  taskStore,
		shareStore: shareStore,
		userStore:  userStore,
		logger:     logger.With(slog.String("component", "task_service")),
		now:        time.Now,
	}
}

var _ TaskService = (*taskService)(nil)

// List implements TaskService.List.
func (s *taskService) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	sort store.TaskSort,
	pageNumber int,
) (*TaskList, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	page := store.Page{Offset: (pageNumber - 1) * PageSize, Limit: PageSize}

	items, total, err := s.taskStore.ListVisible(ctx, userID, filter, sort, page, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &TaskList{Items: items, Total: total}, nil
}

// Create implements TaskService.Create.
func (s *taskService) Create(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	status domain.Status,
	priority domain.Priority,
	deadline *time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, title, description, status, priority, deadline)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", userID.String()))
	return task, nil
}

// load fetches a task and its shares, mapping nonexistence and
// invisibility both onto store.ErrTaskNotFound so callers cannot probe for
// tasks they are not allowed to see.
func (s *taskService) load(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, []*domain.TaskShare, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, nil, store.ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to load task: %w", err)
	}

	shares, err := s.shareStore.ListByTask(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load task shares: %w", err)
	}

	if !domain.CanRead(task, shares, userID) {
		return nil, nil, store.ErrTaskNotFound
	}

	return task, shares, nil
}

func (s *taskService) detail(ctx context.Context, task *domain.Task, shares []*domain.TaskShare) (*TaskDetail, error) {
	owner, err := s.userStore.GetByID(ctx, task.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task owner: %w", err)
	}
	return &TaskDetail{Task: task, OwnerEmail: owner.Email, ShareCount: len(shares)}, nil
}

// Get implements TaskService.Get.
func (s *taskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*TaskDetail, error) {
	task, shares, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, task, shares)
}

// Update implements TaskService.Update.
func (s *taskService) Update(ctx context.Context, userID, taskID uuid.UUID, patch TaskPatch) (*TaskDetail, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, shares, err := s.load(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if !domain.CanWrite(task, shares, userID) {
		log.Debug("write denied",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrWriteForbidden
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.ClearDeadline {
		task.Deadline = nil
	} else if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	log.Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return s.detail(ctx, task, shares)
}

// Delete implements TaskService.Delete.
func (s *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, _, err := s.load(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if !domain.CanDelete(task, userID) {
		log.Debug("delete denied",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return ErrWriteForbidden
	}

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return nil
}
