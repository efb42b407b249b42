package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/platform/logger"
	"github.com/taskshare/task-api/internal/store"
)

// Profile is a user's own account view with task counts.
type Profile struct {
	User             *domain.User
	TasksCount       int
	SharedTasksCount int
}

// ProfilePatch describes a profile mutation. Only name fields are
// mutable through the profile surface; nil fields are left unchanged.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
}

// UserList is one page of user search results with the total match count.
type UserList struct {
	Items []*domain.User
	Total int
}

// UserService provides the user directory and self-profile operations.
type UserService interface {
	// Profile returns the user's own profile with owned and shared task
	// counts.
	Profile(ctx context.Context, userID uuid.UUID) (*Profile, error)

	// UpdateProfile applies name changes and returns the refreshed
	// profile. Email and active flag are not mutable here.
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*Profile, error)

	// Search returns the page of active users other than callerID
	// matching the query, substring-matched over email and name fields.
	Search(ctx context.Context, callerID uuid.UUID, query string, sortField store.UserSortField, descending bool, pageNumber int) (*UserList, error)
}

type userService struct {
	userStore  store.UserStore
	taskStore  store.TaskStore
	shareStore store.TaskShareStore
	logger     *slog.Logger
}

// NewUserService creates a UserService over the given stores.
func NewUserService(
	userStore store.UserStore,
	taskStore store.TaskStore,
	shareStore store.TaskShareStore,
	logger *slog.Logger,
) UserService {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if shareStore == nil {
		panic("shareStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		userStore:  userStore,
		taskStore:  taskStore,
		shareStore: shareStore,
		logger:     logger.With(slog.String("component", "user_service")),
	}
}

var _ UserService = (*userService)(nil)

// Profile implements UserService.Profile.
func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.taskStore.CountByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count owned tasks: %w", err)
	}

	shared, err := s.shareStore.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count shared tasks: %w", err)
	}

	return &Profile{User: user, TasksCount: owned, SharedTasksCount: shared}, nil
}

// UpdateProfile implements UserService.UpdateProfile.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*Profile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	log.Info("profile updated", slog.String("user_id", userID.String()))
	return s.Profile(ctx, userID)
}

// Search implements UserService.Search.
func (s *userService) Search(
	ctx context.Context,
	callerID uuid.UUID,
	query string,
	sortField store.UserSortField,
	descending bool,
	pageNumber int,
) (*UserList, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}

	users, total, err := s.userStore.Search(ctx, store.UserSearch{
		ExcludeID:  callerID,
		Query:      query,
		SortField:  sortField,
		Descending: descending,
		Offset:     (pageNumber - 1) * PageSize,
		Limit:      PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return &UserList{Items: users, Total: total}, nil
}
