package service

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

// ShareInfo is a share with the read-side metadata the share surfaces serve.
type ShareInfo struct {
	Share     *domain.TaskShare
	UserEmail string
	TaskTitle string
}

// SharingService manages grants of task access to non-owner users.
// All sharing administration is owner-only.
type SharingService interface {
	// Grant upserts a share of taskID with the user identified by
	// targetEmail at the given permission. Fails with ErrNotOwner if
	// granter does not own the task, store.ErrUserNotFound if no active
	// user matches the email, and domain.ErrSelfShare if the target is the
	// owner. Reports whether a new share was created (as opposed to an
	// existing share's permission being updated).
	Grant(ctx context.Context, granterID, taskID uuid.UUID, targetEmail string, permission domain.Permission) (*ShareInfo, bool, error)

	// ListShares returns all shares of the task. Fails with ErrNotOwner
	// if requester does not own the task.
	ListShares(ctx context.Context, requesterID, taskID uuid.UUID) ([]*ShareInfo, error)

	// Revoke removes a share. Only the owner of the share's task may
	// revoke; any other authenticated caller gets an explicit ErrNotOwner
	// rather than a silent not-found.
	Revoke(ctx context.Context, requesterID, shareID uuid.UUID) error
}

type sharingService struct {
	db         *sql.DB
	taskStore  store.TaskStore
	shareStore store.TaskShareStore
	userStore  store.UserStore
	logger     *slog.Logger
}

// NewSharingService creates a SharingService over the given stores. The
// database handle is used to run the grant's check-then-upsert inside one
// transaction.
func NewSharingService(
	db *sql.DB,
	taskStore store.TaskStore,
	shareStore store.TaskShareStore,
	userStore store.UserStore,
	logger *slog.Logger,
) SharingService {
	if db == nil {
		panic("db cannot be nil")
	}
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
	return &sharingService{
		db:         db,
		taskStore:  taskStore,
		shareStore: shareStore,
		userStore:  userStore,
		logger:     logger.With(slog.String("component", "sharing_service")),
	}
}

var _ SharingService = (*sharingService)(nil)

// Grant implements SharingService.Grant.
// The ownership check, target lookup, and upsert run in a single
// transaction so concurrent grants for the same (task, user) pair collapse
// onto one row.
func (s *sharingService) Grant(
	ctx context.Context,
	granterID, taskID uuid.UUID,
	targetEmail string,
	permission domain.Permission,
) (*ShareInfo, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !permission.IsValid() {
		return nil, false, domain.ErrInvalidPermission
	}

	var info *ShareInfo
	var created bool

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		taskStore := s.taskStore.WithTx(tx)
		userStore := s.userStore.WithTx(tx)
		shareStore := s.shareStore.WithTx(tx)

		task, err := taskStore.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != granterID {
			return ErrNotOwner
		}

		target, err := userStore.GetByEmail(ctx, targetEmail)
		if err != nil {
			return err
		}
		if target.ID == task.OwnerID {
			return domain.ErrSelfShare
		}

		share, err := domain.NewTaskShare(taskID, target.ID, permission)
		if err != nil {
			return err
		}

		created, err = shareStore.Upsert(ctx, share)
		if err != nil {
			return err
		}

		info = &ShareInfo{Share: share, UserEmail: target.Email, TaskTitle: task.Title}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	log.Info("share granted",
		slog.String("task_id", taskID.String()),
		slog.String("granter_id", granterID.String()),
		slog.String("permission", string(permission)),
		slog.Bool("created", created))
	return info, created, nil
}

// ListShares implements SharingService.ListShares.
func (s *sharingService) ListShares(ctx context.Context, requesterID, taskID uuid.UUID) ([]*ShareInfo, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != requesterID {
		return nil, ErrNotOwner
	}

	shares, err := s.shareStore.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	infos := make([]*ShareInfo, 0, len(shares))
	for _, share := range shares {
		user, err := s.userStore.GetByID(ctx, share.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load sharee: %w", err)
		}
		infos = append(infos, &ShareInfo{
			Share:     share,
			UserEmail: user.Email,
			TaskTitle: task.Title,
		})
	}
	return infos, nil
}

// Revoke implements SharingService.Revoke.
// Owner-only with an explicit rejection: a non-owner revoking a real share
// gets ErrNotOwner, not a masked not-found.
func (s *sharingService) Revoke(ctx context.Context, requesterID, shareID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	share, err := s.shareStore.GetByID(ctx, shareID)
	if err != nil {
		return err
	}

	task, err := s.taskStore.GetByID(ctx, share.TaskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			// Share row outliving its task means the cascade misfired;
			// treat the share as gone.
			return store.ErrShareNotFound
		}
		return err
	}

	if task.OwnerID != requesterID {
		return ErrNotOwner
	}

	if err := s.shareStore.Delete(ctx, shareID); err != nil {
		return err
	}

	log.Info("share revoked",
		slog.String("share_id", shareID.String()),
		slog.String("task_id", share.TaskID.String()),
		slog.String("requester_id", requesterID.String()))
	return nil
}
