package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/service"
	"github.com/taskshare/task-api/internal/store"
)

func newTestUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "password123", "", "")
	require.NoError(t, err)
	user.HashedPassword = "hash"
	user.Password = ""
	return user
}

func newOwnedTask(t *testing.T, ownerID uuid.UUID, title string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(ownerID, title, "", "", "", nil)
	require.NoError(t, err)
	return task
}

func shareTask(t *testing.T, shareStore *fakeShareStore, taskID, userID uuid.UUID, p domain.Permission) *domain.TaskShare {
	t.Helper()
	share, err := domain.NewTaskShare(taskID, userID, p)
	require.NoError(t, err)
	_, err = shareStore.Upsert(context.Background(), share)
	require.NoError(t, err)
	return share
}

func TestTaskServiceGet(t *testing.T) {
	owner := newTestUser(t, "owner@example.com")
	viewer := newTestUser(t, "viewer@example.com")
	stranger := newTestUser(t, "stranger@example.com")

	task := newOwnedTask(t, owner.ID, "visible task")
	taskStore := newFakeTaskStore(task)
	shareStore := newFakeShareStore()
	userStore := newFakeUserStore(owner, viewer, stranger)
	shareTask(t, shareStore, task.ID, viewer.ID, domain.PermissionView)

	svc := service.NewTaskService(taskStore, shareStore, userStore, nil)
	ctx := context.Background()

	t.Run("owner sees the task with metadata", func(t *testing.T) {
		detail, err := svc.Get(ctx, owner.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, detail.Task.ID)
		assert.Equal(t, "owner@example.com", detail.OwnerEmail)
		assert.Equal(t, 1, detail.ShareCount)
	})

	t.Run("sharee sees the task", func(t *testing.T) {
		detail, err := svc.Get(ctx, viewer.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, detail.Task.ID)
	})

	t.Run("stranger gets not found, not forbidden", func(t *testing.T) {
		_, err := svc.Get(ctx, stranger.ID, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("nonexistent task gets the same not found", func(t *testing.T) {
		_, err := svc.Get(ctx, owner.ID, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestTaskServiceUpdate(t *testing.T) {
	owner := newTestUser(t, "owner@example.com")
	editor := newTestUser(t, "editor@example.com")
	viewer := newTestUser(t, "viewer@example.com")

	newTitle := "renamed"

	t.Run("owner can update", func(t *testing.T) {
		task := newOwnedTask(t, owner.ID, "original")
		taskStore := newFakeTaskStore(task)
		svc := service.NewTaskService(taskStore, newFakeShareStore(), newFakeUserStore(owner), nil)

		detail, err := svc.Update(context.Background(), owner.ID, task.ID, service.TaskPatch{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, "renamed", detail.Task.Title)
	})

	t.Run("edit sharee can update", func(t *testing.T) {
		task := newOwnedTask(t, owner.ID, "original")
		taskStore := newFakeTaskStore(task)
		shareStore := newFakeShareStore()
		shareTask(t, shareStore, task.ID, editor.ID, domain.PermissionEdit)
		svc := service.NewTaskService(taskStore, shareStore, newFakeUserStore(owner, editor), nil)

		_, err := svc.Update(context.Background(), editor.ID, task.ID, service.TaskPatch{Title: &newTitle})
		assert.NoError(t, err)
	})

	t.Run("view sharee is forbidden", func(t *testing.T) {
		task := newOwnedTask(t, owner.ID, "original")
		taskStore := newFakeTaskStore(task)
		shareStore := newFakeShareStore()
		shareTask(t, shareStore, task.ID, viewer.ID, domain.PermissionView)
		svc := service.NewTaskService(taskStore, shareStore, newFakeUserStore(owner, viewer), nil)

		_, err := svc.Update(context.Background(), viewer.ID, task.ID, service.TaskPatch{Title: &newTitle})
		assert.ErrorIs(t, err, service.ErrWriteForbidden)
	})

	t.Run("invisible task is not found", func(t *testing.T) {
		task := newOwnedTask(t, owner.ID, "original")
		taskStore := newFakeTaskStore(task)
		svc := service.NewTaskService(taskStore, newFakeShareStore(), newFakeUserStore(owner, viewer), nil)

		_, err := svc.Update(context.Background(), viewer.ID, task.ID, service.TaskPatch{Title: &newTitle})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("clear deadline", func(t *testing.T) {
		deadline := time.Now().Add(time.Hour)
		task, err := domain.NewTask(owner.ID, "with deadline", "", "", "", &deadline)
		require.NoError(t, err)
		taskStore := newFakeTaskStore(task)
		svc := service.NewTaskService(taskStore, newFakeShareStore(), newFakeUserStore(owner), nil)

		detail, err := svc.Update(context.Background(), owner.ID, task.ID, service.TaskPatch{ClearDeadline: true})
		require.NoError(t, err)
		assert.Nil(t, detail.Task.Deadline)
	})
}

func TestTaskServiceDelete(t *testing.T) {
	owner := newTestUser(t, "owner@example.com")
	editor := newTestUser(t, "editor@example.com")

	t.Run("owner can delete", func(t *testing.T) {
		task := newOwnedTask(t, owner.ID, "doomed")
		taskStore := newFakeTaskStore(task)
		svc := service.NewTaskService(taskStore, newFakeShareStore(), newFakeUserStore(owner), nil)

		require.NoError(t, svc.Delete(context.Background(), owner.ID, task.ID))
		_, err := taskStore.GetByID(context.Background(), task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("edit share does not grant delete", func(t *testing.T) {
		task := newOwnedTask(t, owner.ID, "protected")
		taskStore := newFakeTaskStore(task)
		shareStore := newFakeShareStore()
		shareTask(t, shareStore, task.ID, editor.ID, domain.PermissionEdit)
		svc := service.NewTaskService(taskStore, shareStore, newFakeUserStore(owner, editor), nil)

		err := svc.Delete(context.Background(), editor.ID, task.ID)
		assert.ErrorIs(t, err, service.ErrWriteForbidden)
	})
}

func TestTaskServiceList(t *testing.T) {
	owner := newTestUser(t, "owner@example.com")
	task := newOwnedTask(t, owner.ID, "one")

	taskStore := newFakeTaskStore()
	taskStore.listItems = []*store.TaskWithMeta{
		{Task: *task, OwnerEmail: owner.Email, ShareCount: 0},
	}
	taskStore.listTotal = 41

	svc := service.NewTaskService(taskStore, newFakeShareStore(), newFakeUserStore(owner), nil)

	list, err := svc.List(context.Background(), owner.ID, store.TaskFilter{}, store.TaskSort{}, 1)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 41, list.Total)

	t.Run("page beyond range is empty, not an error", func(t *testing.T) {
		list, err := svc.List(context.Background(), owner.ID, store.TaskFilter{}, store.TaskSort{}, 99)
		require.NoError(t, err)
		assert.Empty(t, list.Items)
		assert.Equal(t, 41, list.Total)
	})
}

func TestTaskServiceCreate(t *testing.T) {
	owner := newTestUser(t, "owner@example.com")
	taskStore := newFakeTaskStore()
	svc := service.NewTaskService(taskStore, newFakeShareStore(), newFakeUserStore(owner), nil)

	task, err := svc.Create(context.Background(), owner.ID, "new task", "desc", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, task.OwnerID)
	assert.Equal(t, domain.StatusNew, task.Status)

	_, err = svc.Create(context.Background(), owner.ID, "", "", "", "", nil)
	assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)
}
