package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskshare/task-api/internal/domain"
)

func TestNewTaskShare(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()

	share, err := domain.NewTaskShare(taskID, userID, domain.PermissionView)
	require.NoError(t, err)
	assert.Equal(t, taskID, share.TaskID)
	assert.Equal(t, userID, share.UserID)
	assert.NotEqual(t, uuid.Nil, share.ID)
}

func TestNewTaskShareValidation(t *testing.T) {
	_, err := domain.NewTaskShare(uuid.Nil, uuid.New(), domain.PermissionView)
	assert.ErrorIs(t, err, domain.ErrShareTaskEmpty)

	_, err = domain.NewTaskShare(uuid.New(), uuid.Nil, domain.PermissionEdit)
	assert.ErrorIs(t, err, domain.ErrShareUserEmpty)

	_, err = domain.NewTaskShare(uuid.New(), uuid.New(), "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidPermission)
}

func TestPermissionIsValid(t *testing.T) {
	assert.True(t, domain.PermissionView.IsValid())
	assert.True(t, domain.PermissionEdit.IsValid())
	assert.False(t, domain.Permission("").IsValid())
	assert.False(t, domain.Permission("owner").IsValid())
}
