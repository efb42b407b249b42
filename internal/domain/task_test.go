package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskshare/task-api/internal/domain"
)

func TestNewTaskDefaults(t *testing.T) {
	task, err := domain.NewTask(uuid.New(), "Write report", "quarterly numbers", "", "", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNew, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Nil(t, task.Deadline)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestNewTaskValidation(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name     string
		ownerID  uuid.UUID
		title    string
		status   domain.Status
		priority domain.Priority
		wantErr  error
	}{
		{"empty title", ownerID, "", "", "", domain.ErrTaskTitleEmpty},
		{"title too long", ownerID, strings.Repeat("a", 256), "", "", domain.ErrTaskTitleTooLong},
		{"missing owner", uuid.Nil, "ok", "", "", domain.ErrTaskOwnerEmpty},
		{"bad status", ownerID, "ok", "archived", "", domain.ErrInvalidStatus},
		{"bad priority", ownerID, "ok", "", "urgent", domain.ErrInvalidPriority},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewTask(tc.ownerID, tc.title, "", tc.status, tc.priority, nil)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("255 char title is accepted", func(t *testing.T) {
		_, err := domain.NewTask(ownerID, strings.Repeat("a", 255), "", "", "", nil)
		assert.NoError(t, err)
	})
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		deadline *time.Time
		status   domain.Status
		want     bool
	}{
		{"no deadline", nil, domain.StatusNew, false},
		{"future deadline", &future, domain.StatusNew, false},
		{"past deadline unfinished", &past, domain.StatusNew, true},
		{"past deadline in progress", &past, domain.StatusInProgress, true},
		{"past deadline done", &past, domain.StatusDone, false},
		{"deadline exactly now", &now, domain.StatusNew, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task, err := domain.NewTask(uuid.New(), "t", "", tc.status, "", tc.deadline)
			require.NoError(t, err)
			assert.Equal(t, tc.want, task.IsOverdue(now))
		})
	}
}
