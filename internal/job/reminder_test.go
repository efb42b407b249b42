package job

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/store"
)

type fakeTaskStore struct {
	store.TaskStore

	dueTasks []*domain.Task
	dueErr   error
	gotFrom  time.Time
	gotTo    time.Time
}

func (s *fakeTaskStore) FindDueBetween(_ context.Context, from, to time.Time) ([]*domain.Task, error) {
	s.gotFrom, s.gotTo = from, to
	return s.dueTasks, s.dueErr
}

type fakeUserStore struct {
	store.UserStore

	users map[uuid.UUID]*domain.User
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) WithTx(*sql.Tx) store.UserStore { return s }

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent    []sentMail
	failFor string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if to == m.failFor {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func dueTask(t *testing.T, ownerID uuid.UUID, title string, deadline time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(ownerID, title, "details", domain.StatusInProgress, domain.PriorityHigh, &deadline)
	require.NoError(t, err)
	return task
}

func testUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "password123", "Test", "User")
	require.NoError(t, err)
	return user
}

func TestReminderJobRun(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	tomorrow := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)

	alice := testUser(t, "alice@example.com")
	bob := testUser(t, "bob@example.com")

	newJob := func(tasks *fakeTaskStore, users *fakeUserStore, mailer *fakeMailer) *ReminderJob {
		j := NewReminderJob(tasks, users, mailer, slog.Default())
		j.now = func() time.Time { return now }
		return j
	}

	t.Run("mails each owner once per due task", func(t *testing.T) {
		tasks := &fakeTaskStore{dueTasks: []*domain.Task{
			dueTask(t, alice.ID, "file taxes", tomorrow),
			dueTask(t, bob.ID, "renew passport", tomorrow),
		}}
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{alice.ID: alice, bob.ID: bob}}
		mailer := &fakeMailer{}

		sent, err := newJob(tasks, users, mailer).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, sent)

		require.Len(t, mailer.sent, 2)
		assert.Equal(t, "alice@example.com", mailer.sent[0].to)
		assert.Equal(t, "Reminder: task 'file taxes' is due tomorrow", mailer.sent[0].subject)
		assert.Contains(t, mailer.sent[0].body, "file taxes")
		assert.Contains(t, mailer.sent[0].body, "16.06.2025")
		assert.Contains(t, mailer.sent[0].body, "high")
	})

	t.Run("queries tomorrow's full day window", func(t *testing.T) {
		tasks := &fakeTaskStore{}
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}

		_, err := newJob(tasks, users, &fakeMailer{}).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), tasks.gotFrom)
		assert.Equal(t, time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), tasks.gotTo)
	})

	t.Run("send failure skips the task and continues", func(t *testing.T) {
		tasks := &fakeTaskStore{dueTasks: []*domain.Task{
			dueTask(t, alice.ID, "one", tomorrow),
			dueTask(t, bob.ID, "two", tomorrow),
		}}
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{alice.ID: alice, bob.ID: bob}}
		mailer := &fakeMailer{failFor: "alice@example.com"}

		sent, err := newJob(tasks, users, mailer).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "bob@example.com", mailer.sent[0].to)
	})

	t.Run("missing owner skips the task", func(t *testing.T) {
		tasks := &fakeTaskStore{dueTasks: []*domain.Task{
			dueTask(t, uuid.New(), "orphaned", tomorrow),
		}}
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
		mailer := &fakeMailer{}

		sent, err := newJob(tasks, users, mailer).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		assert.Empty(t, mailer.sent)
	})

	t.Run("store failure aborts the run", func(t *testing.T) {
		tasks := &fakeTaskStore{dueErr: errors.New("connection refused")}
		users := &fakeUserStore{users: map[uuid.UUID]*domain.User{}}

		_, err := newJob(tasks, users, &fakeMailer{}).Run(context.Background())
		assert.Error(t, err)
	})
}

func TestTomorrowWindowStart(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"midday",
			time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			"just before midnight",
			time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC),
			time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			"month boundary",
			time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tomorrowWindowStart(tc.now))
		})
	}
}

func TestSchedulerUntilNextRun(t *testing.T) {
	job := NewReminderJob(&fakeTaskStore{}, &fakeUserStore{users: map[uuid.UUID]*domain.User{}}, &fakeMailer{}, slog.Default())
	s := NewScheduler(job, 9, slog.Default())

	t.Run("before the hour waits until it", func(t *testing.T) {
		s.now = func() time.Time { return time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC) }
		assert.Equal(t, 3*time.Hour, s.untilNextRun())
	})

	t.Run("after the hour waits for tomorrow", func(t *testing.T) {
		s.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
		assert.Equal(t, 23*time.Hour, s.untilNextRun())
	})

	t.Run("exactly on the hour waits a full day", func(t *testing.T) {
		s.now = func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }
		assert.Equal(t, 24*time.Hour, s.untilNextRun())
	})
}

func TestNewSchedulerRejectsBadHour(t *testing.T) {
	job := NewReminderJob(&fakeTaskStore{}, &fakeUserStore{users: map[uuid.UUID]*domain.User{}}, &fakeMailer{}, slog.Default())

	assert.Panics(t, func() { NewScheduler(job, 24, slog.Default()) })
	assert.Panics(t, func() { NewScheduler(job, -1, slog.Default()) })
}
