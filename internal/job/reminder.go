package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/store"
)

// ReminderJob mails owners of unfinished tasks whose deadline falls on
// the next calendar day.
type ReminderJob struct {
	taskStore store.TaskStore
	userStore store.UserStore
	mailer    Mailer
	logger    *slog.Logger
	now       func() time.Time
}

// NewReminderJob creates a ReminderJob over the given stores and mailer.
func NewReminderJob(
	taskStore store.TaskStore,
	userStore store.UserStore,
	mailer Mailer,
	logger *slog.Logger,
) *ReminderJob {
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if mailer == nil {
		panic("mailer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderJob{
		taskStore: taskStore,
		userStore: userStore,
		mailer:    mailer,
		logger:    logger.With(slog.String("component", "reminder_job")),
		now:       time.Now,
	}
}

// Run sends reminders for tomorrow's unfinished tasks and returns the
// number of mails sent. Individual send failures are logged and skipped
// rather than aborting the batch, so the count may undershoot the number
// of matching tasks.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	now := j.now().UTC()
	from := tomorrowWindowStart(now)
	to := from.Add(24 * time.Hour)

	tasks, err := j.taskStore.FindDueBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to find due tasks: %w", err)
	}

	sent := 0
	for _, task := range tasks {
		owner, err := j.userStore.GetByID(ctx, task.OwnerID)
		if err != nil {
			j.logger.Error("failed to load task owner for reminder",
				slog.String("task_id", task.ID.String()),
				slog.Any("error", err))
			continue
		}

		subject := fmt.Sprintf("Reminder: task '%s' is due tomorrow", task.Title)
		body := reminderBody(owner, task, from)

		if err := j.mailer.Send(ctx, owner.Email, subject, body); err != nil {
			j.logger.Error("failed to send reminder",
				slog.String("task_id", task.ID.String()),
				slog.Any("error", err))
			continue
		}
		sent++
	}

	j.logger.Info("reminder run finished",
		slog.Int("due_tasks", len(tasks)),
		slog.Int("sent", sent))
	return sent, nil
}

// tomorrowWindowStart returns midnight UTC of the day after now.
func tomorrowWindowStart(now time.Time) time.Time {
	tomorrow := now.Add(24 * time.Hour)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
}

func reminderBody(owner *domain.User, task *domain.Task, dueDay time.Time) string {
	return fmt.Sprintf(`Hello, %s!

This is a reminder that the following task is due tomorrow (%s):

Title: %s
Description: %s
Priority: %s
Status: %s

Don't forget to finish it on time!
`,
		owner.Email,
		dueDay.Format("02.01.2006"),
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
	)
}
