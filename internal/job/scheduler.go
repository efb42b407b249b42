package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// runTimeout bounds a single reminder run.
const runTimeout = 10 * time.Minute

// Scheduler triggers the reminder job once a day at a fixed hour.
type Scheduler struct {
	job    *ReminderJob
	hour   int
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewScheduler creates a Scheduler that runs the job daily at the given
// hour (UTC, 0-23).
func NewScheduler(job *ReminderJob, hour int, logger *slog.Logger) *Scheduler {
	if job == nil {
		panic("job cannot be nil")
	}
	if hour < 0 || hour > 23 {
		panic("hour must be in 0..23")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		job:    job,
		hour:   hour,
		logger: logger.With(slog.String("component", "reminder_scheduler")),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// Start launches the scheduling loop in a background goroutine.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	s.logger.Info("reminder scheduler started", slog.Int("hour", s.hour))
}

// Stop cancels the loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		wait := s.untilNextRun()
		timer := time.NewTimer(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		runCtx, cancel := context.WithTimeout(s.ctx, runTimeout)
		sent, err := s.job.Run(runCtx)
		cancel()
		if err != nil {
			s.logger.Error("reminder run failed", slog.Any("error", err))
			continue
		}
		s.logger.Info("reminder run complete", slog.Int("sent", sent))
	}
}

// untilNextRun computes the wait until the next occurrence of the
// configured hour, UTC.
func (s *Scheduler) untilNextRun() time.Duration {
	now := s.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
