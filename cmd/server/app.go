package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskshare/task-api/internal/config"
	"github.com/taskshare/task-api/internal/job"
	"github.com/taskshare/task-api/internal/platform/logger"
	"github.com/taskshare/task-api/internal/platform/postgres"
	"github.com/taskshare/task-api/internal/service"
	"github.com/taskshare/task-api/internal/service/auth"
	"github.com/taskshare/task-api/internal/store"
)

// application bundles the server's wired dependencies.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore  store.UserStore
	taskStore  store.TaskStore
	shareStore store.TaskShareStore

	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier

	taskService    service.TaskService
	sharingService service.SharingService
	userService    service.UserService

	scheduler *job.Scheduler
}

// initializeApp loads configuration, connects the database, and wires the
// stores and services together.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	bcryptVerifier := auth.NewBcryptVerifier()

	userStore := postgres.NewUserStore(db, appLogger)
	taskStore := postgres.NewTaskStore(db, appLogger)
	shareStore := postgres.NewTaskShareStore(db, appLogger)

	app := &application{
		config:           cfg,
		logger:           appLogger,
		db:               db,
		userStore:        userStore,
		taskStore:        taskStore,
		shareStore:       shareStore,
		jwtService:       jwtService,
		passwordHasher:   bcryptVerifier,
		passwordVerifier: bcryptVerifier,
		taskService:      service.NewTaskService(taskStore, shareStore, userStore, appLogger),
		sharingService:   service.NewSharingService(db, taskStore, shareStore, userStore, appLogger),
		userService:      service.NewUserService(userStore, taskStore, shareStore, appLogger),
	}

	if cfg.Mail.Host != "" {
		mailer := job.NewSMTPMailer(cfg.Mail, appLogger)
		reminder := job.NewReminderJob(taskStore, userStore, mailer, appLogger)
		app.scheduler = job.NewScheduler(reminder, cfg.Mail.ReminderHour, appLogger)
	} else {
		appLogger.Info("Mail host not configured, reminder scheduler disabled")
	}

	return app, nil
}

// run starts the background scheduler and the HTTP server, blocking until
// shutdown.
func (app *application) run() error {
	if app.scheduler != nil {
		app.scheduler.Start()
	}

	return app.startHTTPServer(app.setupRouter())
}

// cleanup releases the application's long-lived resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database connection", "error", err)
	}
}
