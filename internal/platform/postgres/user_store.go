package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/platform/logger"
	"github.com/taskshare/task-api/internal/store"
)

// UserStore implements the store.UserStore interface using a PostgreSQL
// database as the storage backend.
type UserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore
// interface. The database handle is initialized and managed by the caller.
func NewUserStore(db store.DBTX, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.Create
// Returns store.ErrEmailExists if the email is already registered.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, hashed_password, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.HashedPassword,
		user.IsActive,
		user.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate email during user creation",
				slog.String("user_id", user.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()))
	return nil
}

const userColumns = "id, email, first_name, last_name, hashed_password, is_active, created_at"

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.HashedPassword,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, err
	}
	return user, nil
}

// GetByEmail implements store.UserStore.GetByEmail
// Only active users are considered; inactive accounts behave as nonexistent.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by email",
			slog.String("error", err.Error()))
		return nil, err
	}
	return user, nil
}

// Update implements store.UserStore.Update
// Email and the active flag are immutable through this surface; only the
// name fields are written.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET first_name = $1, last_name = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, user.FirstName, user.LastName, user.ID)
	if err != nil {
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete implements store.UserStore.Delete
// Task and share rows referencing the user are removed by ON DELETE CASCADE.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Search implements store.UserStore.Search
// It returns active users other than the excluded one, filtered by a
// case-insensitive substring over email and name fields, with the total
// match count.
func (s *UserStore) Search(ctx context.Context, spec store.UserSearch) ([]*domain.User, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where := "is_active AND id <> $1"
	args := []any{spec.ExcludeID}

	if spec.Query != "" {
		pattern := "%" + escapeLike(spec.Query) + "%"
		args = append(args, pattern)
		n := len(args)
		where += fmt.Sprintf(
			" AND (email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			n, n, n,
		)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count users", slog.String("error", err.Error()))
		return nil, 0, err
	}

	sortField := spec.SortField
	if !sortField.IsValid() {
		sortField = store.UserSortEmail
	}
	column := string(sortField)
	if sortField == store.UserSortDateJoined {
		column = "created_at"
	}
	direction := "ASC"
	if spec.Descending {
		direction = "DESC"
	}

	args = append(args, spec.Limit, spec.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE %s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		userColumns, where, column, direction, len(args)-1, len(args),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to search users", slog.String("error", err.Error()))
		return nil, 0, err
	}
	defer closeRows(rows, log)

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if users == nil {
		users = []*domain.User{}
	}
	return users, total, nil
}

// escapeLike escapes LIKE/ILIKE metacharacters in user-supplied search text
// so a substring match treats them literally.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
