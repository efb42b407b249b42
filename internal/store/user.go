package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
)

// UserSortField names a column user search results may be ordered by.
type UserSortField string

// Sortable user search fields.
const (
	UserSortEmail      UserSortField = "email"
	UserSortFirstName  UserSortField = "first_name"
	UserSortLastName   UserSortField = "last_name"
	UserSortDateJoined UserSortField = "date_joined"
)

// IsValid reports whether f is a known sort field.
func (f UserSortField) IsValid() bool {
	switch f {
	case UserSortEmail, UserSortFirstName, UserSortLastName, UserSortDateJoined:
		return true
	}
	return false
}

// UserSearch describes a user directory query: a case-insensitive substring
// match over email and name fields, excluding one user (the caller), over
// active users only.
type UserSearch struct {
	ExcludeID  uuid.UUID
	Query      string
	SortField  UserSortField
	Descending bool
	Offset     int
	Limit      int
}

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The user's HashedPassword must
	// already be set. Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves an active user by their email address.
	// Returns ErrUserNotFound if no active user matches.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user's mutable details (name fields).
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their ID. Shares referencing
	// the user are removed by the storage layer's cascade.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Search returns the page of active users matching the search spec
	// along with the total match count.
	Search(ctx context.Context, spec UserSearch) ([]*domain.User, int, error)

	// WithTx returns a UserStore bound to the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
