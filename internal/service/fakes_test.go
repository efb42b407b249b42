package service_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/store"
)

// newStubDB returns a *sql.DB whose connections support only Begin,
// Commit, and Rollback. It lets transaction orchestration run against the
// in-memory fakes, which never touch the *sql.Tx they are handed.
func newStubDB() *sql.DB {
	return sql.OpenDB(stubConnector{})
}

type stubConnector struct{}

func (stubConnector) Connect(context.Context) (driver.Conn, error) { return stubConn{}, nil }
func (stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

// In-memory store fakes for service tests. They implement just enough of
// the store contracts for the paths under test; transactional behavior is
// covered by integration tests against a real database.

type fakeUserStore struct {
	users     map[uuid.UUID]*domain.User
	updateErr error
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) Search(_ context.Context, spec store.UserSearch) ([]*domain.User, int, error) {
	var matched []*domain.User
	for _, u := range s.users {
		if u.ID == spec.ExcludeID || !u.IsActive {
			continue
		}
		if spec.Query != "" && !strings.Contains(u.Email, strings.ToLower(spec.Query)) {
			continue
		}
		matched = append(matched, u)
	}
	total := len(matched)
	if spec.Offset >= total {
		return nil, total, nil
	}
	end := spec.Offset + spec.Limit
	if end > total {
		end = total
	}
	return matched[spec.Offset:end], total, nil
}

func (s *fakeUserStore) WithTx(*sql.Tx) store.UserStore { return s }

type fakeTaskStore struct {
	tasks      map[uuid.UUID]*domain.Task
	listItems  []*store.TaskWithMeta
	listTotal  int
	dueTasks   []*domain.Task
	ownerCount map[uuid.UUID]int
	updateErr  error
	deleteErr  error
}

func newFakeTaskStore(tasks ...*domain.Task) *fakeTaskStore {
	s := &fakeTaskStore{
		tasks:      make(map[uuid.UUID]*domain.Task),
		ownerCount: make(map[uuid.UUID]int),
	}
	for _, task := range tasks {
		s.tasks[task.ID] = task
		s.ownerCount[task.OwnerID]++
	}
	return s
}

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.tasks[task.ID] = task
	s.ownerCount[task.OwnerID]++
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (s *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	s.ownerCount[task.OwnerID]--
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) ListVisible(
	_ context.Context,
	_ uuid.UUID,
	_ store.TaskFilter,
	_ store.TaskSort,
	page store.Page,
	_ time.Time,
) ([]*store.TaskWithMeta, int, error) {
	if page.Offset >= len(s.listItems) {
		return nil, s.listTotal, nil
	}
	end := page.Offset + page.Limit
	if end > len(s.listItems) {
		end = len(s.listItems)
	}
	return s.listItems[page.Offset:end], s.listTotal, nil
}

func (s *fakeTaskStore) CountByOwner(_ context.Context, userID uuid.UUID) (int, error) {
	return s.ownerCount[userID], nil
}

func (s *fakeTaskStore) FindDueBetween(_ context.Context, _, _ time.Time) ([]*domain.Task, error) {
	return s.dueTasks, nil
}

func (s *fakeTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

type fakeShareStore struct {
	shares    map[uuid.UUID]*domain.TaskShare
	userCount map[uuid.UUID]int
	deleteErr error
}

func newFakeShareStore(shares ...*domain.TaskShare) *fakeShareStore {
	s := &fakeShareStore{
		shares:    make(map[uuid.UUID]*domain.TaskShare),
		userCount: make(map[uuid.UUID]int),
	}
	for _, share := range shares {
		s.shares[share.ID] = share
		s.userCount[share.UserID]++
	}
	return s
}

func (s *fakeShareStore) Upsert(_ context.Context, share *domain.TaskShare) (bool, error) {
	for _, existing := range s.shares {
		if existing.TaskID == share.TaskID && existing.UserID == share.UserID {
			existing.Permission = share.Permission
			share.ID = existing.ID
			share.CreatedAt = existing.CreatedAt
			return false, nil
		}
	}
	s.shares[share.ID] = share
	s.userCount[share.UserID]++
	return true, nil
}

func (s *fakeShareStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TaskShare, error) {
	share, ok := s.shares[id]
	if !ok {
		return nil, store.ErrShareNotFound
	}
	return share, nil
}

func (s *fakeShareStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.TaskShare, error) {
	var out []*domain.TaskShare
	for _, share := range s.shares {
		if share.TaskID == taskID {
			out = append(out, share)
		}
	}
	return out, nil
}

func (s *fakeShareStore) Delete(_ context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	share, ok := s.shares[id]
	if !ok {
		return store.ErrShareNotFound
	}
	s.userCount[share.UserID]--
	delete(s.shares, id)
	return nil
}

func (s *fakeShareStore) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	return s.userCount[userID], nil
}

func (s *fakeShareStore) WithTx(*sql.Tx) store.TaskShareStore { return s }
