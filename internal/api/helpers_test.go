package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/api/shared"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/service"
	"github.com/taskshare/task-api/internal/service/auth"
	"github.com/taskshare/task-api/internal/store"
)

// Handler test scaffolding: request builders plus hand-written service and
// store fakes. Each fake returns canned values set by the test.

// newAuthedRequest builds a request carrying userID the way the auth
// middleware would set it.
func newAuthedRequest(method, target string, body string, userID uuid.UUID) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type fakeTaskService struct {
	list      *service.TaskList
	task      *domain.Task
	detail    *service.TaskDetail
	err       error
	gotFilter store.TaskFilter
	gotSort   store.TaskSort
	gotPage   int
	gotPatch  service.TaskPatch
}

func (f *fakeTaskService) List(_ context.Context, _ uuid.UUID, filter store.TaskFilter, sort store.TaskSort, page int) (*service.TaskList, error) {
	f.gotFilter, f.gotSort, f.gotPage = filter, sort, page
	return f.list, f.err
}

func (f *fakeTaskService) Create(_ context.Context, userID uuid.UUID, title, description string, status domain.Status, priority domain.Priority, deadline *time.Time) (*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	task, err := domain.NewTask(userID, title, description, status, priority, deadline)
	if err != nil {
		return nil, err
	}
	f.task = task
	f.detail = &service.TaskDetail{Task: task, OwnerEmail: "owner@example.com"}
	return task, nil
}

func (f *fakeTaskService) Get(_ context.Context, _, _ uuid.UUID) (*service.TaskDetail, error) {
	return f.detail, f.err
}

func (f *fakeTaskService) Update(_ context.Context, _, _ uuid.UUID, patch service.TaskPatch) (*service.TaskDetail, error) {
	f.gotPatch = patch
	return f.detail, f.err
}

func (f *fakeTaskService) Delete(_ context.Context, _, _ uuid.UUID) error {
	return f.err
}

type fakeSharingService struct {
	info    *service.ShareInfo
	infos   []*service.ShareInfo
	created bool
	err     error
}

func (f *fakeSharingService) Grant(_ context.Context, _, _ uuid.UUID, _ string, _ domain.Permission) (*service.ShareInfo, bool, error) {
	return f.info, f.created, f.err
}

func (f *fakeSharingService) ListShares(_ context.Context, _, _ uuid.UUID) ([]*service.ShareInfo, error) {
	return f.infos, f.err
}

func (f *fakeSharingService) Revoke(_ context.Context, _, _ uuid.UUID) error {
	return f.err
}

type fakeUserService struct {
	profile *service.Profile
	list    *service.UserList
	err     error
}

func (f *fakeUserService) Profile(_ context.Context, _ uuid.UUID) (*service.Profile, error) {
	return f.profile, f.err
}

func (f *fakeUserService) UpdateProfile(_ context.Context, _ uuid.UUID, _ service.ProfilePatch) (*service.Profile, error) {
	return f.profile, f.err
}

func (f *fakeUserService) Search(_ context.Context, _ uuid.UUID, _ string, _ store.UserSortField, _ bool, _ int) (*service.UserList, error) {
	return f.list, f.err
}

type fakeUserStore struct {
	users map[string]*domain.User
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	if _, ok := s.users[user.Email]; ok {
		return store.ErrEmailExists
	}
	s.users[user.Email] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := s.users[strings.ToLower(email)]
	if !ok || !u.IsActive {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	s.users[user.Email] = user
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (s *fakeUserStore) Search(_ context.Context, _ store.UserSearch) ([]*domain.User, int, error) {
	return nil, 0, nil
}

func (s *fakeUserStore) WithTx(*sql.Tx) store.UserStore { return s }

// plainPassword hashes by prefixing, so tests can assert against known
// values without bcrypt cost.
type plainPassword struct{}

func (plainPassword) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainPassword) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

type fakeJWTService struct {
	claims      *auth.Claims
	validateErr error
}

func (f *fakeJWTService) GenerateToken(_ context.Context, userID uuid.UUID) (string, error) {
	return "access-" + userID.String(), nil
}

func (f *fakeJWTService) ValidateToken(_ context.Context, _ string) (*auth.Claims, error) {
	return f.claims, f.validateErr
}

func (f *fakeJWTService) GenerateRefreshToken(_ context.Context, userID uuid.UUID) (string, error) {
	return "refresh-" + userID.String(), nil
}

func (f *fakeJWTService) ValidateRefreshToken(_ context.Context, _ string) (*auth.Claims, error) {
	return f.claims, f.validateErr
}

func (f *fakeJWTService) AccessTokenLifetime() time.Duration { return time.Hour }
