package api

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/service"
	"github.com/taskshare/task-api/internal/store"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	FirstName       string `json:"first_name"       validate:"max=150"`
	LastName        string `json:"last_name"        validate:"max=150"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh" validate:"required"`
}

// TokenPairResponse defines the successful response for the login and
// refresh endpoints.
type TokenPairResponse struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RegisterResponse defines the successful response for registration.
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// UserResponse is the public representation of a user account.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

// NewUserResponse builds a UserResponse from a user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		DateJoined: user.CreatedAt,
	}
}

// UserSearchResponse is the trimmed representation served by the user
// directory listing.
type UserSearchResponse struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

// NewUserSearchResponse builds a UserSearchResponse from a user.
func NewUserSearchResponse(user *domain.User) UserSearchResponse {
	return UserSearchResponse{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
	}
}

// ProfileResponse is the caller's own account view with task counts.
type ProfileResponse struct {
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	FullName         string    `json:"full_name"`
	DateJoined       time.Time `json:"date_joined"`
	TasksCount       int       `json:"tasks_count"`
	SharedTasksCount int       `json:"shared_tasks_count"`
}

// NewProfileResponse builds a ProfileResponse from a profile.
func NewProfileResponse(profile *service.Profile) ProfileResponse {
	return ProfileResponse{
		Email:            profile.User.Email,
		FirstName:        profile.User.FirstName,
		LastName:         profile.User.LastName,
		FullName:         profile.User.FullName(),
		DateJoined:       profile.User.CreatedAt,
		TasksCount:       profile.TasksCount,
		SharedTasksCount: profile.SharedTasksCount,
	}
}

// ProfileUpdateRequest defines the payload for profile updates. Only the
// name fields are mutable; absent fields are left unchanged.
type ProfileUpdateRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name"  validate:"omitempty,max=150"`
}

// OptionalTime is a nullable timestamp that records whether the field was
// present in the request body at all. Partial updates need the three-way
// distinction between absent, null, and a value.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// CreateTaskRequest defines the payload for task creation. Status and
// priority fall back to their defaults when omitted.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=255"`
	Description string     `json:"description"`
	Status      string     `json:"status"      validate:"omitempty,oneof=new in_progress done"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateTaskRequest defines the payload for full task updates. Title is
// required; the other fields reset to defaults when omitted, matching
// replace semantics.
type UpdateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=255"`
	Description string     `json:"description"`
	Status      string     `json:"status"      validate:"omitempty,oneof=new in_progress done"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Deadline    *time.Time `json:"deadline"`
}

// PatchTaskRequest defines the payload for partial task updates. Absent
// fields are left unchanged; an explicit null deadline clears it.
type PatchTaskRequest struct {
	Title       *string      `json:"title"       validate:"omitempty,min=1,max=255"`
	Description *string      `json:"description"`
	Status      *string      `json:"status"      validate:"omitempty,oneof=new in_progress done"`
	Priority    *string      `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Deadline    OptionalTime `json:"deadline"`
}

// TaskResponse is the wire representation of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	Owner       uuid.UUID  `json:"owner"`
	OwnerEmail  string     `json:"owner_email"`
	IsOverdue   bool       `json:"is_overdue"`
	SharedWith  int        `json:"shared_with"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTaskResponse builds a TaskResponse; now anchors the is_overdue
// computation.
func NewTaskResponse(task *domain.Task, ownerEmail string, shareCount int, now time.Time) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		Deadline:    task.Deadline,
		Owner:       task.OwnerID,
		OwnerEmail:  ownerEmail,
		IsOverdue:   task.IsOverdue(now),
		SharedWith:  shareCount,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// NewTaskListResponse builds the page of task responses from list items.
func NewTaskListResponse(items []*store.TaskWithMeta, now time.Time) []TaskResponse {
	out := make([]TaskResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewTaskResponse(&item.Task, item.OwnerEmail, item.ShareCount, now))
	}
	return out
}

// ShareTaskRequest defines the payload for granting task access.
type ShareTaskRequest struct {
	Email      string `json:"email"      validate:"required,email"`
	Permission string `json:"permission" validate:"required,oneof=view edit"`
}

// ShareResponse is the wire representation of a task share.
type ShareResponse struct {
	ID         uuid.UUID `json:"id"`
	Task       uuid.UUID `json:"task"`
	TaskTitle  string    `json:"task_title"`
	User       uuid.UUID `json:"user"`
	UserEmail  string    `json:"user_email"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewShareResponse builds a ShareResponse from a share and its metadata.
func NewShareResponse(info *service.ShareInfo) ShareResponse {
	return ShareResponse{
		ID:         info.Share.ID,
		Task:       info.Share.TaskID,
		TaskTitle:  info.TaskTitle,
		User:       info.Share.UserID,
		UserEmail:  info.UserEmail,
		Permission: string(info.Share.Permission),
		CreatedAt:  info.Share.CreatedAt,
	}
}

// PageResponse is the envelope every list endpoint returns: the total
// match count, absolute URLs for the adjacent pages (null at the edges),
// and the current page of results.
type PageResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// NewPageResponse builds the page envelope. requestURL is the full URL of
// the current request; next/previous are derived from it by rewriting the
// page query parameter.
func NewPageResponse(requestURL *url.URL, pageNumber, pageSize, count int, results any) PageResponse {
	resp := PageResponse{Count: count, Results: results}

	if pageNumber*pageSize < count {
		resp.Next = pageURL(requestURL, pageNumber+1)
	}
	if pageNumber > 1 {
		resp.Previous = pageURL(requestURL, pageNumber-1)
	}
	return resp
}

// pageURL rewrites the page parameter of u, dropping it entirely for
// page 1 so the first-page URL stays canonical.
func pageURL(u *url.URL, page int) *string {
	clone := *u
	q := clone.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	clone.RawQuery = q.Encode()
	s := clone.String()
	return &s
}

// formatExpiry renders a token expiry for auth responses.
func formatExpiry(now time.Time, lifetime time.Duration) string {
	return now.Add(lifetime).UTC().Format(time.RFC3339)
}
