package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/api/middleware"
	"github.com/taskshare/task-api/internal/api/shared"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/service"
	"github.com/taskshare/task-api/internal/store"
)

// TaskHandler handles task CRUD and list API requests.
type TaskHandler struct {
	taskService service.TaskService
	now         func() time.Time
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	if taskService == nil {
		panic("taskService cannot be nil")
	}
	return &TaskHandler{taskService: taskService, now: time.Now}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sort := parseTaskOrdering(r.URL.Query().Get("ordering"))
	page := parsePageNumber(r.URL.Query().Get("page"))

	list, err := h.taskService.List(r.Context(), userID, filter, sort, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	results := NewTaskListResponse(list.Items, h.now().UTC())
	shared.RespondWithJSON(w, r, http.StatusOK,
		NewPageResponse(r.URL, page, service.PageSize, list.Total, results))
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.Create(r.Context(), userID,
		req.Title, req.Description, domain.Status(req.Status), domain.Priority(req.Priority), req.Deadline)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	detail, err := h.taskService.Get(r.Context(), userID, task.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated,
		NewTaskResponse(detail.Task, detail.OwnerEmail, detail.ShareCount, h.now().UTC()))
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	detail, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		NewTaskResponse(detail.Task, detail.OwnerEmail, detail.ShareCount, h.now().UTC()))
}

// Update handles PUT /api/tasks/{id}. Replace semantics: omitted optional
// fields reset to their defaults.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	status := domain.StatusNew
	if req.Status != "" {
		status = domain.Status(req.Status)
	}
	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority = domain.Priority(req.Priority)
	}

	patch := service.TaskPatch{
		Title:       &req.Title,
		Description: &req.Description,
		Status:      &status,
		Priority:    &priority,
		Deadline:    req.Deadline,
	}
	if req.Deadline == nil {
		patch.ClearDeadline = true
	}

	detail, err := h.taskService.Update(r.Context(), userID, taskID, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		NewTaskResponse(detail.Task, detail.OwnerEmail, detail.ShareCount, h.now().UTC()))
}

// Patch handles PATCH /api/tasks/{id}. Absent fields are left unchanged;
// an explicit null deadline clears it.
func (h *TaskHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	var req PatchTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	patch := service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		patch.Priority = &priority
	}
	if req.Deadline.Set {
		if req.Deadline.Value == nil {
			patch.ClearDeadline = true
		} else {
			patch.Deadline = req.Deadline.Value
		}
	}

	detail, err := h.taskService.Update(r.Context(), userID, taskID, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		NewTaskResponse(detail.Task, detail.OwnerEmail, detail.ShareCount, h.now().UTC()))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusInternalServerError {
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
}

// parseTaskFilter builds the store filter from list query parameters.
// Multi-valued parameters accept both repetition and comma separation.
func parseTaskFilter(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()
	var filter store.TaskFilter

	for _, raw := range multiValues(q["status"]) {
		status := domain.Status(raw)
		if !status.IsValid() {
			return filter, errInvalidParam("status", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for _, raw := range multiValues(q["priority"]) {
		priority := domain.Priority(raw)
		if !priority.IsValid() {
			return filter, errInvalidParam("priority", raw)
		}
		filter.Priorities = append(filter.Priorities, priority)
	}

	if raw := q.Get("deadline_after"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return filter, errInvalidParam("deadline_after", raw)
		}
		filter.DeadlineAfter = &t
	}
	if raw := q.Get("deadline_before"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return filter, errInvalidParam("deadline_before", raw)
		}
		filter.DeadlineBefore = &t
	}

	if raw := q.Get("is_overdue"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errInvalidParam("is_overdue", raw)
		}
		filter.IsOverdue = &v
	}

	filter.Search = q.Get("search")
	return filter, nil
}

// parseTaskOrdering parses the ordering parameter, a sort field with an
// optional leading minus for descending. Unknown fields fall back to the
// default ordering of newest first.
func parseTaskOrdering(raw string) store.TaskSort {
	sort := store.TaskSort{Field: store.TaskSortCreatedAt, Descending: true}
	if raw == "" {
		return sort
	}

	descending := false
	if strings.HasPrefix(raw, "-") {
		descending = true
		raw = raw[1:]
	}

	field := store.TaskSortField(raw)
	if !field.IsValid() {
		return sort
	}
	return store.TaskSort{Field: field, Descending: descending}
}

// parsePageNumber parses the page parameter, defaulting to the first page.
func parsePageNumber(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseTimeParam accepts RFC 3339 timestamps and bare dates.
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// multiValues flattens repeated and comma-separated parameter values.
func multiValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type paramError struct {
	name  string
	value string
}

func (e paramError) Error() string {
	return "Invalid " + e.name + " value: " + e.value
}

func errInvalidParam(name, value string) error {
	return paramError{name: name, value: value}
}
