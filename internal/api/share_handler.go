package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/api/middleware"
	"github.com/taskshare/task-api/internal/api/shared"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/service"
)

// ShareHandler handles task sharing API requests.
type ShareHandler struct {
	sharingService service.SharingService
}

// NewShareHandler creates a new ShareHandler with the given dependencies.
func NewShareHandler(sharingService service.SharingService) *ShareHandler {
	if sharingService == nil {
		panic("sharingService cannot be nil")
	}
	return &ShareHandler{sharingService: sharingService}
}

// Share handles POST /api/tasks/{id}/share. Sharing with a user who
// already has access updates the existing grant's permission, so the
// response is 201 for a new grant and 200 for an update.
func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
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

	var req ShareTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	info, created, err := h.sharingService.Grant(r.Context(), userID, taskID,
		req.Email, domain.Permission(req.Permission))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, NewShareResponse(info))
}

// ListShares handles GET /api/tasks/{id}/shares.
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
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

	infos, err := h.sharingService.ListShares(r.Context(), userID, taskID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	results := make([]ShareResponse, 0, len(infos))
	for _, info := range infos {
		results = append(results, NewShareResponse(info))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, results)
}

// Revoke handles DELETE /api/shares/{id}.
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	shareID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Share not found")
		return
	}

	if err := h.sharingService.Revoke(r.Context(), userID, shareID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ShareHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusInternalServerError {
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
}
