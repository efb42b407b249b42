package api

import (
	"net/http"
	"strings"

	"github.com/taskshare/task-api/internal/api/middleware"
	"github.com/taskshare/task-api/internal/api/shared"
	"github.com/taskshare/task-api/internal/service"
	"github.com/taskshare/task-api/internal/store"
)

// UserHandler handles the user directory and profile API requests.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(userService service.UserService) *UserHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	return &UserHandler{userService: userService}
}

// Search handles GET /api/users. The caller is excluded from results.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := r.URL.Query()
	sortField, descending := parseUserOrdering(q.Get("ordering"))
	page := parsePageNumber(q.Get("page"))

	list, err := h.userService.Search(r.Context(), userID, q.Get("search"), sortField, descending, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	results := make([]UserSearchResponse, 0, len(list.Items))
	for _, user := range list.Items {
		results = append(results, NewUserSearchResponse(user))
	}
	shared.RespondWithJSON(w, r, http.StatusOK,
		NewPageResponse(r.URL, page, service.PageSize, list.Total, results))
}

// Profile handles GET /api/users/me.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.userService.Profile(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewProfileResponse(profile))
}

// UpdateProfile handles PUT and PATCH /api/users/me. Only the name fields
// are mutable either way, so both verbs share one implementation.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ProfileUpdateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), userID, service.ProfilePatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewProfileResponse(profile))
}

func (h *UserHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusInternalServerError {
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
}

// parseUserOrdering parses the ordering parameter for the user directory.
// Unknown fields fall back to the default of email ascending.
func parseUserOrdering(raw string) (store.UserSortField, bool) {
	if raw == "" {
		return store.UserSortEmail, false
	}

	descending := false
	if strings.HasPrefix(raw, "-") {
		descending = true
		raw = raw[1:]
	}

	field := store.UserSortField(raw)
	if !field.IsValid() {
		return store.UserSortEmail, false
	}
	return field, descending
}
