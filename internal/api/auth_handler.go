package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/taskshare/task-api/internal/api/shared"
	"github.com/taskshare/task-api/internal/domain"
	"github.com/taskshare/task-api/internal/service/auth"
	"github.com/taskshare/task-api/internal/store"
)

// AuthHandler handles registration, login, and token refresh.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier
	now              func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordHasher auth.PasswordHasher,
	passwordVerifier auth.PasswordVerifier,
) *AuthHandler {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if passwordHasher == nil {
		panic("passwordHasher cannot be nil")
	}
	if passwordVerifier == nil {
		panic("passwordVerifier cannot be nil")
	}
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordHasher:   passwordHasher,
		passwordVerifier: passwordVerifier,
		now:              time.Now,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}
	if req.Password != req.PasswordConfirm {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Passwords do not match")
		return
	}

	user, err := domain.NewUser(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	hashed, err := h.passwordHasher.Hash(user.Password)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, RegisterResponse{
		User:    NewUserResponse(user),
		Message: "User registered successfully",
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to authenticate user", err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithTokenPair(w, r, user.ID, http.StatusOK)
}

// RefreshToken handles POST /api/auth/refresh. A valid refresh token
// yields a fresh access/refresh pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status == http.StatusInternalServerError {
			shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
			return
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	h.respondWithTokenPair(w, r, claims.UserID, http.StatusOK)
}

func (h *AuthHandler) respondWithTokenPair(w http.ResponseWriter, r *http.Request, userID uuid.UUID, status int) {
	access, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to generate authentication token", err)
		return
	}

	refresh, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to generate refresh token", err)
		return
	}

	shared.RespondWithJSON(w, r, status, TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    formatExpiry(h.now(), h.jwtService.AccessTokenLifetime()),
	})
}
