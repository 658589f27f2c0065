package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"watchlist/internal/service"
)

// AuthHandler serves registration, login, and the current-user endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse is the public view of a user — ID and username, nothing else.
type userResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /users
// Body: {"username": "alice", "password": "Str0ng!Pass"}
// 201 with {user_id, username}; 400 on missing fields or a weak password;
// 409 if the username is taken.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		UserID:   user.ID,
		Username: user.Username,
	})
}

// HandleLogin verifies credentials and returns a bearer token.
//
// HTTP: POST /login
// 200 with {message, user, token}; 401 on bad credentials.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user": userResponse{
			UserID:   result.User.ID,
			Username: result.User.Username,
		},
		"token": result.Token,
	})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /me (bearer)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		UserID:   user.ID,
		Username: user.Username,
	})
}

// HandleDeleteMe deletes the authenticated user's own account, cascading to
// their watchlists and memberships.
//
// HTTP: DELETE /users (bearer)
func (h *AuthHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
