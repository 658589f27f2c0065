package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"watchlist/internal/service"
)

// AdminHandler serves the administrative surface: listing every user and
// watchlist and deleting arbitrary accounts. These operations bypass the
// ownership model, so they sit behind an explicit admin credential rather
// than a user bearer token.
type AdminHandler struct {
	authSvc      *service.AuthService
	watchlistSvc *service.WatchlistService
	logger       *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(authSvc *service.AuthService, watchlistSvc *service.WatchlistService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		authSvc:      authSvc,
		watchlistSvc: watchlistSvc,
		logger:       logger,
	}
}

// RequireAdmin gates a route on the X-Admin-Token header matching the
// configured token. With no token configured the whole surface answers 404,
// as if it didn't exist.
func RequireAdmin(adminToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken == "" {
				http.NotFound(w, r)
				return
			}

			supplied := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(adminToken)) != 1 {
				logger.Warn("admin request with bad token", slog.String("path", r.URL.Path))
				writeJSON(w, http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "admin access required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandleListUsers returns every registered user.
//
// HTTP: GET /admin/users (admin token)
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleListWatchlists returns every watchlist across all users.
//
// HTTP: GET /admin/watchlists (admin token)
func (h *AdminHandler) HandleListWatchlists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.watchlistSvc.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// HandleDeleteUser deletes any account by ID, cascading to its watchlists.
//
// HTTP: DELETE /admin/users/{id} (admin token)
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.authSvc.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
