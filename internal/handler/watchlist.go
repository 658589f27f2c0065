package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"watchlist/internal/auth"
	"watchlist/internal/model"
	"watchlist/internal/repository"
	"watchlist/internal/service"
)

// WatchlistHandler serves the watchlist registry endpoints.
type WatchlistHandler struct {
	svc    *service.WatchlistService
	logger *slog.Logger
}

// NewWatchlistHandler creates a WatchlistHandler.
func NewWatchlistHandler(svc *service.WatchlistService, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{svc: svc, logger: logger}
}

// callerID pulls the authenticated user out of the context. The router only
// reaches these handlers through auth.RequireAuth, so a miss means a wiring
// bug, not a client error — but we still answer 401 rather than panic.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "auth_error",
			Message: "authentication required",
		})
		return "", false
	}
	return userID, true
}

type createWatchlistRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// updateWatchlistRequest uses pointers so "field absent" and "field set to
// empty" are distinguishable — only supplied fields are updated.
type updateWatchlistRequest struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

// HandleCreate creates a watchlist owned by the caller.
//
// HTTP: POST /watchlists (bearer)
// Body: {"name": "Sci-Fi", "notes": "..."}
func (h *WatchlistHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid watchlist JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	wl, err := h.svc.Create(r.Context(), userID, req.Name, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, wl)
}

// HandleListMine returns the caller's watchlists.
//
// HTTP: GET /watchlists/me (bearer)
func (h *WatchlistHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	lists, err := h.svc.ListByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if lists == nil {
		lists = []model.Watchlist{} // empty array, not null, in the JSON
	}

	writeJSON(w, http.StatusOK, lists)
}

// HandleUpdate partially updates a watchlist the caller owns.
//
// HTTP: PUT /watchlists/{id} (bearer)
// 400 if neither name nor notes is supplied; 403 if not the owner.
func (h *WatchlistHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req updateWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid watchlist JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	wl, err := h.svc.Update(r.Context(), r.PathValue("id"), userID, repository.WatchlistUpdate{
		Name:  req.Name,
		Notes: req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wl)
}

// HandleDelete deletes a watchlist the caller owns.
//
// HTTP: DELETE /watchlists/{id} (bearer)
func (h *WatchlistHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Watchlist deleted successfully"})
}
