package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"watchlist/internal/model"
	"watchlist/internal/repository"
	"watchlist/internal/service"
)

// MovieHandler serves the membership ledger endpoints — everything under
// /watchlists/{id}/movies.
type MovieHandler struct {
	svc    *service.WatchlistService
	logger *slog.Logger
}

// NewMovieHandler creates a MovieHandler.
func NewMovieHandler(svc *service.WatchlistService, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{svc: svc, logger: logger}
}

// addMovieRequest carries the movie attributes supplied on add. tmdb_id and
// title are required; the rest are optional metadata captured the first
// time anyone catalogues this movie.
type addMovieRequest struct {
	TMDBID      int64   `json:"tmdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	Tagline     string  `json:"tagline"`
	VoteAverage float64 `json:"vote_average"`
}

// HandleAdd adds a movie to a watchlist.
//
// HTTP: POST /watchlists/{id}/movies (bearer)
// 201 on a new link; 409 if the movie is already in the watchlist; 403 if
// the caller doesn't own the watchlist; 400 on missing tmdb_id/title.
func (h *MovieHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req addMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid movie JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	movie := &model.Movie{
		TMDBID:      req.TMDBID,
		Title:       req.Title,
		Overview:    req.Overview,
		PosterPath:  req.PosterPath,
		ReleaseDate: req.ReleaseDate,
		Runtime:     req.Runtime,
		Tagline:     req.Tagline,
		VoteAverage: req.VoteAverage,
	}

	created, err := h.svc.AddMovie(r.Context(), r.PathValue("id"), userID, movie)
	if err != nil {
		writeError(w, err)
		return
	}

	if !created {
		// The membership already existed. Not an error at the ledger level,
		// but the API contract distinguishes it from a fresh link.
		writeJSON(w, http.StatusConflict, map[string]string{
			"message": "Movie already in watchlist",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Movie added to watchlist",
		"movie_id": movie.ID,
	})
}

// HandleList returns the movies in a watchlist with their watched flags.
//
// HTTP: GET /watchlists/{id}/movies?sort= (bearer)
// sort is optional: added (default), title, release_date, runtime, rating.
func (h *MovieHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	sort := repository.EntrySort(r.URL.Query().Get("sort"))

	entries, err := h.svc.ListMovies(r.Context(), r.PathValue("id"), userID, sort)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// HandleRemove removes a movie from a watchlist.
//
// HTTP: DELETE /watchlists/{id}/movies/{movie_id} (bearer)
// 404 if the movie wasn't linked.
func (h *MovieHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	err := h.svc.RemoveMovie(r.Context(), r.PathValue("id"), userID, r.PathValue("movie_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Movie removed from watchlist"})
}

// HandleMarkWatched sets watched=true on a membership.
//
// HTTP: PATCH /watchlists/{id}/movies/{movie_id}/watched (bearer)
func (h *MovieHandler) HandleMarkWatched(w http.ResponseWriter, r *http.Request) {
	h.setWatched(w, r, true)
}

// HandleMarkUnwatched sets watched=false on a membership.
//
// HTTP: PATCH /watchlists/{id}/movies/{movie_id}/unwatched (bearer)
func (h *MovieHandler) HandleMarkUnwatched(w http.ResponseWriter, r *http.Request) {
	h.setWatched(w, r, false)
}

func (h *MovieHandler) setWatched(w http.ResponseWriter, r *http.Request, watched bool) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	err := h.svc.SetWatched(r.Context(), r.PathValue("id"), userID, r.PathValue("movie_id"), watched)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Movie marked as watched"
	if !watched {
		message = "Movie marked as unwatched"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"watched": watched,
	})
}
