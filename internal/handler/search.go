package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"watchlist/internal/tmdb"
)

// MovieSearcher is what the search handler needs from the TMDB client.
// Declared here so tests can substitute a mock.
type MovieSearcher interface {
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.SearchResponse, error)
}

// SearchHandler proxies movie search to the metadata provider. Keeping the
// provider call server-side keeps the API key out of the mobile client.
type SearchHandler struct {
	searcher MovieSearcher
	logger   *slog.Logger
}

// NewSearchHandler creates a SearchHandler. searcher may be nil when no
// TMDB API key is configured; the endpoint then reports the feature as
// unavailable.
func NewSearchHandler(searcher MovieSearcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// HandleSearch searches the movie metadata provider.
//
// HTTP: GET /movies/search?query=dune&page=1 (bearer)
// 502 when the provider is unreachable or rejects the request.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}

	if h.searcher == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "movie search is not configured",
		})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "query parameter is required",
		})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := h.searcher.SearchMovies(r.Context(), query, page)
	if err != nil {
		h.logger.Error("movie search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_error",
			Message: "movie metadata provider is unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
