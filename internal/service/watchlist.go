package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"watchlist/internal/apperror"
	"watchlist/internal/model"
	"watchlist/internal/repository"
)

const MaxWatchlistNameLength = 100

// WatchlistService owns the watchlist registry and the membership ledger.
//
// Every watchlist-scoped operation goes through authorize() first: one
// predicate, applied uniformly, instead of an ownership query pasted into
// each method.
type WatchlistService struct {
	watchlists repository.WatchlistRepository
	movies     repository.MovieRepository
	logger     *slog.Logger
}

// NewWatchlistService creates a WatchlistService.
func NewWatchlistService(
	watchlists repository.WatchlistRepository,
	movies repository.MovieRepository,
	logger *slog.Logger,
) *WatchlistService {
	return &WatchlistService{
		watchlists: watchlists,
		movies:     movies,
		logger:     logger,
	}
}

// authorize is the access-control gate. It passes only when the watchlist
// exists AND belongs to userID. The returned error carries one message for
// both failure modes, so a caller cannot tell "not yours" from "not there".
func (s *WatchlistService) authorize(ctx context.Context, watchlistID, userID string) error {
	if watchlistID == "" {
		return apperror.ValidationFailed("watchlist_id", "watchlist ID is required")
	}

	owned, err := s.watchlists.OwnedBy(ctx, watchlistID, userID)
	if err != nil {
		return fmt.Errorf("checking watchlist ownership: %w", err)
	}
	if !owned {
		return apperror.Forbidden("access denied or watchlist not found")
	}
	return nil
}

// Create makes a new watchlist owned by ownerID.
func (s *WatchlistService) Create(ctx context.Context, ownerID, name, notes string) (*model.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "watchlist name is required")
	}
	if len(name) > MaxWatchlistNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("watchlist name must be %d characters or less", MaxWatchlistNameLength))
	}

	wl := &model.Watchlist{
		UserID: ownerID,
		Name:   name,
		Notes:  strings.TrimSpace(notes),
	}
	if err := s.watchlists.CreateWatchlist(ctx, wl); err != nil {
		s.logger.Error("failed to create watchlist",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating watchlist: %w", err)
	}

	s.logger.Info("watchlist created",
		slog.String("id", wl.ID),
		slog.String("userID", ownerID),
	)

	return wl, nil
}

// Update applies a partial update (name and/or notes) to a watchlist the
// caller owns. At least one field must be supplied.
func (s *WatchlistService) Update(ctx context.Context, watchlistID, callerID string, upd repository.WatchlistUpdate) (*model.Watchlist, error) {
	if err := s.authorize(ctx, watchlistID, callerID); err != nil {
		return nil, err
	}

	if upd.IsEmpty() {
		return nil, apperror.ValidationFailed("", "nothing to update")
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "watchlist name cannot be empty")
		}
		if len(name) > MaxWatchlistNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("watchlist name must be %d characters or less", MaxWatchlistNameLength))
		}
		upd.Name = &name
	}

	wl, err := s.watchlists.UpdateWatchlist(ctx, watchlistID, upd)
	if err != nil {
		s.logger.Error("failed to update watchlist",
			slog.String("id", watchlistID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating watchlist: %w", err)
	}

	s.logger.Info("watchlist updated", slog.String("id", watchlistID))
	return wl, nil
}

// Delete removes a watchlist the caller owns. Memberships cascade; shared
// catalog movies stay.
func (s *WatchlistService) Delete(ctx context.Context, watchlistID, callerID string) error {
	if err := s.authorize(ctx, watchlistID, callerID); err != nil {
		return err
	}

	if err := s.watchlists.DeleteWatchlist(ctx, watchlistID); err != nil {
		return err
	}

	s.logger.Info("watchlist deleted",
		slog.String("id", watchlistID),
		slog.String("userID", callerID),
	)
	return nil
}

// ListByOwner returns the caller's watchlists.
func (s *WatchlistService) ListByOwner(ctx context.Context, ownerID string) ([]model.Watchlist, error) {
	lists, err := s.watchlists.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list watchlists",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing watchlists: %w", err)
	}
	return lists, nil
}

// ListAll returns every watchlist. Admin surface only — the handler guards
// access.
func (s *WatchlistService) ListAll(ctx context.Context) ([]model.Watchlist, error) {
	lists, err := s.watchlists.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list all watchlists", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing watchlists: %w", err)
	}
	return lists, nil
}

// AddMovie catalogues the movie (deduplicated on TMDB id) and links it to
// the watchlist.
//
// The two steps are independently atomic: cataloguing is idempotent on
// tmdb_id and linking is idempotent on the membership key, so a failure
// between them leaves nothing to clean up. Returns created=false when the
// movie was already in the watchlist.
func (s *WatchlistService) AddMovie(ctx context.Context, watchlistID, callerID string, movie *model.Movie) (created bool, err error) {
	if err := s.authorize(ctx, watchlistID, callerID); err != nil {
		return false, err
	}

	if movie.TMDBID <= 0 {
		return false, apperror.ValidationFailed("tmdb_id", "tmdb_id is required")
	}
	movie.Title = strings.TrimSpace(movie.Title)
	if movie.Title == "" {
		return false, apperror.ValidationFailed("title", "title is required")
	}

	catalogued, err := s.movies.EnsureCatalogued(ctx, movie)
	if err != nil {
		s.logger.Error("failed to catalogue movie",
			slog.Int64("tmdbID", movie.TMDBID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("cataloguing movie: %w", err)
	}
	if catalogued {
		s.logger.Info("movie catalogued",
			slog.String("movieID", movie.ID),
			slog.Int64("tmdbID", movie.TMDBID),
		)
	}

	linked, err := s.movies.Link(ctx, watchlistID, movie.ID)
	if err != nil {
		s.logger.Error("failed to link movie",
			slog.String("watchlistID", watchlistID),
			slog.String("movieID", movie.ID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("linking movie: %w", err)
	}

	if linked {
		s.logger.Info("movie added to watchlist",
			slog.String("watchlistID", watchlistID),
			slog.String("movieID", movie.ID),
		)
	}

	return linked, nil
}

// RemoveMovie unlinks a movie from the watchlist. The catalog entry stays,
// even if this was its last membership.
func (s *WatchlistService) RemoveMovie(ctx context.Context, watchlistID, callerID, movieID string) error {
	if err := s.authorize(ctx, watchlistID, callerID); err != nil {
		return err
	}
	if movieID == "" {
		return apperror.ValidationFailed("movie_id", "movie ID is required")
	}

	if err := s.movies.Unlink(ctx, watchlistID, movieID); err != nil {
		return err
	}

	s.logger.Info("movie removed from watchlist",
		slog.String("watchlistID", watchlistID),
		slog.String("movieID", movieID),
	)
	return nil
}

// ListMovies returns the movies in a watchlist the caller owns. An invalid
// sort key falls back to insertion order.
func (s *WatchlistService) ListMovies(ctx context.Context, watchlistID, callerID string, sort repository.EntrySort) ([]model.WatchlistEntry, error) {
	if err := s.authorize(ctx, watchlistID, callerID); err != nil {
		return nil, err
	}

	if !sort.Valid() {
		sort = repository.SortAdded
	}

	entries, err := s.movies.ListByWatchlist(ctx, watchlistID, sort)
	if err != nil {
		s.logger.Error("failed to list watchlist movies",
			slog.String("watchlistID", watchlistID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing watchlist movies: %w", err)
	}

	return entries, nil
}

// SetWatched flips the watched flag on a membership. Idempotent per
// direction — marking a watched movie watched again is still success.
func (s *WatchlistService) SetWatched(ctx context.Context, watchlistID, callerID, movieID string, watched bool) error {
	if err := s.authorize(ctx, watchlistID, callerID); err != nil {
		return err
	}
	if movieID == "" {
		return apperror.ValidationFailed("movie_id", "movie ID is required")
	}

	if err := s.movies.SetWatched(ctx, watchlistID, movieID, watched); err != nil {
		return err
	}

	s.logger.Info("watched flag set",
		slog.String("watchlistID", watchlistID),
		slog.String("movieID", movieID),
		slog.Bool("watched", watched),
	)
	return nil
}
