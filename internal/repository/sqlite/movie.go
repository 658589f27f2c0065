package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"watchlist/internal/apperror"
	"watchlist/internal/model"
	"watchlist/internal/repository"
)

// compile-time check that *DB implements repository.MovieRepository
var _ repository.MovieRepository = (*DB)(nil)

// EnsureCatalogued returns the catalog entry for movie.TMDBID, inserting it
// first if absent. The supplied attributes are only used on insert — a hit
// keeps whatever the catalog already has.
//
// Two requests can race on the same first-add. The insert uses
// ON CONFLICT(tmdb_id) DO NOTHING, so the loser's insert affects zero rows
// and falls through to the lookup, landing on the winner's row.
func (db *DB) EnsureCatalogued(ctx context.Context, movie *model.Movie) (bool, error) {
	if found, err := db.getMovieByTMDBID(ctx, movie); err != nil {
		return false, err
	} else if found {
		return false, nil
	}

	id := xid.New().String()
	now := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO movies (id, tmdb_id, title, overview, poster_path, release_date, runtime, tagline, vote_average, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tmdb_id) DO NOTHING`,
		id,
		movie.TMDBID,
		movie.Title,
		movie.Overview,
		movie.PosterPath,
		movie.ReleaseDate,
		movie.Runtime,
		movie.Tagline,
		movie.VoteAverage,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting movie (tmdbID=%d): %w", movie.TMDBID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Lost the race — someone catalogued it between our lookup and
		// insert. Their row is the canonical one.
		if found, err := db.getMovieByTMDBID(ctx, movie); err != nil {
			return false, err
		} else if !found {
			return false, fmt.Errorf("sqlite: movie (tmdbID=%d) vanished after conflict", movie.TMDBID)
		}
		return false, nil
	}

	movie.ID = id
	movie.CreatedAt = now
	return true, nil
}

// getMovieByTMDBID loads the catalog row for movie.TMDBID into movie.
// Returns false (and no error) if no row exists.
func (db *DB) getMovieByTMDBID(ctx context.Context, movie *model.Movie) (bool, error) {
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, tmdb_id, title, overview, poster_path, release_date, runtime, tagline, vote_average, created_at
		 FROM movies WHERE tmdb_id = ?`,
		movie.TMDBID,
	).Scan(
		&movie.ID,
		&movie.TMDBID,
		&movie.Title,
		&movie.Overview,
		&movie.PosterPath,
		&movie.ReleaseDate,
		&movie.Runtime,
		&movie.Tagline,
		&movie.VoteAverage,
		&movie.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: getting movie by tmdb_id %d: %w", movie.TMDBID, err)
	}
	return true, nil
}

// Link adds a movie to a watchlist. The composite primary key makes the
// insert idempotent: an existing membership affects zero rows and Link
// reports created=false instead of an error.
func (db *DB) Link(ctx context.Context, watchlistID, movieID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO watchlist_movies (watchlist_id, movie_id, watched, added_at)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT(watchlist_id, movie_id) DO NOTHING`,
		watchlistID, movieID, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: linking movie %s to watchlist %s: %w", movieID, watchlistID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Unlink removes a membership. Returns apperror.ErrNotFound if the pair
// was never linked.
func (db *DB) Unlink(ctx context.Context, watchlistID, movieID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM watchlist_movies WHERE watchlist_id = ? AND movie_id = ?`,
		watchlistID, movieID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unlinking movie %s from watchlist %s: %w", movieID, watchlistID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("movie", movieID)
	}

	return nil
}

// entryOrder maps each sort key to a fixed ORDER BY clause. The map is the
// whole set of allowed orderings — sort keys never reach the SQL as text.
var entryOrder = map[repository.EntrySort]string{
	repository.SortAdded:       "wm.added_at",
	repository.SortTitle:       "m.title COLLATE NOCASE",
	repository.SortReleaseDate: "m.release_date",
	repository.SortRuntime:     "m.runtime",
	repository.SortRating:      "m.vote_average DESC",
}

// ListByWatchlist returns the movies in a watchlist with their watched
// flags. sort selects one of the fixed orderings; SortAdded (insertion
// order) is the fallback.
func (db *DB) ListByWatchlist(ctx context.Context, watchlistID string, sort repository.EntrySort) ([]model.WatchlistEntry, error) {
	order, ok := entryOrder[sort]
	if !ok {
		order = entryOrder[repository.SortAdded]
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.tmdb_id, m.title, m.overview, m.poster_path, m.release_date,
		        m.runtime, m.tagline, m.vote_average, m.created_at, wm.watched, wm.added_at
		 FROM watchlist_movies wm
		 JOIN movies m ON m.id = wm.movie_id
		 WHERE wm.watchlist_id = ?
		 ORDER BY `+order,
		watchlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing movies in watchlist %s: %w", watchlistID, err)
	}
	defer rows.Close()

	entries := []model.WatchlistEntry{}
	for rows.Next() {
		var e model.WatchlistEntry
		if err := rows.Scan(
			&e.ID, &e.TMDBID, &e.Title, &e.Overview, &e.PosterPath, &e.ReleaseDate,
			&e.Runtime, &e.Tagline, &e.VoteAverage, &e.CreatedAt, &e.Watched, &e.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating watchlist entries: %w", err)
	}

	return entries, nil
}

// SetWatched sets the watched flag on an existing membership. Setting the
// flag to its current value still counts as updated — the postcondition
// holds either way.
func (db *DB) SetWatched(ctx context.Context, watchlistID, movieID string, watched bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE watchlist_movies SET watched = ?
		 WHERE watchlist_id = ? AND movie_id = ?`,
		watched, watchlistID, movieID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting watched on movie %s in watchlist %s: %w", movieID, watchlistID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("movie", movieID)
	}

	return nil
}
