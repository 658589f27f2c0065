package model

import "time"

// Movie is an entry in the shared movie catalog.
//
// The catalog is deduplicated on TMDBID — the identifier assigned by the
// external metadata provider. The first user to add a movie creates the row;
// everyone after that links to the same row. Catalog entries are never
// deleted by the application, so a movie may outlive every membership that
// referenced it.
//
// Title is the only required attribute besides TMDBID. The rest mirror what
// the TMDB API returns and may be empty/zero.
type Movie struct {
	ID          string    `json:"movie_id"     db:"id"`
	TMDBID      int64     `json:"tmdb_id"      db:"tmdb_id"`
	Title       string    `json:"title"        db:"title"`
	Overview    string    `json:"overview"     db:"overview"`
	PosterPath  string    `json:"poster_path"  db:"poster_path"`
	ReleaseDate string    `json:"release_date" db:"release_date"` // "YYYY-MM-DD", may be empty
	Runtime     int       `json:"runtime"      db:"runtime"`      // minutes
	Tagline     string    `json:"tagline"      db:"tagline"`
	VoteAverage float64   `json:"vote_average" db:"vote_average"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// WatchlistEntry is a movie as seen from inside one watchlist: the catalog
// attributes plus the per-membership watched flag.
type WatchlistEntry struct {
	Movie
	Watched bool      `json:"watched"  db:"watched"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}
