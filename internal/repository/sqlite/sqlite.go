// Package sqlite implements the repository interfaces using SQLite as the
// storage backend (modernc.org/sqlite — pure Go, no CGo).
//
// All cross-request coordination happens here, in the schema: the tmdb_id
// UNIQUE constraint deduplicates the movie catalog, the composite primary
// key on watchlist_movies deduplicates memberships, and ON DELETE CASCADE
// keeps deletes consistent. The application layer never takes a lock.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// The server owns it: created at startup, closed on shutdown.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite connection pool and runs migrations.
//
// dbPath examples:
//   - "data/watchlist.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	// Both pragmas are per-connection in SQLite, and database/sql is a
	// connection pool — an Exec would configure only whichever connection
	// it happened to check out. Putting them in the DSN makes the driver
	// apply them to every connection the pool opens.
	//
	// WAL allows concurrent reads while a write is in flight. foreign_keys
	// ships OFF in SQLite; the cascade deletes
	// (users → watchlists → watchlist_movies) depend on it being ON.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each pool connection to ":memory:" would be its own empty
		// database. One connection keeps it a single database.
		conn.SetMaxOpenConns(1)
	}

	// Fail fast on a bad path or permissions instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS movies (
			id           TEXT PRIMARY KEY,
			tmdb_id      INTEGER NOT NULL UNIQUE,
			title        TEXT NOT NULL,
			overview     TEXT NOT NULL DEFAULT '',
			poster_path  TEXT NOT NULL DEFAULT '',
			release_date TEXT NOT NULL DEFAULT '',
			runtime      INTEGER NOT NULL DEFAULT 0,
			tagline      TEXT NOT NULL DEFAULT '',
			vote_average REAL NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS watchlists (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			notes      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_watchlists_user_id ON watchlists(user_id);

		CREATE TABLE IF NOT EXISTS watchlist_movies (
			watchlist_id TEXT NOT NULL REFERENCES watchlists(id) ON DELETE CASCADE,
			movie_id     TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			watched      BOOLEAN NOT NULL DEFAULT 0,
			added_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (watchlist_id, movie_id)
		);
		CREATE INDEX IF NOT EXISTS idx_watchlist_movies_movie_id ON watchlist_movies(movie_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure on the given column ("table.column"). modernc.org/sqlite exposes
// constraint failures only through the error text.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
