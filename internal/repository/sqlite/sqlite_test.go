package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"watchlist/internal/model"
)

// newTestDB creates a fresh in-memory database per test. ":memory:" lives
// only for the lifetime of the connection, so tests are fully isolated.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// The pragmas ride in the DSN, so every connection the pool opens gets
// them. This test uses a file-backed database and drops the idle connection
// before the delete, forcing the cascade to run on a brand-new pool
// connection — the one place an Exec-applied foreign_keys pragma would not
// reach.
func TestCascadeOnFreshPoolConnection(t *testing.T) {
	ctx := context.Background()

	db, err := New(filepath.Join(t.TempDir(), "watchlist.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user := createTestUser(t, db, "alice")
	wl := createTestWatchlist(t, db, user.ID, "Sci-Fi")
	movie := catalogTestMovie(t, db, 42, "Dune")
	if _, err := db.Link(ctx, wl.ID, movie.ID); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	// Close the pool's idle connections; the next statement opens a fresh one.
	db.conn.SetMaxIdleConns(0)
	db.conn.SetMaxIdleConns(2)

	var fk int
	if err := db.conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d on a fresh pool connection, want 1", fk)
	}

	if err := db.DeleteWatchlist(ctx, wl.ID); err != nil {
		t.Fatalf("DeleteWatchlist failed: %v", err)
	}

	var orphans int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlist_movies WHERE watchlist_id = ?`, wl.ID,
	).Scan(&orphans)
	if err != nil {
		t.Fatalf("counting membership rows: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected cascade to remove membership rows, %d remain", orphans)
	}
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "$2a$04$fakehash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestWatchlist(t *testing.T, db *DB, userID, name string) *model.Watchlist {
	t.Helper()
	wl := &model.Watchlist{UserID: userID, Name: name}
	if err := db.CreateWatchlist(context.Background(), wl); err != nil {
		t.Fatalf("failed to create test watchlist: %v", err)
	}
	return wl
}

func catalogTestMovie(t *testing.T, db *DB, tmdbID int64, title string) *model.Movie {
	t.Helper()
	movie := &model.Movie{TMDBID: tmdbID, Title: title}
	if _, err := db.EnsureCatalogued(context.Background(), movie); err != nil {
		t.Fatalf("failed to catalogue test movie: %v", err)
	}
	return movie
}
