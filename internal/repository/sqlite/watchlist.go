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

// compile-time check that *DB implements repository.WatchlistRepository
var _ repository.WatchlistRepository = (*DB)(nil)

// CreateWatchlist inserts a new watchlist owned by wl.UserID.
func (db *DB) CreateWatchlist(ctx context.Context, wl *model.Watchlist) error {
	wl.ID = xid.New().String()
	now := time.Now()
	wl.CreatedAt = now
	wl.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO watchlists (id, user_id, name, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		wl.ID,
		wl.UserID,
		wl.Name,
		wl.Notes,
		wl.CreatedAt,
		wl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting watchlist: %w", err)
	}

	return nil
}

// GetWatchlistByID retrieves a single watchlist.
func (db *DB) GetWatchlistByID(ctx context.Context, id string) (*model.Watchlist, error) {
	var wl model.Watchlist

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, notes, created_at, updated_at
		 FROM watchlists WHERE id = ?`,
		id,
	).Scan(&wl.ID, &wl.UserID, &wl.Name, &wl.Notes, &wl.CreatedAt, &wl.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("watchlist", id)
		}
		return nil, fmt.Errorf("sqlite: getting watchlist %s: %w", id, err)
	}

	return &wl, nil
}

// OwnedBy reports whether a watchlist with this id exists and belongs to
// userID. This is the ownership predicate behind every watchlist-scoped
// operation — a missing watchlist and someone else's watchlist are both
// simply "false".
func (db *DB) OwnedBy(ctx context.Context, id, userID string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM watchlists WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking watchlist ownership %s: %w", id, err)
	}
	return true, nil
}

// ListByOwner returns all watchlists owned by userID.
func (db *DB) ListByOwner(ctx context.Context, userID string) ([]model.Watchlist, error) {
	return db.listWatchlists(ctx,
		`SELECT id, user_id, name, notes, created_at, updated_at
		 FROM watchlists WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
}

// ListAll returns every watchlist. Admin surface only.
func (db *DB) ListAll(ctx context.Context) ([]model.Watchlist, error) {
	return db.listWatchlists(ctx,
		`SELECT id, user_id, name, notes, created_at, updated_at
		 FROM watchlists ORDER BY created_at DESC`,
	)
}

func (db *DB) listWatchlists(ctx context.Context, query string, args ...any) ([]model.Watchlist, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing watchlists: %w", err)
	}
	defer rows.Close()

	var lists []model.Watchlist
	for rows.Next() {
		var wl model.Watchlist
		if err := rows.Scan(&wl.ID, &wl.UserID, &wl.Name, &wl.Notes, &wl.CreatedAt, &wl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning watchlist row: %w", err)
		}
		lists = append(lists, wl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating watchlists: %w", err)
	}

	return lists, nil
}

// UpdateWatchlist applies a partial update. Each field gets its own fixed,
// parameterized statement — no query construction from client input.
func (db *DB) UpdateWatchlist(ctx context.Context, id string, upd repository.WatchlistUpdate) (*model.Watchlist, error) {
	now := time.Now()

	if upd.Name != nil {
		if err := db.updateField(ctx, id, `UPDATE watchlists SET name = ?, updated_at = ? WHERE id = ?`, *upd.Name, now); err != nil {
			return nil, err
		}
	}
	if upd.Notes != nil {
		if err := db.updateField(ctx, id, `UPDATE watchlists SET notes = ?, updated_at = ? WHERE id = ?`, *upd.Notes, now); err != nil {
			return nil, err
		}
	}

	return db.GetWatchlistByID(ctx, id)
}

func (db *DB) updateField(ctx context.Context, id, query string, value any, now time.Time) error {
	result, err := db.conn.ExecContext(ctx, query, value, now, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating watchlist %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("watchlist", id)
	}
	return nil
}

// DeleteWatchlist removes a watchlist. Membership rows cascade; catalog movies are
// untouched.
func (db *DB) DeleteWatchlist(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM watchlists WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting watchlist %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("watchlist", id)
	}

	return nil
}
