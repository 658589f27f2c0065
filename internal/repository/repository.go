// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation.
package repository

import (
	"context"

	"watchlist/internal/model"
)

// WatchlistUpdate carries a partial update for a watchlist. Nil fields are
// left untouched. Representing the update as an explicit optional-field
// struct (instead of building SQL from whatever the client sent) keeps the
// queries fixed and parameterized.
type WatchlistUpdate struct {
	Name  *string
	Notes *string
}

// IsEmpty reports whether the update changes nothing.
func (u WatchlistUpdate) IsEmpty() bool {
	return u.Name == nil && u.Notes == nil
}

// EntrySort names an explicit ordering for watchlist entries. SortAdded
// (insertion order) is the default; everything else is an opt-in read-side
// concern.
type EntrySort string

const (
	SortAdded       EntrySort = "added"
	SortTitle       EntrySort = "title"
	SortReleaseDate EntrySort = "release_date"
	SortRuntime     EntrySort = "runtime"
	SortRating      EntrySort = "rating"
)

// Valid reports whether s is one of the supported sort keys.
func (s EntrySort) Valid() bool {
	switch s {
	case SortAdded, SortTitle, SortReleaseDate, SortRuntime, SortRating:
		return true
	}
	return false
}

type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict if the
	// username is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// DeleteUser removes a user; owned watchlists and their memberships cascade.
	DeleteUser(ctx context.Context, id string) error
}

type WatchlistRepository interface {
	CreateWatchlist(ctx context.Context, wl *model.Watchlist) error
	GetWatchlistByID(ctx context.Context, id string) (*model.Watchlist, error)
	ListByOwner(ctx context.Context, userID string) ([]model.Watchlist, error)
	ListAll(ctx context.Context) ([]model.Watchlist, error)
	UpdateWatchlist(ctx context.Context, id string, upd WatchlistUpdate) (*model.Watchlist, error)
	// DeleteWatchlist removes a watchlist; membership rows cascade,
	// catalog movies are left alone.
	DeleteWatchlist(ctx context.Context, id string) error
	// OwnedBy reports whether a watchlist with this id exists AND belongs
	// to userID. A missing watchlist and a foreign watchlist are the same
	// answer: false.
	OwnedBy(ctx context.Context, id, userID string) (bool, error)
}

type MovieRepository interface {
	// EnsureCatalogued looks up a catalog entry by movie.TMDBID, inserting
	// it if absent. On a hit the supplied attributes are ignored — stale
	// metadata is tolerated, not refreshed. movie is updated in place with
	// the canonical row. Returns true if a new row was inserted.
	//
	// Safe under concurrent first-adds of the same TMDB id: the tmdb_id
	// UNIQUE constraint resolves the race and the loser falls back to the
	// winner's row.
	EnsureCatalogued(ctx context.Context, movie *model.Movie) (created bool, err error)
	// Link adds a movie to a watchlist. Idempotent: returns false (and no
	// error) if the membership already exists.
	Link(ctx context.Context, watchlistID, movieID string) (created bool, err error)
	// Unlink removes a membership. Returns apperror.ErrNotFound if the
	// pair was not linked.
	Unlink(ctx context.Context, watchlistID, movieID string) error
	// ListByWatchlist joins memberships to catalog movies.
	ListByWatchlist(ctx context.Context, watchlistID string, sort EntrySort) ([]model.WatchlistEntry, error)
	// SetWatched sets the watched flag for an existing membership.
	// Returns apperror.ErrNotFound if the pair is not linked.
	SetWatched(ctx context.Context, watchlistID, movieID string, watched bool) error
}
