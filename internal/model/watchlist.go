package model

import "time"

// Watchlist is a named collection of movies owned by exactly one user.
//
// UserID is set at creation time and never changes. Deleting the owning user
// cascades to their watchlists (and transitively to the membership rows).
type Watchlist struct {
	ID        string    `json:"watchlist_id" db:"id"`
	UserID    string    `json:"user_id"      db:"user_id"`
	Name      string    `json:"name"         db:"name"`
	Notes     string    `json:"notes"        db:"notes"`
	CreatedAt time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt time.Time `json:"updated_at"   db:"updated_at"`
}
