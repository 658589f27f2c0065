// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt hash of the user's password. The json:"-"
// tag keeps it out of every API response — only the repository and the auth
// service ever see it.
type User struct {
	ID           string    `json:"user_id"    db:"id"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
