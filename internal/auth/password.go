// Package auth — password hashing and strength policy.
//
// bcrypt generates a random salt per hash and embeds it in the output, so
// the stored string is self-contained — no separate salt column. Cost 12
// takes roughly 250ms on a modern server: negligible for a login, expensive
// for an attacker brute-forcing a dump.
package auth

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for new hashes.
const defaultCost = 12

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// MaxPasswordLength is the maximum accepted password length in bytes.
// bcrypt only reads the first 72 bytes of its input, so anything longer
// would be silently truncated; we reject it up front instead.
const MaxPasswordLength = 72

// ErrPasswordTooLong is returned by CheckStrength and Hash when a password
// exceeds MaxPasswordLength.
var ErrPasswordTooLong = fmt.Errorf(
	"password must be %d bytes or fewer", MaxPasswordLength)

// ErrWeakPassword is returned by CheckStrength when a password fails the
// policy. The message spells the policy out so clients can show it verbatim.
var ErrWeakPassword = errors.New(
	"password must be at least 8 characters and contain an uppercase letter, " +
		"a lowercase letter, a digit, and a special character")

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be lowered in tests —
// cost 4 makes each hash microseconds instead of a quarter second.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Do not use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// CheckStrength enforces the server-side password policy: 8 to 72 bytes
// with at least one uppercase letter, one lowercase letter, one digit, and
// one special character. This is the authoritative gate — any client-side
// check is advisory UX only.
func (p *PasswordService) CheckStrength(plaintext string) error {
	if len(plaintext) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(plaintext) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	var upper, lower, digit, special bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

// Hash hashes the given plaintext password with bcrypt. CheckStrength
// rejects over-length passwords before they get here; the guard stays so a
// caller skipping the policy still cannot store a truncated hash.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
