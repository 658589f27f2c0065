// Package service contains the business logic layer.
//
// Handlers parse HTTP and write responses; services enforce the rules
// (validation, password policy, ownership); repositories talk to SQLite.
// Services return apperror values, never HTTP status codes — the handler
// layer owns that translation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"watchlist/internal/apperror"
	"watchlist/internal/auth"
	"watchlist/internal/model"
	"watchlist/internal/repository"
)

// AuthService handles registration, login, and token resolution.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT, so the login
// handler can build its response in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// The password policy is enforced here, server-side, before anything is
// stored — clients may pre-check for UX but this is the authoritative gate.
// Returns apperror.ErrConflict if the username is taken and
// apperror.ErrValidation for missing fields or a weak password.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if err := s.passwords.CheckStrength(password); err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Duplicate usernames are a client error, not a server fault —
		// let the apperror through without logging it as a failure.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies the credentials and issues a session token.
//
// Unknown username and wrong password produce the same error, so a caller
// cannot enumerate which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("", "username and password are required")
	}

	invalid := apperror.Unauthorized("invalid username or password")

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up user %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, invalid
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by /me after
// the middleware resolves the token to a user ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser removes an account and, via the schema cascades, all of its
// watchlists and memberships.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}

// ListUsers returns every account. Admin surface only — the handler guards
// access.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}
