package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist/internal/config"
	"watchlist/internal/server"
)

const (
	testJWTSecret  = "integration-test-secret-key"
	testAdminToken = "admin-test-token"
	testPassword   = "Str0ng!Pass"
)

// newTestServer boots the full stack against an in-memory database. Each
// test gets its own server and its own database.
func newTestServer(t *testing.T, adminToken string) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Port:          0,
		DBPath:        ":memory:",
		JWTSecret:     testJWTSecret,
		TokenTTLHours: 24,
		AdminToken:    adminToken,
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	srv, err := server.New(cfg, logger)
	require.NoError(t, err, "failed to start test server")
	t.Cleanup(func() { srv.Close() })

	return srv.Router()
}

// doJSON performs a request with an optional bearer token and JSON body and
// decodes the JSON response into a generic map.
func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && json.Unmarshal(rec.Body.Bytes(), &decoded) != nil {
		decoded = nil // non-JSON body (e.g. /hello)
	}
	return rec.Code, decoded
}

func registerAndLogin(t *testing.T, h http.Handler, username string) (userID, token string) {
	t.Helper()

	creds := map[string]string{"username": username, "password": testPassword}
	status, body := doJSON(t, h, http.MethodPost, "/users", "", creds)
	require.Equal(t, http.StatusCreated, status, "register failed: %v", body)
	userID = body["user_id"].(string)

	status, body = doJSON(t, h, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, status, "login failed: %v", body)
	token = body["token"].(string)
	require.NotEmpty(t, token)

	return userID, token
}

func TestRegisterLoginFlow(t *testing.T) {
	h := newTestServer(t, "")

	// Weak password is rejected server-side.
	status, body := doJSON(t, h, http.MethodPost, "/users", "",
		map[string]string{"username": "alice", "password": "weakpass"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["error"])

	// An over-length password is a 400 too, not a server fault.
	status, body = doJSON(t, h, http.MethodPost, "/users", "",
		map[string]string{"username": "alice", "password": strings.Repeat("Aa1!", 21)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["error"])

	status, body = doJSON(t, h, http.MethodPost, "/users", "",
		map[string]string{"username": "alice", "password": testPassword})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "alice", body["username"])
	assert.NotEmpty(t, body["user_id"])
	assert.NotContains(t, body, "password_hash")

	// Duplicate username.
	status, body = doJSON(t, h, http.MethodPost, "/users", "",
		map[string]string{"username": "alice", "password": testPassword})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["error"])

	// Wrong password and unknown username produce the same response.
	status, wrongPass := doJSON(t, h, http.MethodPost, "/login", "",
		map[string]string{"username": "alice", "password": "Wr0ng!Pass"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, unknown := doJSON(t, h, http.MethodPost, "/login", "",
		map[string]string{"username": "mallory", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, wrongPass["message"], unknown["message"])

	status, body = doJSON(t, h, http.MethodPost, "/login", "",
		map[string]string{"username": "alice", "password": testPassword})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	// The token works on /me.
	token := body["token"].(string)
	status, body = doJSON(t, h, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
}

func TestAuthEnforcement(t *testing.T) {
	h := newTestServer(t, "")

	// Missing token: 401. Garbage token: 403.
	status, body := doJSON(t, h, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "auth_error", body["error"])

	status, body = doJSON(t, h, http.MethodGet, "/me", "not-a-real-token", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "auth_error", body["error"])

	status, _ = doJSON(t, h, http.MethodPost, "/watchlists", "",
		map[string]string{"name": "Sci-Fi"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = doJSON(t, h, http.MethodDelete, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "auth_error", body["error"])
}

func TestWatchlistLifecycle(t *testing.T) {
	h := newTestServer(t, "")
	_, token := registerAndLogin(t, h, "alice")

	status, body := doJSON(t, h, http.MethodPost, "/watchlists", token,
		map[string]string{"name": "Sci-Fi", "notes": "space stuff"})
	require.Equal(t, http.StatusCreated, status)
	wlID := body["watchlist_id"].(string)
	assert.Equal(t, "Sci-Fi", body["name"])

	// Blank name is rejected.
	status, _ = doJSON(t, h, http.MethodPost, "/watchlists", token,
		map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, h, http.MethodPut, "/watchlists/"+wlID, token,
		map[string]string{"name": "Space Operas"})
	assert.Equal(t, http.StatusOK, status)

	// Empty update body.
	status, _ = doJSON(t, h, http.MethodPut, "/watchlists/"+wlID, token,
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, h, http.MethodDelete, "/watchlists/"+wlID, token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Watchlist deleted successfully", body["message"])

	// Gone means denied, same as never-existed.
	status, _ = doJSON(t, h, http.MethodGet, "/watchlists/"+wlID+"/movies", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

// A caller can never tell another user's watchlist from a missing one.
func TestOwnershipDenial(t *testing.T) {
	h := newTestServer(t, "")
	_, aliceToken := registerAndLogin(t, h, "alice")
	_, bobToken := registerAndLogin(t, h, "bob")

	status, body := doJSON(t, h, http.MethodPost, "/watchlists", aliceToken,
		map[string]string{"name": "Sci-Fi"})
	require.Equal(t, http.StatusCreated, status)
	wlID := body["watchlist_id"].(string)

	status, foreign := doJSON(t, h, http.MethodGet, "/watchlists/"+wlID+"/movies", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, missing := doJSON(t, h, http.MethodGet, "/watchlists/nonexistent/movies", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	assert.Equal(t, foreign["message"], missing["message"])

	// Bob's own listing never shows alice's watchlist.
	req := httptest.NewRequest(http.MethodGet, "/watchlists/me", nil)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var lists []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lists))
	assert.Empty(t, lists)
}

func TestMovieLifecycle(t *testing.T) {
	h := newTestServer(t, "")
	_, token := registerAndLogin(t, h, "alice")

	status, body := doJSON(t, h, http.MethodPost, "/watchlists", token,
		map[string]string{"name": "Sci-Fi"})
	require.Equal(t, http.StatusCreated, status)
	wlID := body["watchlist_id"].(string)

	dune := map[string]any{
		"tmdb_id": 42, "title": "Dune", "runtime": 155, "vote_average": 7.8,
	}
	status, body = doJSON(t, h, http.MethodPost, "/watchlists/"+wlID+"/movies", token, dune)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Movie added to watchlist", body["message"])
	movieID := body["movie_id"].(string)
	require.NotEmpty(t, movieID)

	// Adding the same movie again conflicts.
	status, body = doJSON(t, h, http.MethodPost, "/watchlists/"+wlID+"/movies", token, dune)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Movie already in watchlist", body["message"])

	// Missing tmdb_id is a validation error.
	status, _ = doJSON(t, h, http.MethodPost, "/watchlists/"+wlID+"/movies", token,
		map[string]any{"title": "No ID"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, h, http.MethodPatch,
		"/watchlists/"+wlID+"/movies/"+movieID+"/watched", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["watched"])

	// The listing reflects the watched flag.
	req := httptest.NewRequest(http.MethodGet, "/watchlists/"+wlID+"/movies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Dune", entries[0]["title"])
	assert.Equal(t, true, entries[0]["watched"])

	status, body = doJSON(t, h, http.MethodPatch,
		"/watchlists/"+wlID+"/movies/"+movieID+"/unwatched", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["watched"])

	status, _ = doJSON(t, h, http.MethodDelete,
		"/watchlists/"+wlID+"/movies/"+movieID, token, nil)
	assert.Equal(t, http.StatusOK, status)

	// Removing again is a 404.
	status, body = doJSON(t, h, http.MethodDelete,
		"/watchlists/"+wlID+"/movies/"+movieID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])
}

func TestAdminSurface(t *testing.T) {
	h := newTestServer(t, testAdminToken)
	userID, _ := registerAndLogin(t, h, "alice")

	// No header, wrong header: denied.
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("X-Admin-Token", "wrong-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0]["username"])

	req = httptest.NewRequest(http.MethodDelete, "/admin/users/"+userID, nil)
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// With no admin token configured the admin routes don't exist.
func TestAdminSurface_Unconfigured(t *testing.T) {
	h := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("X-Admin-Token", "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteOwnAccount(t *testing.T) {
	h := newTestServer(t, "")
	_, token := registerAndLogin(t, h, "alice")

	status, body := doJSON(t, h, http.MethodPost, "/watchlists", token,
		map[string]string{"name": "Sci-Fi"})
	require.Equal(t, http.StatusCreated, status)
	wlID := body["watchlist_id"].(string)

	status, _ = doJSON(t, h, http.MethodDelete, "/users", token, nil)
	assert.Equal(t, http.StatusOK, status)

	// The token still parses but the account is gone.
	status, _ = doJSON(t, h, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = doJSON(t, h, http.MethodGet, "/watchlists/"+wlID+"/movies", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHello(t *testing.T) {
	h := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello from backend", rec.Body.String())
}
