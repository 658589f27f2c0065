package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"watchlist/internal/apperror"
	"watchlist/internal/model"
	"watchlist/internal/repository"
)

// In-memory fakes for the repository interfaces. They mirror the semantics
// the sqlite layer provides (conflict on duplicate username, not-found on
// missing rows, idempotent link) so the services can be tested without a
// database.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("username already exists")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) ListUsers(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.users, id)
	return nil
}

type mockWatchlistRepo struct {
	lists  map[string]*model.Watchlist
	nextID int
}

var _ repository.WatchlistRepository = (*mockWatchlistRepo)(nil)

func newMockWatchlistRepo() *mockWatchlistRepo {
	return &mockWatchlistRepo{lists: make(map[string]*model.Watchlist)}
}

func (m *mockWatchlistRepo) CreateWatchlist(_ context.Context, wl *model.Watchlist) error {
	m.nextID++
	wl.ID = fmt.Sprintf("wl-%d", m.nextID)
	m.lists[wl.ID] = wl
	return nil
}

func (m *mockWatchlistRepo) GetWatchlistByID(_ context.Context, id string) (*model.Watchlist, error) {
	wl, ok := m.lists[id]
	if !ok {
		return nil, apperror.NotFound("watchlist", id)
	}
	return wl, nil
}

func (m *mockWatchlistRepo) ListByOwner(_ context.Context, userID string) ([]model.Watchlist, error) {
	var out []model.Watchlist
	for _, wl := range m.lists {
		if wl.UserID == userID {
			out = append(out, *wl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockWatchlistRepo) ListAll(_ context.Context) ([]model.Watchlist, error) {
	out := make([]model.Watchlist, 0, len(m.lists))
	for _, wl := range m.lists {
		out = append(out, *wl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockWatchlistRepo) UpdateWatchlist(_ context.Context, id string, upd repository.WatchlistUpdate) (*model.Watchlist, error) {
	wl, ok := m.lists[id]
	if !ok {
		return nil, apperror.NotFound("watchlist", id)
	}
	if upd.Name != nil {
		wl.Name = *upd.Name
	}
	if upd.Notes != nil {
		wl.Notes = *upd.Notes
	}
	return wl, nil
}

func (m *mockWatchlistRepo) DeleteWatchlist(_ context.Context, id string) error {
	if _, ok := m.lists[id]; !ok {
		return apperror.NotFound("watchlist", id)
	}
	delete(m.lists, id)
	return nil
}

func (m *mockWatchlistRepo) OwnedBy(_ context.Context, id, userID string) (bool, error) {
	wl, ok := m.lists[id]
	return ok && wl.UserID == userID, nil
}

type membership struct {
	watchlistID string
	movieID     string
	watched     bool
}

type mockMovieRepo struct {
	catalog map[int64]*model.Movie // keyed by tmdb id
	links   []membership
	nextID  int
}

var _ repository.MovieRepository = (*mockMovieRepo)(nil)

func newMockMovieRepo() *mockMovieRepo {
	return &mockMovieRepo{catalog: make(map[int64]*model.Movie)}
}

func (m *mockMovieRepo) EnsureCatalogued(_ context.Context, movie *model.Movie) (bool, error) {
	if existing, ok := m.catalog[movie.TMDBID]; ok {
		*movie = *existing
		return false, nil
	}
	m.nextID++
	movie.ID = fmt.Sprintf("movie-%d", m.nextID)
	clone := *movie
	m.catalog[movie.TMDBID] = &clone
	return true, nil
}

func (m *mockMovieRepo) Link(_ context.Context, watchlistID, movieID string) (bool, error) {
	for _, l := range m.links {
		if l.watchlistID == watchlistID && l.movieID == movieID {
			return false, nil
		}
	}
	m.links = append(m.links, membership{watchlistID: watchlistID, movieID: movieID})
	return true, nil
}

func (m *mockMovieRepo) Unlink(_ context.Context, watchlistID, movieID string) error {
	for i, l := range m.links {
		if l.watchlistID == watchlistID && l.movieID == movieID {
			m.links = append(m.links[:i], m.links[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("movie", movieID)
}

func (m *mockMovieRepo) ListByWatchlist(_ context.Context, watchlistID string, _ repository.EntrySort) ([]model.WatchlistEntry, error) {
	entries := []model.WatchlistEntry{}
	for _, l := range m.links {
		if l.watchlistID != watchlistID {
			continue
		}
		for _, mv := range m.catalog {
			if mv.ID == l.movieID {
				entries = append(entries, model.WatchlistEntry{Movie: *mv, Watched: l.watched})
			}
		}
	}
	return entries, nil
}

func (m *mockMovieRepo) SetWatched(_ context.Context, watchlistID, movieID string, watched bool) error {
	for i, l := range m.links {
		if l.watchlistID == watchlistID && l.movieID == movieID {
			m.links[i].watched = watched
			return nil
		}
	}
	return apperror.NotFound("movie", movieID)
}
