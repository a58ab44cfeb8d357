package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidylist/tidylist/internal/todo/domain"
	"github.com/tidylist/tidylist/internal/todo/store"
	"github.com/tidylist/tidylist/internal/todo/store/drivers/sqlite"
	"github.com/tidylist/tidylist/pkg/cryptox"
	"github.com/tidylist/tidylist/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tidylist-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newAuthService(t *testing.T, s store.Store) *AuthService {
	t.Helper()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  "tidylist-test",
		NumKeys: 1,
	})
	require.NoError(t, err)

	return &AuthService{
		Store:      s,
		KeyManager: km,
		Issuer:     "tidylist-test",
		AccessTTL:  time.Hour,
	}
}

func registerUser(t *testing.T, auth *AuthService, email string) domain.User {
	t.Helper()

	res, err := auth.Register(context.Background(), email, "Test User", "correct horse battery")
	require.NoError(t, err)
	return res.User
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := newAuthService(t, s)

	res, err := auth.Register(ctx, "Alice@Example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "alice@example.com", res.User.Email, "email should be normalised to lowercase")
	require.NotEmpty(t, res.User.ID)
	require.False(t, res.User.CreatedAt.IsZero())

	t.Run("login with normalised email", func(t *testing.T) {
		got, err := auth.Login(ctx, "ALICE@example.COM", "hunter2hunter2")
		require.NoError(t, err)
		require.Equal(t, res.User.ID, got.User.ID)
		require.NotEmpty(t, got.Token)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := auth.Login(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email indistinguishable from wrong password", func(t *testing.T) {
		_, err := auth.Login(ctx, "nobody@example.com", "hunter2hunter2")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := auth.Register(ctx, "alice@example.com", "Imposter", "hunter2hunter2")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("profile returns the account", func(t *testing.T) {
		user, err := auth.Profile(ctx, res.User.ID)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", user.Email)
	})
}

func TestTokenCarriesIdentity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := newAuthService(t, s)

	res, err := auth.Register(ctx, "bob@example.com", "Bob", "hunter2hunter2")
	require.NoError(t, err)

	claims, err := auth.KeyManager.Verifier.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.Subject)
	require.Equal(t, "bob@example.com", claims.Email)
	require.Equal(t, "Bob", claims.Name)
}

func TestTodoLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := newAuthService(t, s)
	todos := &TodoService{Store: s}

	owner := registerUser(t, auth, "owner@example.com")

	created, err := todos.Create(ctx, owner.ID, "  buy milk  ", "two litres", false)
	require.NoError(t, err)
	require.Equal(t, "buy milk", created.Title, "title should be trimmed")
	require.Equal(t, owner.ID, created.OwnerID)
	require.False(t, created.Completed)
	require.False(t, created.CreatedAt.IsZero())

	t.Run("get returns the row", func(t *testing.T) {
		got, err := todos.Get(ctx, created.ID, owner.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("partial update preserves other fields", func(t *testing.T) {
		completed := true
		got, err := todos.Update(ctx, created.ID, owner.ID, domain.TodoPatch{Completed: &completed})
		require.NoError(t, err)
		require.True(t, got.Completed)
		require.Equal(t, "buy milk", got.Title)
		require.Equal(t, "two litres", got.Description)
	})

	t.Run("empty patch returns the row unchanged", func(t *testing.T) {
		got, err := todos.Update(ctx, created.ID, owner.ID, domain.TodoPatch{})
		require.NoError(t, err)
		require.Equal(t, "buy milk", got.Title)
	})

	t.Run("delete returns a snapshot then the row is gone", func(t *testing.T) {
		snap, err := todos.Delete(ctx, created.ID, owner.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, snap.ID)

		_, err = todos.Get(ctx, created.ID, owner.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTodoOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := newAuthService(t, s)
	todos := &TodoService{Store: s}

	alice := registerUser(t, auth, "alice@example.com")
	mallory := registerUser(t, auth, "mallory@example.com")

	created, err := todos.Create(ctx, alice.ID, "secret errand", "", false)
	require.NoError(t, err)

	t.Run("cross-user get looks like not found", func(t *testing.T) {
		_, err := todos.Get(ctx, created.ID, mallory.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("cross-user update looks like not found", func(t *testing.T) {
		title := "hijacked"
		_, err := todos.Update(ctx, created.ID, mallory.ID, domain.TodoPatch{Title: &title})
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := todos.Get(ctx, created.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "secret errand", got.Title)
	})

	t.Run("cross-user delete looks like not found", func(t *testing.T) {
		_, err := todos.Delete(ctx, created.ID, mallory.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = todos.Get(ctx, created.ID, alice.ID)
		require.NoError(t, err)
	})

	t.Run("list never leaks another owner's rows", func(t *testing.T) {
		res, err := todos.List(ctx, mallory.ID, ListParams{})
		require.NoError(t, err)
		require.Empty(t, res.Todos)
		require.Zero(t, res.TotalItems)
	})
}

func TestTodoListPaginationAndSorting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := newAuthService(t, s)
	todos := &TodoService{Store: s}

	owner := registerUser(t, auth, "pager@example.com")

	titles := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for i := 0; i < 25; i++ {
		completed := i%2 == 0
		_, err := todos.Create(ctx, owner.ID, titles[i%len(titles)], "", completed)
		require.NoError(t, err)
	}

	t.Run("defaults to page 1 of 10", func(t *testing.T) {
		res, err := todos.List(ctx, owner.ID, ListParams{})
		require.NoError(t, err)
		require.Len(t, res.Todos, 10)
		require.Equal(t, 1, res.CurrentPage)
		require.Equal(t, 3, res.TotalPages)
		require.EqualValues(t, 25, res.TotalItems)
		require.Equal(t, 10, res.ItemsPerPage)
	})

	t.Run("last page is partial", func(t *testing.T) {
		res, err := todos.List(ctx, owner.ID, ListParams{Page: 3})
		require.NoError(t, err)
		require.Len(t, res.Todos, 5)
		require.Equal(t, 3, res.CurrentPage)
	})

	t.Run("page beyond the end is empty but counted", func(t *testing.T) {
		res, err := todos.List(ctx, owner.ID, ListParams{Page: 99})
		require.NoError(t, err)
		require.Empty(t, res.Todos)
		require.EqualValues(t, 25, res.TotalItems)
	})

	t.Run("limit is clamped to the maximum", func(t *testing.T) {
		res, err := todos.List(ctx, owner.ID, ListParams{Limit: 5000})
		require.NoError(t, err)
		require.Len(t, res.Todos, 25)
		require.Equal(t, MaxPageSize, res.ItemsPerPage)
	})

	t.Run("completed filter narrows the count", func(t *testing.T) {
		completed := true
		res, err := todos.List(ctx, owner.ID, ListParams{Completed: &completed, Limit: 100})
		require.NoError(t, err)
		require.EqualValues(t, 13, res.TotalItems)
		for _, todo := range res.Todos {
			require.True(t, todo.Completed)
		}
	})

	t.Run("sort by title ascending", func(t *testing.T) {
		res, err := todos.List(ctx, owner.ID, ListParams{SortBy: "title", Order: "asc", Limit: 100})
		require.NoError(t, err)
		for i := 1; i < len(res.Todos); i++ {
			require.LessOrEqual(t, res.Todos[i-1].Title, res.Todos[i].Title)
		}
	})

	t.Run("unrecognised sort falls back to default", func(t *testing.T) {
		res, err := todos.List(ctx, owner.ID, ListParams{SortBy: "owner_id; DROP TABLE todos", Order: "sideways"})
		require.NoError(t, err)
		require.Len(t, res.Todos, 10)
	})
}

func TestTodoStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := newAuthService(t, s)
	todos := &TodoService{Store: s}

	owner := registerUser(t, auth, "stats@example.com")

	t.Run("zeros for a fresh account", func(t *testing.T) {
		stats, err := todos.Stats(ctx, owner.ID)
		require.NoError(t, err)
		require.Zero(t, stats.Total)
		require.Zero(t, stats.Completed)
		require.Zero(t, stats.Pending)
	})

	for i := 0; i < 7; i++ {
		_, err := todos.Create(ctx, owner.ID, "task", "", i < 3)
		require.NoError(t, err)
	}

	t.Run("counts add up", func(t *testing.T) {
		stats, err := todos.Stats(ctx, owner.ID)
		require.NoError(t, err)
		require.EqualValues(t, 7, stats.Total)
		require.EqualValues(t, 3, stats.Completed)
		require.EqualValues(t, 4, stats.Pending)
		require.Equal(t, stats.Total, stats.Completed+stats.Pending)
	})

	t.Run("stats are owner scoped", func(t *testing.T) {
		other := registerUser(t, auth, "other@example.com")
		stats, err := todos.Stats(ctx, other.ID)
		require.NoError(t, err)
		require.Zero(t, stats.Total)
	})
}
