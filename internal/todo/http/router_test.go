package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidylist/tidylist/internal/todo/service"
	"github.com/tidylist/tidylist/internal/todo/store/drivers/sqlite"
	"github.com/tidylist/tidylist/pkg/api"
	"github.com/tidylist/tidylist/pkg/cryptox"
	"github.com/tidylist/tidylist/pkg/httpx"
	"github.com/tidylist/tidylist/pkg/jwtx"
	"github.com/tidylist/tidylist/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tidylist-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	// Every request in these tests comes from the same loopback address,
	// so the per-IP brute force limits would trip long before the
	// interesting assertions run.
	httpx.StrictLimit = httpx.RateLimitConfig{
		RequestsPerWindow: 10000,
		Window:            time.Minute,
		Burst:             10000,
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// setupServer stands up the full HTTP stack against an in-memory database
// and returns a client pointed at it.
func setupServer(t *testing.T) *api.Client {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  "tidylist-test",
		NumKeys: 1,
	})
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{
		Service: "todo-service",
		Version: "test",
		Level:   "error",
		Format:  "text",
	})

	router := NewRouter(km.KeySet, km.Verifier, "test", st, logger)
	router.AuthService = &service.AuthService{
		Store:      st,
		KeyManager: km,
		Issuer:     "tidylist-test",
		AccessTTL:  time.Hour,
	}
	router.TodoService = &service.TodoService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return api.NewClient(srv.URL)
}

func registerClient(t *testing.T, client *api.Client, email string) *api.AuthData {
	t.Helper()

	auth, err := client.Register(t.Context(), api.RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return auth
}

func requireAPIError(t *testing.T, err error, status int) *api.Error {
	t.Helper()

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	return apiErr
}

func TestRegisterLoginProfile(t *testing.T) {
	client := setupServer(t)
	ctx := t.Context()

	auth := registerClient(t, client, "alice@example.com")
	require.NotEmpty(t, auth.Token)
	require.Equal(t, "alice@example.com", auth.User.Email)
	require.NotEmpty(t, auth.User.ID)

	t.Run("profile with registration token", func(t *testing.T) {
		user, err := client.Profile(ctx)
		require.NoError(t, err)
		require.Equal(t, auth.User.ID, user.ID)
	})

	t.Run("login issues a fresh token", func(t *testing.T) {
		fresh := api.NewClient(client.BaseURL)
		got, err := fresh.Login(ctx, api.LoginRequest{
			Email:    "alice@example.com",
			Password: "correct horse battery",
		})
		require.NoError(t, err)
		require.NotEmpty(t, got.Token)
		require.Equal(t, auth.User.ID, got.User.ID)
	})

	t.Run("wrong password is a 401", func(t *testing.T) {
		fresh := api.NewClient(client.BaseURL)
		_, err := fresh.Login(ctx, api.LoginRequest{
			Email:    "alice@example.com",
			Password: "nope",
		})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized)
		require.Equal(t, "Invalid email or password", apiErr.Message)
	})

	t.Run("duplicate email is a 409", func(t *testing.T) {
		fresh := api.NewClient(client.BaseURL)
		_, err := fresh.Register(ctx, api.RegisterRequest{
			Email:    "ALICE@example.com",
			Password: "correct horse battery",
		})
		requireAPIError(t, err, http.StatusConflict)
	})

	t.Run("validation errors carry field messages", func(t *testing.T) {
		fresh := api.NewClient(client.BaseURL)
		_, err := fresh.Register(ctx, api.RegisterRequest{
			Email:    "not-an-email",
			Password: "short",
		})
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		require.Equal(t, "Validation Error", apiErr.Message)
		require.Len(t, apiErr.Errors, 2)
	})

	t.Run("profile without token is a 401", func(t *testing.T) {
		fresh := api.NewClient(client.BaseURL)
		_, err := fresh.Profile(ctx)
		requireAPIError(t, err, http.StatusUnauthorized)
	})
}

func TestTodoCRUDOverHTTP(t *testing.T) {
	client := setupServer(t)
	ctx := t.Context()
	registerClient(t, client, "crud@example.com")

	created, err := client.CreateTodo(ctx, api.CreateTodoRequest{
		Title:       "write report",
		Description: "quarterly numbers",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.Completed)

	t.Run("get returns the todo", func(t *testing.T) {
		got, err := client.GetTodo(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "write report", got.Title)
	})

	t.Run("update flips completion only", func(t *testing.T) {
		completed := true
		got, err := client.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{Completed: &completed})
		require.NoError(t, err)
		require.True(t, got.Completed)
		require.Equal(t, "write report", got.Title)
		require.Equal(t, "quarterly numbers", got.Description)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		_, err := client.GetTodo(ctx, "definitely-not-a-ulid")
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		require.Equal(t, "Invalid ID format", apiErr.Message)
	})

	t.Run("absent id is a 404", func(t *testing.T) {
		_, err := client.GetTodo(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("delete returns the snapshot", func(t *testing.T) {
		snap, err := client.DeleteTodo(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, snap.ID)

		_, err = client.GetTodo(ctx, created.ID)
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("empty title create is a validation error", func(t *testing.T) {
		_, err := client.CreateTodo(ctx, api.CreateTodoRequest{Title: ""})
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		require.Contains(t, apiErr.Errors, "title is required")
	})

	t.Run("whitespace-only title create is a validation error", func(t *testing.T) {
		_, err := client.CreateTodo(ctx, api.CreateTodoRequest{Title: "   "})
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		require.Contains(t, apiErr.Errors, "title is required")
	})

	t.Run("whitespace-only title update is a validation error", func(t *testing.T) {
		todo, err := client.CreateTodo(ctx, api.CreateTodoRequest{Title: "keep me"})
		require.NoError(t, err)

		blank := "  \t "
		_, err = client.UpdateTodo(ctx, todo.ID, api.UpdateTodoRequest{Title: &blank})
		requireAPIError(t, err, http.StatusBadRequest)

		got, err := client.GetTodo(ctx, todo.ID)
		require.NoError(t, err)
		require.Equal(t, "keep me", got.Title)
	})
}

func TestTodoSortOrderOverHTTP(t *testing.T) {
	client := setupServer(t)
	ctx := t.Context()
	registerClient(t, client, "sorter@example.com")

	for _, title := range []string{"charlie", "alpha", "bravo"} {
		_, err := client.CreateTodo(ctx, api.CreateTodoRequest{Title: title})
		require.NoError(t, err)
	}

	titles := func(todos []api.Todo) []string {
		out := make([]string, 0, len(todos))
		for _, todo := range todos {
			out = append(out, todo.Title)
		}
		return out
	}

	t.Run("sortOrder asc", func(t *testing.T) {
		res, err := client.ListTodos(ctx, api.ListTodosOptions{SortBy: "title", Order: "asc"})
		require.NoError(t, err)
		require.Equal(t, []string{"alpha", "bravo", "charlie"}, titles(res.Todos))
	})

	t.Run("sortOrder desc", func(t *testing.T) {
		res, err := client.ListTodos(ctx, api.ListTodosOptions{SortBy: "title", Order: "desc"})
		require.NoError(t, err)
		require.Equal(t, []string{"charlie", "bravo", "alpha"}, titles(res.Todos))
	})

	t.Run("raw sortOrder query parameter honored", func(t *testing.T) {
		token := client.Token()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			client.BaseURL+"/api/todos?sortBy=title&sortOrder=asc", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var envelope struct {
			Data api.TodoListData `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		require.Equal(t, []string{"alpha", "bravo", "charlie"}, titles(envelope.Data.Todos))
	})
}

func TestTodoIsolationOverHTTP(t *testing.T) {
	client := setupServer(t)
	ctx := t.Context()

	alice := api.NewClient(client.BaseURL)
	registerClient(t, alice, "alice@example.com")
	mallory := api.NewClient(client.BaseURL)
	registerClient(t, mallory, "mallory@example.com")

	created, err := alice.CreateTodo(ctx, api.CreateTodoRequest{Title: "private"})
	require.NoError(t, err)

	t.Run("someone else's todo reads as 404", func(t *testing.T) {
		_, err := mallory.GetTodo(ctx, created.ID)
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("someone else's todo cannot be deleted", func(t *testing.T) {
		_, err := mallory.DeleteTodo(ctx, created.ID)
		requireAPIError(t, err, http.StatusNotFound)

		got, err := alice.GetTodo(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "private", got.Title)
	})

	t.Run("lists stay separate", func(t *testing.T) {
		res, err := mallory.ListTodos(ctx, api.ListTodosOptions{})
		require.NoError(t, err)
		require.Empty(t, res.Todos)
	})
}

func TestTodoListAndStatsOverHTTP(t *testing.T) {
	client := setupServer(t)
	ctx := t.Context()
	registerClient(t, client, "lists@example.com")

	for i := 0; i < 12; i++ {
		completed := i < 4
		_, err := client.CreateTodo(ctx, api.CreateTodoRequest{
			Title:     "task",
			Completed: &completed,
		})
		require.NoError(t, err)
	}

	t.Run("default pagination", func(t *testing.T) {
		res, err := client.ListTodos(ctx, api.ListTodosOptions{})
		require.NoError(t, err)
		require.Len(t, res.Todos, 10)
		require.Equal(t, 1, res.Pagination.CurrentPage)
		require.Equal(t, 2, res.Pagination.TotalPages)
		require.EqualValues(t, 12, res.Pagination.TotalItems)
		require.Equal(t, 10, res.Pagination.ItemsPerPage)
	})

	t.Run("second page", func(t *testing.T) {
		res, err := client.ListTodos(ctx, api.ListTodosOptions{Page: 2})
		require.NoError(t, err)
		require.Len(t, res.Todos, 2)
	})

	t.Run("completed filter", func(t *testing.T) {
		completed := true
		res, err := client.ListTodos(ctx, api.ListTodosOptions{Completed: &completed})
		require.NoError(t, err)
		require.EqualValues(t, 4, res.Pagination.TotalItems)
	})

	t.Run("stats add up", func(t *testing.T) {
		stats, err := client.TodoStats(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 12, stats.Total)
		require.EqualValues(t, 4, stats.Completed)
		require.EqualValues(t, 8, stats.Pending)
	})
}

func TestSystemEndpoints(t *testing.T) {
	client := setupServer(t)
	ctx := t.Context()

	t.Run("root banner", func(t *testing.T) {
		info, err := client.Info(ctx)
		require.NoError(t, err)
		require.Equal(t, "test", info.Version)
		require.Equal(t, "/api/todos", info.Endpoints["todos"])
	})

	t.Run("unknown route is a JSON 404", func(t *testing.T) {
		resp, err := http.Get(client.BaseURL + "/api/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var envelope api.Envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		require.False(t, envelope.Success)
		require.Equal(t, "Route not found", envelope.Message)
	})

	t.Run("readyz reports ok", func(t *testing.T) {
		health, err := client.Health(ctx)
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.Equal(t, "ok", health.Checks.Database)
		require.Equal(t, "ok", health.Checks.Signer)
	})

	t.Run("jwks exposes public keys", func(t *testing.T) {
		resp, err := http.Get(client.BaseURL + "/.well-known/jwks.json")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var jwks jwtx.JWKS
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&jwks))
		require.Len(t, jwks.Keys, 1)
		require.Equal(t, "OKP", jwks.Keys[0].Kty)
	})

	t.Run("token signed by a foreign key rejected", func(t *testing.T) {
		km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: "tidylist-test", NumKeys: 1})
		require.NoError(t, err)

		claims := jwtx.NewAccessClaims("someone", "x@example.com", "X", time.Hour, "tidylist-test", time.Now())
		token, err := km.GetSigner().Sign(claims)
		require.NoError(t, err)

		fresh := api.NewClient(client.BaseURL)
		fresh.SetToken(token)
		_, err = fresh.Profile(context.Background())
		requireAPIError(t, err, http.StatusUnauthorized)
	})
}
