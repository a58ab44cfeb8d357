package store

import (
	"context"
	"errors"

	"github.com/tidylist/tidylist/internal/todo/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Todos() Todos

	ApplyMigrations() error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is already registered.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// Todos is strictly owner-scoped: every operation takes the calling user's
// id and only ever touches rows that user owns. A row owned by someone else
// is indistinguishable from a row that does not exist.
type Todos interface {
	// CreateTodo inserts a new todo (id is provided by app via ULID).
	CreateTodo(ctx context.Context, t domain.Todo) error

	// GetTodo returns a todo owned by ownerID, or ErrNotFound.
	GetTodo(ctx context.Context, id, ownerID string) (domain.Todo, error)

	// ListTodos returns the page of todos matching the query.
	ListTodos(ctx context.Context, q TodoQuery) ([]domain.Todo, error)

	// CountTodos returns the total number of rows matching the query,
	// ignoring its limit and offset.
	CountTodos(ctx context.Context, q TodoQuery) (int64, error)

	// UpdateTodo applies the patch to a todo owned by ownerID and returns
	// the updated row, or ErrNotFound.
	UpdateTodo(ctx context.Context, id, ownerID string, p domain.TodoPatch) (domain.Todo, error)

	// DeleteTodo removes a todo owned by ownerID and returns a snapshot of
	// the deleted row, or ErrNotFound.
	DeleteTodo(ctx context.Context, id, ownerID string) (domain.Todo, error)

	// CountByCompletion returns completion statistics for an owner.
	CountByCompletion(ctx context.Context, ownerID string) (domain.TodoStats, error)
}
