package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tidylist/tidylist/internal/todo/store"

	sqlitedrv "modernc.org/sqlite"
)

const sqliteConstraintUnique = 2067

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// An in-memory database exists per connection, so the pool must stay
	// at a single connection or the schema disappears between queries.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() store.Users { return &usersRepo{db: s.db} }
func (s *Store) Todos() store.Todos { return &todosRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint translates a sqlite unique constraint violation into the
// driver-agnostic sentinel.
func mapConstraint(err error) error {
	var sqlErr *sqlitedrv.Error
	if errors.As(err, &sqlErr) && sqlErr.Code() == sqliteConstraintUnique {
		return store.ErrAlreadyExists
	}
	return err
}
