package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tidylist/tidylist/internal/todo/domain"
	"github.com/tidylist/tidylist/internal/todo/store"
)

type todosRepo struct {
	db *sql.DB
}

const todoColumns = `id, owner_id, title, description, completed, created_at, updated_at`

func scanTodo(row *sql.Row) (domain.Todo, error) {
	var t domain.Todo
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Todo{}, mapNotFound(err)
	}
	return t, nil
}

// sortColumn maps the whitelisted sort fields onto actual column names.
// The result is only ever interpolated into SQL for members of this switch,
// never raw user input.
func sortColumn(f store.SortField) string {
	switch f {
	case store.SortByUpdatedAt:
		return "updated_at"
	case store.SortByTitle:
		return "title"
	case store.SortByCompleted:
		return "completed"
	default:
		return "created_at"
	}
}

func (r *todosRepo) CreateTodo(ctx context.Context, t domain.Todo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (id, owner_id, title, description, completed)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Title, t.Description, t.Completed,
	)
	return err
}

func (r *todosRepo) GetTodo(ctx context.Context, id, ownerID string) (domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+todoColumns+` FROM todos WHERE id = ? AND owner_id = ?`,
		id, ownerID)
	return scanTodo(row)
}

func (r *todosRepo) ListTodos(ctx context.Context, q store.TodoQuery) ([]domain.Todo, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + todoColumns + ` FROM todos WHERE owner_id = ?`)
	args := []any{q.OwnerID}

	if q.Completed != nil {
		sb.WriteString(` AND completed = ?`)
		args = append(args, *q.Completed)
	}

	sb.WriteString(` ORDER BY ` + sortColumn(q.SortBy))
	if q.Order == store.OrderAsc {
		sb.WriteString(` ASC`)
	} else {
		sb.WriteString(` DESC`)
	}

	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (r *todosRepo) CountTodos(ctx context.Context, q store.TodoQuery) (int64, error) {
	query := `SELECT COUNT(*) FROM todos WHERE owner_id = ?`
	args := []any{q.OwnerID}

	if q.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *q.Completed)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *todosRepo) UpdateTodo(ctx context.Context, id, ownerID string, p domain.TodoPatch) (domain.Todo, error) {
	// COALESCE keeps columns untouched when the patch field is nil. The
	// RETURNING clause makes the owner check and the read-back atomic.
	row := r.db.QueryRowContext(ctx, `
		UPDATE todos
		SET title       = COALESCE(?, title),
		    description = COALESCE(?, description),
		    completed   = COALESCE(?, completed),
		    updated_at  = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?
		RETURNING `+todoColumns,
		p.Title, p.Description, p.Completed, id, ownerID,
	)
	return scanTodo(row)
}

func (r *todosRepo) DeleteTodo(ctx context.Context, id, ownerID string) (domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM todos WHERE id = ? AND owner_id = ?
		RETURNING `+todoColumns,
		id, ownerID,
	)
	return scanTodo(row)
}

func (r *todosRepo) CountByCompletion(ctx context.Context, ownerID string) (domain.TodoStats, error) {
	var stats domain.TodoStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(completed), 0)
		FROM todos WHERE owner_id = ?`, ownerID,
	).Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return domain.TodoStats{}, err
	}
	stats.Pending = stats.Total - stats.Completed
	return stats, nil
}
