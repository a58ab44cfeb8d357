package http

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/tidylist/tidylist/internal/todo/domain"
	"github.com/tidylist/tidylist/pkg/api"
	"github.com/tidylist/tidylist/pkg/httpx"
	"github.com/tidylist/tidylist/pkg/idx"
)

const minPasswordLength = 8

// decodeJSON reads the request body into dst. A false return means the
// error envelope has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.ErrInvalidBody.WriteError(w)
		return false
	}
	return true
}

// writeData wraps a payload in the success envelope.
func writeData(w http.ResponseWriter, status int, message string, data any) {
	httpx.WriteJSON(w, status, api.Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// todoID pulls the {id} path value and rejects anything that is not a
// well-formed ULID before it reaches the store.
func todoID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.PathValue("id")
	id, err := idx.Parse(raw)
	if err != nil {
		api.ErrInvalidID.WriteError(w)
		return "", false
	}
	return id.String(), true
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil && addr.Address == strings.TrimSpace(email)
}

// parseBoolParam interprets a completed query value. Only the literals
// "true" and "false" count; everything else means no filter.
func parseBoolParam(s string) *bool {
	switch s {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

func parseIntParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func toAPIUser(u domain.User) api.User {
	return api.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toAPITodo(t domain.Todo) api.Todo {
	return api.Todo{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toAPITodos(todos []domain.Todo) []api.Todo {
	out := make([]api.Todo, 0, len(todos))
	for _, t := range todos {
		out = append(out, toAPITodo(t))
	}
	return out
}
