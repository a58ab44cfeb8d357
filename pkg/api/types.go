// Package api holds the wire types shared by the todo service and its Go
// client: the uniform response envelope, request/response payloads and the
// error catalogue.
package api

import "time"

// Envelope is the uniform JSON wrapper every response uses, success or not.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// User is the public form of a user record. The password hash never leaves
// the service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Todo is the public form of a todo record.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Pagination is the metadata block returned alongside every todo list page.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// TodoStats are completion counts over a single user's todos.
// Total == Completed + Pending always holds.
type TodoStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

/* Request bodies */

type RegisterRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   *bool  `json:"completed,omitempty"`
}

// UpdateTodoRequest is a partial update: nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

/* Data payloads nested under Envelope.Data */

type AuthData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type UserData struct {
	User User `json:"user"`
}

type TodoData struct {
	Todo Todo `json:"todo"`
}

type TodoListData struct {
	Todos      []Todo     `json:"todos"`
	Pagination Pagination `json:"pagination"`
}

type StatsData struct {
	Stats TodoStats `json:"stats"`
}

// InfoData is the GET / liveness payload.
type InfoData struct {
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse is shared by the /livez and /readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
