package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidylist/tidylist/pkg/httpx"
)

// Error represents a failed request in the envelope shape. It implements the
// error interface and is used both by the server (to write HTTP responses)
// and by the client SDK (to represent errors).
type Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Message is the human-readable envelope message
	Message string `json:"message"`

	// Errors optionally carries per-field validation messages
	Errors []string `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Errors, "; "))
	}
	return e.Message
}

// WriteError writes this Error to an HTTP response writer as an envelope.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, Envelope{
		Success: false,
		Message: e.Message,
		Errors:  e.Errors,
	})
}

// Predefined errors for the common failure paths.
var (
	// ErrUnauthenticated is returned when no valid bearer token accompanies
	// a protected request.
	ErrUnauthenticated = &Error{
		StatusCode: http.StatusUnauthorized,
		Message:    "Authentication required",
	}

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match; the two cases are indistinguishable.
	ErrInvalidCredentials = &Error{
		StatusCode: http.StatusUnauthorized,
		Message:    "Invalid email or password",
	}

	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = &Error{
		StatusCode: http.StatusConflict,
		Message:    "Email is already registered",
	}

	// ErrTodoNotFound covers both an absent id and someone else's todo, so
	// callers cannot probe for other users' identifiers.
	ErrTodoNotFound = &Error{
		StatusCode: http.StatusNotFound,
		Message:    "Todo not found",
	}

	// ErrInvalidID is returned for identifiers that are not well-formed ULIDs.
	ErrInvalidID = &Error{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid ID format",
	}

	// ErrRouteNotFound is the JSON 404 for unmatched paths.
	ErrRouteNotFound = &Error{
		StatusCode: http.StatusNotFound,
		Message:    "Route not found",
	}

	// ErrInvalidBody is returned when the request body is not valid JSON.
	ErrInvalidBody = &Error{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid request body",
	}
)

// NewValidationError builds a 400 envelope carrying per-field messages.
func NewValidationError(fieldErrors ...string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation Error",
		Errors:     fieldErrors,
	}
}

// NewStoreError maps an unexpected store failure to a 500 envelope. The
// action reads like "creating todo" and the underlying message is passed
// through in the errors list.
func NewStoreError(action string, err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Message:    "Server error while " + action,
		Errors:     []string{err.Error()},
	}
}
