package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidylist/tidylist/internal/todo/service"
	"github.com/tidylist/tidylist/internal/todo/store"
	"github.com/tidylist/tidylist/pkg/api"
	"github.com/tidylist/tidylist/pkg/httpx"
	"github.com/tidylist/tidylist/pkg/slogx"
)

type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister creates an account and returns a token plus the public
// user record.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var fieldErrors []string
	if req.Email == "" {
		fieldErrors = append(fieldErrors, "email is required")
	} else if !validEmail(req.Email) {
		fieldErrors = append(fieldErrors, "email must be a valid email address")
	}
	if req.Password == "" {
		fieldErrors = append(fieldErrors, "password is required")
	} else if len(req.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(fieldErrors) > 0 {
		api.NewValidationError(fieldErrors...).WriteError(w)
		return
	}

	res, err := h.AuthService.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			api.ErrEmailTaken.WriteError(w)
			return
		}
		log.Warn("registration failed", "err", err)
		api.NewStoreError("registering user", err).WriteError(w)
		return
	}

	writeData(w, http.StatusCreated, "User registered successfully", api.AuthData{
		Token: res.Token,
		User:  toAPIUser(res.User),
	})
}

// HandleLogin exchanges credentials for a token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var fieldErrors []string
	if req.Email == "" {
		fieldErrors = append(fieldErrors, "email is required")
	}
	if req.Password == "" {
		fieldErrors = append(fieldErrors, "password is required")
	}
	if len(fieldErrors) > 0 {
		api.NewValidationError(fieldErrors...).WriteError(w)
		return
	}

	res, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			api.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Warn("login failed", "err", err)
		api.NewStoreError("logging in", err).WriteError(w)
		return
	}

	writeData(w, http.StatusOK, "Login successful", api.AuthData{
		Token: res.Token,
		User:  toAPIUser(res.User),
	})
}

// HandleProfile returns the authenticated user's account.
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		api.ErrUnauthenticated.WriteError(w)
		return
	}

	user, err := h.AuthService.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token is valid but the account is gone.
			api.ErrUnauthenticated.WriteError(w)
			return
		}
		log.Warn("failed to load profile", "user_id", userID, "err", err)
		api.NewStoreError("fetching profile", err).WriteError(w)
		return
	}

	httpx.NoCache(w)
	writeData(w, http.StatusOK, "Profile retrieved successfully", api.UserData{
		User: toAPIUser(user),
	})
}
