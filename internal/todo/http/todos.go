package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tidylist/tidylist/internal/todo/domain"
	"github.com/tidylist/tidylist/internal/todo/service"
	"github.com/tidylist/tidylist/internal/todo/store"
	"github.com/tidylist/tidylist/pkg/api"
	"github.com/tidylist/tidylist/pkg/httpx"
	"github.com/tidylist/tidylist/pkg/slogx"
)

type TodosHandler struct {
	TodoService *service.TodoService
}

func (h *TodosHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	var req api.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		api.NewValidationError("title is required").WriteError(w)
		return
	}

	completed := false
	if req.Completed != nil {
		completed = *req.Completed
	}

	todo, err := h.TodoService.Create(ctx, userID, req.Title, req.Description, completed)
	if err != nil {
		log.Warn("failed to create todo", "user_id", userID, "err", err)
		api.NewStoreError("creating todo", err).WriteError(w)
		return
	}

	writeData(w, http.StatusCreated, "Todo created successfully", api.TodoData{
		Todo: toAPITodo(todo),
	})
}

func (h *TodosHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	q := r.URL.Query()
	params := service.ListParams{
		Completed: parseBoolParam(q.Get("completed")),
		SortBy:    q.Get("sortBy"),
		Order:     q.Get("sortOrder"),
		Page:      parseIntParam(q.Get("page")),
		Limit:     parseIntParam(q.Get("limit")),
	}

	res, err := h.TodoService.List(ctx, userID, params)
	if err != nil {
		log.Warn("failed to list todos", "user_id", userID, "err", err)
		api.NewStoreError("fetching todos", err).WriteError(w)
		return
	}

	writeData(w, http.StatusOK, "Todos retrieved successfully", api.TodoListData{
		Todos: toAPITodos(res.Todos),
		Pagination: api.Pagination{
			CurrentPage:  res.CurrentPage,
			TotalPages:   res.TotalPages,
			TotalItems:   res.TotalItems,
			ItemsPerPage: res.ItemsPerPage,
		},
	})
}

func (h *TodosHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.TodoService.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.ErrTodoNotFound.WriteError(w)
			return
		}
		log.Warn("failed to fetch todo", "user_id", userID, "err", err)
		api.NewStoreError("fetching todo", err).WriteError(w)
		return
	}

	writeData(w, http.StatusOK, "Todo retrieved successfully", api.TodoData{
		Todo: toAPITodo(todo),
	})
}

func (h *TodosHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	id, ok := todoID(w, r)
	if !ok {
		return
	}

	var req api.UpdateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		api.NewValidationError("title must not be empty").WriteError(w)
		return
	}

	todo, err := h.TodoService.Update(ctx, id, userID, domain.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.ErrTodoNotFound.WriteError(w)
			return
		}
		log.Warn("failed to update todo", "user_id", userID, "err", err)
		api.NewStoreError("updating todo", err).WriteError(w)
		return
	}

	writeData(w, http.StatusOK, "Todo updated successfully", api.TodoData{
		Todo: toAPITodo(todo),
	})
}

func (h *TodosHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.TodoService.Delete(ctx, id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.ErrTodoNotFound.WriteError(w)
			return
		}
		log.Warn("failed to delete todo", "user_id", userID, "err", err)
		api.NewStoreError("deleting todo", err).WriteError(w)
		return
	}

	writeData(w, http.StatusOK, "Todo deleted successfully", api.TodoData{
		Todo: toAPITodo(todo),
	})
}

func (h *TodosHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	stats, err := h.TodoService.Stats(ctx, userID)
	if err != nil {
		log.Warn("failed to fetch todo stats", "user_id", userID, "err", err)
		api.NewStoreError("fetching todo statistics", err).WriteError(w)
		return
	}

	writeData(w, http.StatusOK, "Todo statistics retrieved successfully", api.StatsData{
		Stats: api.TodoStats{
			Total:     stats.Total,
			Completed: stats.Completed,
			Pending:   stats.Pending,
		},
	})
}
