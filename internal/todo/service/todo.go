package service

import (
	"context"
	"strings"

	"github.com/tidylist/tidylist/internal/todo/domain"
	"github.com/tidylist/tidylist/internal/todo/store"
	"github.com/tidylist/tidylist/pkg/idx"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TodoService owns the todo lifecycle. Every operation is scoped to the
// calling user; there is no way to reach another user's rows through it.
type TodoService struct {
	Store store.Store
}

// ListParams is the raw listing input after HTTP-level parsing. Out of
// range pages and limits are clamped rather than rejected.
type ListParams struct {
	Completed *bool
	SortBy    string
	Order     string
	Page      int
	Limit     int
}

// ListResult is a page of todos plus the pagination bookkeeping needed
// to render it.
type ListResult struct {
	Todos        []domain.Todo
	CurrentPage  int
	TotalPages   int
	TotalItems   int64
	ItemsPerPage int
}

func (s *TodoService) Create(ctx context.Context, ownerID, title, description string, completed bool) (domain.Todo, error) {
	todo := domain.Todo{
		ID:          idx.New().String(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Completed:   completed,
	}

	if err := s.Store.Todos().CreateTodo(ctx, todo); err != nil {
		return domain.Todo{}, err
	}

	return s.Store.Todos().GetTodo(ctx, todo.ID, ownerID)
}

func (s *TodoService) List(ctx context.Context, ownerID string, p ListParams) (*ListResult, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	q := store.TodoQuery{
		OwnerID:   ownerID,
		Completed: p.Completed,
		SortBy:    store.ParseSortField(p.SortBy),
		Order:     store.ParseSortOrder(p.Order),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	todos, err := s.Store.Todos().ListTodos(ctx, q)
	if err != nil {
		return nil, err
	}

	total, err := s.Store.Todos().CountTodos(ctx, q)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &ListResult{
		Todos:        todos,
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}, nil
}

func (s *TodoService) Get(ctx context.Context, id, ownerID string) (domain.Todo, error) {
	return s.Store.Todos().GetTodo(ctx, id, ownerID)
}

func (s *TodoService) Update(ctx context.Context, id, ownerID string, p domain.TodoPatch) (domain.Todo, error) {
	if p.Title != nil {
		trimmed := strings.TrimSpace(*p.Title)
		p.Title = &trimmed
	}
	if p.Description != nil {
		trimmed := strings.TrimSpace(*p.Description)
		p.Description = &trimmed
	}

	if p.IsEmpty() {
		// Nothing to change, but the caller still expects the row back.
		return s.Store.Todos().GetTodo(ctx, id, ownerID)
	}

	return s.Store.Todos().UpdateTodo(ctx, id, ownerID, p)
}

func (s *TodoService) Delete(ctx context.Context, id, ownerID string) (domain.Todo, error) {
	return s.Store.Todos().DeleteTodo(ctx, id, ownerID)
}

func (s *TodoService) Stats(ctx context.Context, ownerID string) (domain.TodoStats, error) {
	return s.Store.Todos().CountByCompletion(ctx, ownerID)
}
