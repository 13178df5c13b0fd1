package repository

import (
	"context"
	"time"

	"github.com/taskloop/api/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// TodoCreate holds the validated fields for a new todo.
type TodoCreate struct {
	Title       string
	Description *string
	Completed   bool
	DueDate     *time.Time
	Priority    domain.Priority
}

// TodoRepository persists todos. Every method takes the owner id as its
// first argument so no call site can reach another user's rows; the scoped
// operations filter by both todo id and owner id in a single statement.
type TodoRepository interface {
	CreateTodo(ctx context.Context, ownerID int64, fields TodoCreate) (*domain.Todo, error)
	ListTodos(ctx context.Context, ownerID int64, filter domain.TodoFilter, sort domain.TodoSort, now time.Time) ([]domain.Todo, error)
	GetTodo(ctx context.Context, ownerID, todoID int64) (*domain.Todo, error)
	UpdateTodo(ctx context.Context, ownerID, todoID int64, patch domain.TodoPatch) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, ownerID, todoID int64) error
}
