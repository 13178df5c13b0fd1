package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskloop/api/internal/domain"
	"github.com/taskloop/api/internal/repository"
)

const todoColumns = `id, user_id, title, description, completed, due_date, priority, created_at, updated_at`

// CreateTodo inserts a todo owned by ownerID. Both timestamps come from the
// same statement clock so created_at equals updated_at on a fresh row.
func (r *Repository) CreateTodo(ctx context.Context, ownerID int64, fields repository.TodoCreate) (*domain.Todo, error) {
	const query = `INSERT INTO todos (user_id, title, description, completed, due_date, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + todoColumns
	row := r.pool.QueryRow(ctx, query,
		ownerID,
		fields.Title,
		stringPtrToNil(fields.Description),
		fields.Completed,
		timePtrToNil(fields.DueDate),
		string(fields.Priority),
	)
	todo, err := scanTodo(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return todo, nil
}

// ListTodos enumerates the owner's todos with filters and ordering applied
// in SQL. The due-date-status filter is translated into range predicates
// against the calendar day of now, never evaluated post-fetch.
func (r *Repository) ListTodos(ctx context.Context, ownerID int64, filter domain.TodoFilter, sort domain.TodoSort, now time.Time) ([]domain.Todo, error) {
	query, args := buildListQuery(ownerID, filter, sort, now)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

// GetTodo fetches a single todo scoped by owner. A row owned by another
// user is indistinguishable from a missing one.
func (r *Repository) GetTodo(ctx context.Context, ownerID, todoID int64) (*domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 AND id = $2`
	todo, err := scanTodo(r.pool.QueryRow(ctx, query, ownerID, todoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return todo, nil
}

// UpdateTodo applies a partial update as a single conditional UPDATE so the
// owner check and the mutation cannot race a concurrent delete. updated_at
// is refreshed regardless of which fields changed.
func (r *Repository) UpdateTodo(ctx context.Context, ownerID, todoID int64, patch domain.TodoPatch) (*domain.Todo, error) {
	if patch.IsEmpty() {
		return nil, repository.ErrInvalidArgument
	}
	query, args := buildUpdateQuery(ownerID, todoID, patch)
	todo, err := scanTodo(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return todo, nil
}

// DeleteTodo permanently removes a todo scoped by owner.
func (r *Repository) DeleteTodo(ctx context.Context, ownerID, todoID int64) error {
	const query = `DELETE FROM todos WHERE user_id = $1 AND id = $2`
	cmdTag, err := r.pool.Exec(ctx, query, ownerID, todoID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// buildListQuery assembles the filtered, sorted listing statement.
func buildListQuery(ownerID int64, filter domain.TodoFilter, sort domain.TodoSort, now time.Time) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1`)
	args := []any{ownerID}

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		fmt.Fprintf(&sb, " AND completed = $%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, string(*filter.Priority))
		fmt.Fprintf(&sb, " AND priority = $%d", len(args))
	}
	if filter.DueStatus != nil {
		dayStart := truncateToDay(now.UTC())
		dayEnd := dayStart.Add(24 * time.Hour)
		switch *filter.DueStatus {
		case domain.DueStatusOverdue:
			args = append(args, dayStart)
			fmt.Fprintf(&sb, " AND due_date IS NOT NULL AND due_date < $%d", len(args))
		case domain.DueStatusDueToday:
			args = append(args, dayStart, dayEnd)
			fmt.Fprintf(&sb, " AND due_date >= $%d AND due_date < $%d", len(args)-1, len(args))
		case domain.DueStatusUpcoming:
			args = append(args, dayEnd)
			fmt.Fprintf(&sb, " AND due_date >= $%d", len(args))
		case domain.DueStatusNone:
			sb.WriteString(" AND due_date IS NULL")
		}
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderClause(sort))
	return sb.String(), args
}

// orderClause whitelists sort columns. Null due dates sort last in either
// direction, and id ascending breaks ties for deterministic listings.
func orderClause(sort domain.TodoSort) string {
	direction := "DESC"
	if sort.Order == domain.SortAsc {
		direction = "ASC"
	}
	var key string
	switch sort.Field {
	case domain.SortByDueDate:
		key = "due_date " + direction + " NULLS LAST"
	case domain.SortByPriority:
		key = "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END " + direction
	case domain.SortByUpdatedAt:
		key = "updated_at " + direction
	default:
		key = "created_at " + direction
	}
	return key + ", id ASC"
}

// buildUpdateQuery assembles a partial UPDATE statement. Only named fields
// appear in the SET list; updated_at always refreshes.
func buildUpdateQuery(ownerID, todoID int64, patch domain.TodoPatch) (string, []any) {
	sets := []string{"updated_at = NOW()"}
	args := []any{ownerID, todoID}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		appendSet("title", *patch.Title)
	}
	if patch.HasDescription {
		appendSet("description", stringPtrToNil(patch.Description))
	}
	if patch.Completed != nil {
		appendSet("completed", *patch.Completed)
	}
	if patch.HasDueDate {
		appendSet("due_date", timePtrToNil(patch.DueDate))
	}
	if patch.Priority != nil {
		appendSet("priority", string(*patch.Priority))
	}

	query := fmt.Sprintf(`UPDATE todos SET %s WHERE user_id = $1 AND id = $2 RETURNING %s`,
		strings.Join(sets, ", "), todoColumns)
	return query, args
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var (
		t           domain.Todo
		description sql.NullString
		dueDate     sql.NullTime
		priority    string
	)
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&description,
		&t.Completed,
		&dueDate,
		&priority,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		value := description.String
		t.Description = &value
	}
	if dueDate.Valid {
		value := dueDate.Time.UTC()
		t.DueDate = &value
	}
	t.Priority = domain.Priority(priority)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nilIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func stringPtrToNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func timePtrToNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
