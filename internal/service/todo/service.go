package todo

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"log/slog"

	"github.com/taskloop/api/internal/domain"
	"github.com/taskloop/api/internal/repository"
)

const (
	titleMaxLen       = 200
	descriptionMaxLen = 1000
)

// Service validates input and orchestrates the owner-scoped todo store.
type Service struct {
	todos  repository.TodoRepository
	logger *slog.Logger
	now    func() time.Time
}

// New returns a todo service.
func New(todos repository.TodoRepository, logger *slog.Logger) Service {
	return Service{todos: todos, logger: logger, now: time.Now}
}

// CreateInput carries the fields of a creation request. Priority defaults
// to medium when empty.
type CreateInput struct {
	Title       string
	Description *string
	Completed   bool
	DueDate     *time.Time
	Priority    string
}

// ListInput carries raw query-string filters; validation happens here so
// malformed values are rejected with field details before any store access.
type ListInput struct {
	Completed string
	Priority  string
	DueStatus string
	Sort      string
	Order     string
}

// UpdateInput mirrors a partial-update payload. Set flags record presence
// in the payload so an explicit null is distinguishable from an absent key.
type UpdateInput struct {
	Title          *string
	TitleSet       bool
	Description    *string
	DescriptionSet bool
	Completed      *bool
	CompletedSet   bool
	DueDate        *time.Time
	DueDateSet     bool
	Priority       *string
	PrioritySet    bool
}

// Create validates and persists a new todo for the owner.
func (s Service) Create(ctx context.Context, ownerID int64, input CreateInput) (*domain.Todo, error) {
	var fields []string

	title, msg := normalizeTitle(input.Title)
	if msg != "" {
		fields = append(fields, msg)
	}
	description, msg := normalizeDescription(input.Description)
	if msg != "" {
		fields = append(fields, msg)
	}
	priority := domain.PriorityMedium
	if input.Priority != "" {
		parsed, perr := domain.ParsePriority(input.Priority)
		if perr != nil {
			fields = append(fields, "priority: "+perr.Error())
		} else {
			priority = parsed
		}
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	created, cerr := s.todos.CreateTodo(ctx, ownerID, repository.TodoCreate{
		Title:       title,
		Description: description,
		Completed:   input.Completed,
		DueDate:     utcPtr(input.DueDate),
		Priority:    priority,
	})
	if cerr != nil {
		return nil, cerr
	}
	s.logger.Info("todo created", "todo_id", created.ID, "user_id", ownerID)
	return created, nil
}

// List validates filters and enumerates the owner's todos. An empty result
// is a valid outcome, never an error.
func (s Service) List(ctx context.Context, ownerID int64, input ListInput) ([]domain.Todo, error) {
	filter, err := parseFilter(input)
	if err != nil {
		return nil, err
	}
	sort := domain.NormalizeTodoSort(input.Sort, input.Order)
	return s.todos.ListTodos(ctx, ownerID, filter, sort, s.now().UTC())
}

// Get fetches one of the owner's todos.
func (s Service) Get(ctx context.Context, ownerID, todoID int64) (*domain.Todo, error) {
	return s.todos.GetTodo(ctx, ownerID, todoID)
}

// Update applies a partial update. At least one field must be named.
func (s Service) Update(ctx context.Context, ownerID, todoID int64, input UpdateInput) (*domain.Todo, error) {
	patch, err := parsePatch(input)
	if err != nil {
		return nil, err
	}
	updated, uerr := s.todos.UpdateTodo(ctx, ownerID, todoID, patch)
	if uerr != nil {
		return nil, uerr
	}
	s.logger.Info("todo updated", "todo_id", todoID, "user_id", ownerID)
	return updated, nil
}

// Delete permanently removes one of the owner's todos.
func (s Service) Delete(ctx context.Context, ownerID, todoID int64) error {
	if err := s.todos.DeleteTodo(ctx, ownerID, todoID); err != nil {
		return err
	}
	s.logger.Info("todo deleted", "todo_id", todoID, "user_id", ownerID)
	return nil
}

// Now reports the service clock, used when annotating responses.
func (s Service) Now() time.Time {
	return s.now().UTC()
}

func parseFilter(input ListInput) (domain.TodoFilter, error) {
	var (
		filter domain.TodoFilter
		fields []string
	)
	if input.Completed != "" {
		completed, err := strconv.ParseBool(input.Completed)
		if err != nil {
			fields = append(fields, "completed: must be true or false")
		} else {
			filter.Completed = &completed
		}
	}
	if input.Priority != "" {
		priority, err := domain.ParsePriority(input.Priority)
		if err != nil {
			fields = append(fields, "priority: "+err.Error())
		} else {
			filter.Priority = &priority
		}
	}
	if input.DueStatus != "" {
		status, err := domain.ParseDueDateStatus(input.DueStatus)
		if err != nil {
			fields = append(fields, "due_date_status: "+err.Error())
		} else {
			filter.DueStatus = &status
		}
	}
	if len(fields) > 0 {
		return domain.TodoFilter{}, &domain.ValidationError{Fields: fields}
	}
	return filter, nil
}

func parsePatch(input UpdateInput) (domain.TodoPatch, error) {
	var (
		patch  domain.TodoPatch
		fields []string
	)
	if !input.TitleSet && !input.DescriptionSet && !input.CompletedSet &&
		!input.DueDateSet && !input.PrioritySet {
		return domain.TodoPatch{}, domain.Invalid("update: at least one field must be provided")
	}
	if input.TitleSet {
		if input.Title == nil {
			fields = append(fields, "title: must not be null")
		} else if title, msg := normalizeTitle(*input.Title); msg != "" {
			fields = append(fields, msg)
		} else {
			patch.Title = &title
		}
	}
	if input.DescriptionSet {
		description, msg := normalizeDescription(input.Description)
		if msg != "" {
			fields = append(fields, msg)
		} else {
			patch.Description = description
			patch.HasDescription = true
		}
	}
	if input.CompletedSet {
		if input.Completed == nil {
			fields = append(fields, "completed: must not be null")
		} else {
			patch.Completed = input.Completed
		}
	}
	if input.DueDateSet {
		patch.DueDate = utcPtr(input.DueDate)
		patch.HasDueDate = true
	}
	if input.PrioritySet {
		if input.Priority == nil {
			fields = append(fields, "priority: must not be null")
		} else if priority, err := domain.ParsePriority(*input.Priority); err != nil {
			fields = append(fields, "priority: "+err.Error())
		} else {
			patch.Priority = &priority
		}
	}
	if len(fields) > 0 {
		return domain.TodoPatch{}, &domain.ValidationError{Fields: fields}
	}
	return patch, nil
}

// normalizeTitle trims surrounding whitespace and enforces 1-200 characters.
// The returned string is the message for the validation details when non-empty.
func normalizeTitle(raw string) (string, string) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", "title: must not be empty or whitespace only"
	}
	if utf8.RuneCountInString(title) > titleMaxLen {
		return "", "title: must be at most 200 characters"
	}
	return title, ""
}

// normalizeDescription trims the value; empty after trimming collapses to
// absent.
func normalizeDescription(raw *string) (*string, string) {
	if raw == nil {
		return nil, ""
	}
	description := strings.TrimSpace(*raw)
	if description == "" {
		return nil, ""
	}
	if utf8.RuneCountInString(description) > descriptionMaxLen {
		return nil, "description: must be at most 1000 characters"
	}
	return &description, ""
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
