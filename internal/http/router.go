package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskloop/api/internal/domain"
	"github.com/taskloop/api/internal/repository"
	"github.com/taskloop/api/internal/service/auth"
	"github.com/taskloop/api/internal/service/todo"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	verifier auth.Verifier
	auth     auth.Service
	todos    todo.Service
	limiter  RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	requestsInFlight   prometheus.Gauge
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateLimitSignup    = 5
	rateLimitSignin    = 12
	rateLimitUserRead  = 120
	rateLimitUserWrite = 60
	healthCheckTimeout = 2 * time.Second
)

// Route labels used for metrics; path parameters are collapsed so the
// cardinality stays bounded.
const (
	routeSignup         = "/auth/signup"
	routeSignin         = "/auth/signin"
	routeMe             = "/auth/me"
	routeTodoCollection = "/users/{user_id}/todos"
	routeTodoItem       = "/users/{user_id}/todos/{todo_id}"
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, todoSvc todo.Service, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		verifier: authSvc.Verifier(),
		auth:     authSvc,
		todos:    todoSvc,
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/signup", r.audit(routeSignup, r.withRateLimit(routeSignup, rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.mux.HandleFunc("/auth/signin", r.audit(routeSignin, r.withRateLimit(routeSignin, rateLimitSignin, rateWindowDefault, rateLimitKeyIP, r.handleSignin)))
	r.mux.HandleFunc("/auth/me", r.audit(routeMe, r.handlerAuthRate(routeMe, rateLimitUserRead, rateWindowDefault, r.handleMe)))
	r.mux.HandleFunc("/users/", r.audit(routeTodoCollection, r.requireAuth(r.handleUserSubroutes)))
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeValidationError(w, []string{"body: invalid JSON"})
		return
	}
	user, err := r.auth.Signup(req.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

func (r *Router) handleSignin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeValidationError(w, []string{"body: invalid JSON"})
		return
	}
	user, token, err := r.auth.Signin(req.Context(), payload.Email, payload.Password)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userView(user),
	})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	principal, ok := principalFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeInternalError(w)
		return
	}
	user, err := r.auth.CurrentUser(req.Context(), principal)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeNotFound(w, "User not found")
			return
		}
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

// handleUserSubroutes parses /users/{user_id}/todos[/{todo_id}]. Ownership
// of the path is checked before any todo lookup, so a foreign user id is a
// 403 even when the todo id does not exist.
func (r *Router) handleUserSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/users/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[1] != "todos" {
		r.notFound(w, "Not found")
		return
	}
	pathUserID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || pathUserID <= 0 {
		r.notFound(w, "Not found")
		return
	}
	principal, ok := principalFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeInternalError(w)
		return
	}
	if err := auth.CheckOwner(principal, pathUserID); err != nil {
		r.logger.Warn("ownership check failed", "user_id", principal, "path_user_id", pathUserID)
		writeForbidden(w)
		return
	}

	if len(parts) == 2 {
		r.handleTodoCollection(w, req, pathUserID)
		return
	}
	todoID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || todoID <= 0 {
		r.notFound(w, "Todo not found")
		return
	}
	r.handleTodoItem(w, req, pathUserID, todoID)
}

func (r *Router) handleTodoCollection(w http.ResponseWriter, req *http.Request, ownerID int64) {
	switch req.Method {
	case http.MethodGet:
		r.withRateLimit(routeTodoCollection, rateLimitUserRead, rateWindowDefault, rateLimitKeyUser, func(w http.ResponseWriter, req *http.Request) {
			r.listTodos(w, req, ownerID)
		})(w, req)
	case http.MethodPost:
		r.withRateLimit(routeTodoCollection, rateLimitUserWrite, rateWindowDefault, rateLimitKeyUser, func(w http.ResponseWriter, req *http.Request) {
			r.createTodo(w, req, ownerID)
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleTodoItem(w http.ResponseWriter, req *http.Request, ownerID, todoID int64) {
	switch req.Method {
	case http.MethodGet:
		r.withRateLimit(routeTodoItem, rateLimitUserRead, rateWindowDefault, rateLimitKeyUser, func(w http.ResponseWriter, req *http.Request) {
			r.getTodo(w, req, ownerID, todoID)
		})(w, req)
	case http.MethodPut:
		r.withRateLimit(routeTodoItem, rateLimitUserWrite, rateWindowDefault, rateLimitKeyUser, func(w http.ResponseWriter, req *http.Request) {
			r.updateTodo(w, req, ownerID, todoID)
		})(w, req)
	case http.MethodDelete:
		r.withRateLimit(routeTodoItem, rateLimitUserWrite, rateWindowDefault, rateLimitKeyUser, func(w http.ResponseWriter, req *http.Request) {
			r.deleteTodo(w, req, ownerID, todoID)
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) listTodos(w http.ResponseWriter, req *http.Request, ownerID int64) {
	query := req.URL.Query()
	todos, err := r.todos.List(req.Context(), ownerID, todo.ListInput{
		Completed: query.Get("completed"),
		Priority:  query.Get("priority"),
		DueStatus: query.Get("due_date_status"),
		Sort:      query.Get("sort"),
		Order:     query.Get("order"),
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	now := r.todos.Now()
	views := make([]todoView, 0, len(todos))
	for _, item := range todos {
		views = append(views, newTodoView(item, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"todos": views,
		"count": len(views),
	})
}

func (r *Router) createTodo(w http.ResponseWriter, req *http.Request, ownerID int64) {
	var payload struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Completed   bool    `json:"completed"`
		DueDate     *string `json:"due_date"`
		Priority    string  `json:"priority"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeValidationError(w, []string{"body: invalid JSON"})
		return
	}
	dueDate, ok := parseDueDate(payload.DueDate)
	if !ok {
		writeValidationError(w, []string{"due_date: must be an RFC 3339 timestamp"})
		return
	}
	created, err := r.todos.Create(req.Context(), ownerID, todo.CreateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Completed:   payload.Completed,
		DueDate:     dueDate,
		Priority:    payload.Priority,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTodoView(*created, r.todos.Now()))
}

func (r *Router) getTodo(w http.ResponseWriter, req *http.Request, ownerID, todoID int64) {
	item, err := r.todos.Get(req.Context(), ownerID, todoID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newTodoView(*item, r.todos.Now()))
}

func (r *Router) updateTodo(w http.ResponseWriter, req *http.Request, ownerID, todoID int64) {
	input, details := parseUpdateBody(req)
	if details != nil {
		writeValidationError(w, details)
		return
	}
	updated, err := r.todos.Update(req.Context(), ownerID, todoID, input)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newTodoView(*updated, r.todos.Now()))
}

func (r *Router) deleteTodo(w http.ResponseWriter, req *http.Request, ownerID, todoID int64) {
	if err := r.todos.Delete(req.Context(), ownerID, todoID); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseUpdateBody decodes a partial update, distinguishing absent keys from
// explicit nulls. Raw messages stay nil when the key is absent and hold the
// literal "null" when the client sent one.
func parseUpdateBody(req *http.Request) (todo.UpdateInput, []string) {
	var payload struct {
		Title       json.RawMessage `json:"title"`
		Description json.RawMessage `json:"description"`
		Completed   json.RawMessage `json:"completed"`
		DueDate     json.RawMessage `json:"due_date"`
		Priority    json.RawMessage `json:"priority"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		return todo.UpdateInput{}, []string{"body: invalid JSON"}
	}

	var (
		input   todo.UpdateInput
		details []string
	)
	if payload.Title != nil {
		input.TitleSet = true
		if !isJSONNull(payload.Title) {
			input.Title = new(string)
			if err := json.Unmarshal(payload.Title, input.Title); err != nil {
				details = append(details, "title: must be a string")
			}
		}
	}
	if payload.Description != nil {
		input.DescriptionSet = true
		if !isJSONNull(payload.Description) {
			input.Description = new(string)
			if err := json.Unmarshal(payload.Description, input.Description); err != nil {
				details = append(details, "description: must be a string")
			}
		}
	}
	if payload.Completed != nil {
		input.CompletedSet = true
		if !isJSONNull(payload.Completed) {
			input.Completed = new(bool)
			if err := json.Unmarshal(payload.Completed, input.Completed); err != nil {
				details = append(details, "completed: must be a boolean")
			}
		}
	}
	if payload.DueDate != nil {
		input.DueDateSet = true
		if !isJSONNull(payload.DueDate) {
			var raw string
			if err := json.Unmarshal(payload.DueDate, &raw); err != nil {
				details = append(details, "due_date: must be a string")
			} else if parsed, ok := parseDueDate(&raw); !ok {
				details = append(details, "due_date: must be an RFC 3339 timestamp")
			} else {
				input.DueDate = parsed
			}
		}
	}
	if payload.Priority != nil {
		input.PrioritySet = true
		if !isJSONNull(payload.Priority) {
			input.Priority = new(string)
			if err := json.Unmarshal(payload.Priority, input.Priority); err != nil {
				details = append(details, "priority: must be a string")
			}
		}
	}
	if details != nil {
		return todo.UpdateInput{}, details
	}
	return input, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func parseDueDate(raw *string) (*time.Time, bool) {
	if raw == nil {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, false
	}
	utc := parsed.UTC()
	return &utc, true
}

type todoView struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	Completed     bool       `json:"completed"`
	DueDate       *time.Time `json:"due_date"`
	DueDateStatus string     `json:"due_date_status"`
	Priority      string     `json:"priority"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newTodoView(t domain.Todo, now time.Time) todoView {
	return todoView{
		ID:            t.ID,
		UserID:        t.UserID,
		Title:         t.Title,
		Description:   t.Description,
		Completed:     t.Completed,
		DueDate:       t.DueDate,
		DueDateStatus: string(t.DueStatus(now)),
		Priority:      string(t.Priority),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func userView(u *domain.User) map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.DisplayName(),
	}
}

// writeServiceError maps service and repository failures to the error
// envelope.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeValidationError(w, validation.Fields)
	case errors.Is(err, repository.ErrNotFound):
		writeNotFound(w, "Todo not found")
	case errors.Is(err, repository.ErrInvalidArgument):
		writeValidationError(w, []string{"body: rejected by constraints"})
	case errors.Is(err, auth.ErrForbidden):
		writeForbidden(w)
	case errors.Is(err, auth.ErrBadCredentials):
		writeUnauthorized(w, "Invalid email or password")
	default:
		r.logger.Error("request failed", "error", err, "path", req.URL.Path)
		writeInternalError(w)
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		done := r.trackInFlight()

		defer func() {
			done()
			if rec := recover(); rec != nil {
				r.logger.Error("handler panicked", "panic", rec, "path", req.URL.Path, "request_id", reqID)
				if recorder.status == 0 {
					writeInternalError(recorder)
				}
			}

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			ctx := recorder.ctx
			if ctx == nil {
				ctx = req.Context()
			}
			duration := time.Since(start)
			r.recordRequestMetrics(req.Method, route, status, duration)

			actor := "anonymous"
			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"bytes", recorder.bytes,
				"duration_ms", duration.Milliseconds(),
				"request_id", reqID,
			}
			if ip := clientIP(req); ip != "" {
				fields = append(fields, "ip", ip)
			}
			if principal, ok := principalFromContext(ctx); ok {
				actor = "user"
				fields = append(fields, "user_id", principal)
			}
			fields = append(fields, "actor", actor)

			switch {
			case status >= http.StatusInternalServerError:
				r.logger.Error("http_request", fields...)
			case status >= http.StatusBadRequest:
				r.logger.Warn("http_request", fields...)
			default:
				r.logger.Info("http_request", fields...)
			}
		}()

		next(recorder, req)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed", nil)
}

func (r *Router) notFound(w http.ResponseWriter, message string) {
	writeNotFound(w, message)
}
