package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/taskloop/api/internal/service/auth"
)

type authContextKey string

const contextKeyPrincipal authContextKey = "taskloop-principal"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth verifies the bearer credential before invoking the handler.
// Every verification failure yields the same unauthorized outcome; the
// distinct kinds are logged for diagnosis.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		principal, err := r.verifier.VerifyHeader(req.Header.Get("Authorization"))
		if err != nil {
			r.logger.Warn("credential rejected", "error", err, "path", req.URL.Path)
			writeUnauthorized(w, unauthorizedMessage(err))
			return
		}
		ctx := context.WithValue(req.Context(), contextKeyPrincipal, principal)
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// principalFromContext extracts the authenticated user id from context.
func principalFromContext(ctx context.Context) (int64, bool) {
	value := ctx.Value(contextKeyPrincipal)
	if value == nil {
		return 0, false
	}
	principal, ok := value.(int64)
	return principal, ok
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "Missing authentication token"
	case errors.Is(err, auth.ErrMalformedCredential):
		return "Invalid token format"
	case errors.Is(err, auth.ErrExpiredCredential):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidClaims):
		return "Invalid token claims"
	default:
		return "Invalid token"
	}
}
