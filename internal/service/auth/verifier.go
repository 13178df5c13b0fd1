package auth

import (
	"errors"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	jwtpkg "github.com/taskloop/api/pkg/jwt"
)

// Verifier validates bearer credentials statelessly and extracts the
// authenticated principal. It holds no per-request state.
type Verifier struct {
	secret string
}

// NewVerifier constructs a Verifier for the given signing secret.
func NewVerifier(secret string) Verifier {
	return Verifier{secret: secret}
}

// VerifyHeader checks an Authorization header value and returns the
// principal identifier. Failures are classified: missing header, malformed
// carrier, invalid or expired token, and unusable claims each map to their
// own sentinel, all of which callers treat as unauthorized.
func (v Verifier) VerifyHeader(header string) (int64, error) {
	if strings.TrimSpace(header) == "" {
		return 0, ErrMissingCredential
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, ErrMalformedCredential
	}
	return v.VerifyToken(parts[1])
}

// VerifyToken checks a raw token string and returns the principal identifier.
func (v Verifier) VerifyToken(token string) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, ErrMalformedCredential
	}
	claims, err := jwtpkg.Parse(token, v.secret)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return 0, fmt.Errorf("%w: %v", ErrExpiredCredential, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	principal, err := claims.PrincipalID()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
	return principal, nil
}
