package jwt

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuer = "taskloop"

var (
	// ErrMissingPrincipal indicates the token carries no user_id claim.
	ErrMissingPrincipal = errors.New("jwt: missing user_id claim")
	// ErrInvalidPrincipal indicates the user_id claim is not a positive integer.
	ErrInvalidPrincipal = errors.New("jwt: invalid user_id claim")
)

// Claims defines the JWT payload. The user_id claim is kept raw so a
// missing or wrong-typed principal can be told apart from a token that
// fails signature or expiry checks.
type Claims struct {
	RawUserID json.RawMessage `json:"user_id,omitempty"`
	Email     string          `json:"email,omitempty"`
	jwtlib.RegisteredClaims
}

// PrincipalID extracts the authenticated user identifier from the claims.
func (c *Claims) PrincipalID() (int64, error) {
	if len(c.RawUserID) == 0 || string(c.RawUserID) == "null" {
		return 0, ErrMissingPrincipal
	}
	var id int64
	if err := json.Unmarshal(c.RawUserID, &id); err != nil {
		return 0, ErrInvalidPrincipal
	}
	if id <= 0 {
		return 0, ErrInvalidPrincipal
	}
	return id, nil
}

// GenerateToken issues a signed HS256 JWT with the provided secret and ttl.
func GenerateToken(userID int64, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RawUserID: json.RawMessage(strconv.FormatInt(userID, 10)),
		Email:     email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates the signature and registered claims, returning the payload.
func Parse(token string, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}
