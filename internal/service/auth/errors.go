package auth

import "errors"

// Credential verification failures. All of them surface to callers as the
// same unauthorized outcome but stay distinguishable for logging and tests.
var (
	// ErrMissingCredential: no credential was presented at all.
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrMalformedCredential: the carrier is not the "Bearer <token>" shape.
	ErrMalformedCredential = errors.New("auth: malformed credential")
	// ErrInvalidCredential: signature mismatch or structurally invalid token.
	ErrInvalidCredential = errors.New("auth: invalid credential")
	// ErrExpiredCredential: the token's exp is at or before the current time.
	ErrExpiredCredential = errors.New("auth: expired credential")
	// ErrInvalidClaims: valid token without a usable integer user_id claim.
	ErrInvalidClaims = errors.New("auth: invalid claims")
)

// ErrForbidden indicates the authenticated principal does not own the
// requested resource.
var ErrForbidden = errors.New("auth: forbidden")

// ErrBadCredentials indicates a signin attempt with an unknown email or a
// wrong password. The two cases are deliberately indistinguishable.
var ErrBadCredentials = errors.New("auth: bad credentials")
