package auth

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	jwtpkg "github.com/taskloop/api/pkg/jwt"
)

const testSecret = "verifier-secret"

func signedToken(t *testing.T, claims jwtlib.MapClaims, secret string) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestVerifyHeaderClassifiesFailures(t *testing.T) {
	verifier := NewVerifier(testSecret)

	valid, err := jwtpkg.GenerateToken(9, "x@y.io", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	expired, err := jwtpkg.GenerateToken(9, "x@y.io", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate expired token: %v", err)
	}
	wrongSecret, err := jwtpkg.GenerateToken(9, "x@y.io", "other", time.Hour)
	if err != nil {
		t.Fatalf("generate foreign token: %v", err)
	}
	future := jwtlib.NewNumericDate(time.Now().Add(time.Hour))
	noUserID := signedToken(t, jwtlib.MapClaims{"exp": future.Unix()}, testSecret)
	stringUserID := signedToken(t, jwtlib.MapClaims{"user_id": "9", "exp": future.Unix()}, testSecret)

	cases := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"empty header", "", ErrMissingCredential},
		{"whitespace header", "   ", ErrMissingCredential},
		{"no scheme", valid, ErrMalformedCredential},
		{"wrong scheme", "Basic " + valid, ErrMalformedCredential},
		{"extra parts", "Bearer " + valid + " extra", ErrMalformedCredential},
		{"garbage token", "Bearer not.a.jwt", ErrInvalidCredential},
		{"wrong signature", "Bearer " + wrongSecret, ErrInvalidCredential},
		{"expired token", "Bearer " + expired, ErrExpiredCredential},
		{"missing user_id claim", "Bearer " + noUserID, ErrInvalidClaims},
		{"string user_id claim", "Bearer " + stringUserID, ErrInvalidClaims},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.VerifyHeader(tc.header)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestVerifyHeaderAcceptsValidToken(t *testing.T) {
	verifier := NewVerifier(testSecret)
	token, err := jwtpkg.GenerateToken(123, "x@y.io", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	principal, err := verifier.VerifyHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal != 123 {
		t.Fatalf("expected principal 123, got %d", principal)
	}
}

func TestVerifyHeaderCaseInsensitiveScheme(t *testing.T) {
	verifier := NewVerifier(testSecret)
	token, err := jwtpkg.GenerateToken(5, "x@y.io", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := verifier.VerifyHeader("bearer " + token); err != nil {
		t.Fatalf("lowercase scheme should be accepted: %v", err)
	}
}

func TestCheckOwner(t *testing.T) {
	cases := []struct {
		name      string
		principal int64
		owner     int64
		wantErr   bool
	}{
		{"match", 7, 7, false},
		{"mismatch", 7, 8, true},
		{"zero principal", 0, 7, true},
		{"negative principal", -1, 7, true},
		{"zero owner", 7, 0, true},
		{"both zero", 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckOwner(tc.principal, tc.owner)
			if tc.wantErr && !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
