package jwt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestGenerateAndParseRoundtrip(t *testing.T) {
	token, err := GenerateToken(42, "user@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	id, err := claims.PrincipalID()
	if err != nil {
		t.Fatalf("principal id: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected principal 42, got %d", id)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Issuer != "taskloop" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(7, "a@b.io", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := Parse(token, "other-secret"); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken(7, "a@b.io", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	_, err = Parse(token, testSecret)
	if !errors.Is(err, jwtlib.ErrTokenExpired) {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	claims := Claims{RawUserID: json.RawMessage("1")}
	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := Parse(token, testSecret); err == nil {
		t.Fatalf("expected alg=none token to be rejected")
	}
}

func TestPrincipalID(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int64
		wantErr error
	}{
		{"integer claim", "42", 42, nil},
		{"absent claim", "", 0, ErrMissingPrincipal},
		{"null claim", "null", 0, ErrMissingPrincipal},
		{"string claim", `"42"`, 0, ErrInvalidPrincipal},
		{"object claim", `{"id":1}`, 0, ErrInvalidPrincipal},
		{"zero id", "0", 0, ErrInvalidPrincipal},
		{"negative id", "-3", 0, ErrInvalidPrincipal},
		{"fractional id", "1.5", 0, ErrInvalidPrincipal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := &Claims{}
			if tc.raw != "" {
				claims.RawUserID = json.RawMessage(tc.raw)
			}
			id, err := claims.PrincipalID()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, id)
			}
		})
	}
}
