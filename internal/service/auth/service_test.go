package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/taskloop/api/internal/domain"
	"github.com/taskloop/api/internal/repository"
	"github.com/taskloop/api/pkg/config"
	"github.com/taskloop/api/pkg/crypto"
)

type userRepoStub struct {
	users  map[string]*domain.User
	nextID int64
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*domain.User), nextID: 1}
}

func (s *userRepoStub) CreateUser(_ context.Context, user *domain.User) error {
	if _, exists := s.users[user.Email]; exists {
		return repository.ErrConflict
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.Email] = user
	return nil
}

func (s *userRepoStub) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newTestService(repo repository.UserRepository) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.APIConfig{JWTSecret: "service-secret", TokenTTL: time.Hour, BcryptCost: 4}
	return New(repo, logger, cfg)
}

func TestSignupCreatesUser(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)

	user, err := svc.Signup(context.Background(), " alice@example.com ", " Alice ", "password123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected trimmed email, got %q", user.Email)
	}
	if user.Name != "Alice" {
		t.Fatalf("expected trimmed name, got %q", user.Name)
	}
	if err := crypto.ComparePassword(user.PasswordHash, "password123"); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(newUserRepoStub())

	cases := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"empty email", "", "password123", "email"},
		{"bad email", "not-an-address", "password123", "email"},
		{"short password", "a@b.io", "short", "password"},
		{"long password", "a@b.io", strings.Repeat("x", 101), "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.email, "", tc.password)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, field := range validation.Fields {
				if strings.HasPrefix(field, tc.field+":") {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected detail for %q, got %v", tc.field, validation.Fields)
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), "dup@example.com", "", "password123"); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, err := svc.Signup(context.Background(), "dup@example.com", "", "password123")
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSigninIssuesToken(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)

	registered, err := svc.Signup(context.Background(), "bob@example.com", "Bob", "password123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, token, err := svc.Signin(context.Background(), "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %d, got %d", registered.ID, user.ID)
	}
	principal, err := svc.Verifier().VerifyToken(token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if principal != registered.ID {
		t.Fatalf("expected principal %d, got %d", registered.ID, principal)
	}
}

func TestSigninBadCredentialsIndistinguishable(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)
	if _, err := svc.Signup(context.Background(), "carol@example.com", "", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, _, unknownErr := svc.Signin(context.Background(), "nobody@example.com", "password123")
	_, _, wrongErr := svc.Signin(context.Background(), "carol@example.com", "wrong-password")

	if !errors.Is(unknownErr, ErrBadCredentials) || !errors.Is(wrongErr, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for both, got %v and %v", unknownErr, wrongErr)
	}
}

func TestCurrentUser(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)
	registered, err := svc.Signup(context.Background(), "dave@example.com", "Dave", "password123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, err := svc.CurrentUser(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.Email != "dave@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}

	if _, err := svc.CurrentUser(context.Background(), 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
