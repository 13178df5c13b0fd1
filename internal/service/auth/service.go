package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"log/slog"

	"github.com/taskloop/api/internal/domain"
	"github.com/taskloop/api/internal/repository"
	"github.com/taskloop/api/pkg/config"
	"github.com/taskloop/api/pkg/crypto"
	jwtpkg "github.com/taskloop/api/pkg/jwt"
)

const (
	passwordMinLen = 8
	passwordMaxLen = 100
)

// Service handles account registration, credential checks and token issuance.
type Service struct {
	users    repository.UserRepository
	verifier Verifier
	logger   *slog.Logger
	cfg      config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, verifier: NewVerifier(cfg.JWTSecret), logger: logger, cfg: cfg}
}

// Verifier exposes the credential verifier for middleware use.
func (s Service) Verifier() Verifier {
	return s.verifier
}

// Signup registers a new user with a bcrypt-hashed password. No token is
// issued; the user signs in afterwards.
func (s Service) Signup(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if err := validateSignup(email, password); err != nil {
		return nil, err
	}
	hash, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.Invalid("email: already registered")
		}
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Signin authenticates by email and password and issues a signed token.
// Unknown email and wrong password produce the same error.
func (s Service) Signin(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrBadCredentials
		}
		return nil, "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrBadCredentials
	}
	token, err := jwtpkg.GenerateToken(user.ID, user.Email, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user signed in", "user_id", user.ID)
	return user, token, nil
}

// CurrentUser loads the profile for an authenticated principal.
func (s Service) CurrentUser(ctx context.Context, principalID int64) (*domain.User, error) {
	return s.users.GetUserByID(ctx, principalID)
}

func validateSignup(email, password string) error {
	var fields []string
	if email == "" {
		fields = append(fields, "email: required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, "email: not a valid address")
	}
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		fields = append(fields, "password: must be 8-100 characters")
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
