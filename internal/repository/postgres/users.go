package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskloop/api/internal/domain"
	"github.com/taskloop/api/internal/repository"
)

// CreateUser inserts a user and fills in the assigned identifier.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (email, name, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at`
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query, user.Email, nilIfEmpty(user.Name), user.PasswordHash).
		Scan(&user.ID, &createdAt)
	if err != nil {
		return mapPgError(err)
	}
	user.CreatedAt = createdAt.UTC()
	return nil
}

// GetUserByEmail fetches a user by email. Comparison is exact, as stored.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		name sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if name.Valid {
		u.Name = name.String
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
