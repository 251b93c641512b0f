package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/evently-app/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ users.Repository = (*UserRepository)(nil)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *users.User) error {
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (id, email, phone, password_hash, activity, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Phone, user.PasswordHash, user.Activity, string(user.Role),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getWhere(ctx, "lower(email) = lower($1)", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *UserRepository) getWhere(ctx context.Context, condition string, arg any) (*users.User, error) {
	var user users.User
	var role string
	err := r.pool.QueryRow(ctx, `
SELECT id, email, phone, password_hash, activity, role, created_at, updated_at
FROM users
WHERE `+condition, arg,
	).Scan(&user.ID, &user.Email, &user.Phone, &user.PasswordHash, &user.Activity, &role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.Role = users.Role(role)
	return &user, nil
}

func (r *UserRepository) GetProfiles(ctx context.Context, ids []string) (map[string]users.Profile, error) {
	if len(ids) == 0 {
		return map[string]users.Profile{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, email, phone, activity, role
FROM users
WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]users.Profile, len(ids))
	for rows.Next() {
		var id, role string
		var profile users.Profile
		if err := rows.Scan(&id, &profile.Email, &profile.Phone, &profile.Activity, &role); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profile.Role = users.Role(role)
		profiles[id] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}
