package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/domain"
)

type Users struct {
	pool *pgxpool.Pool
}

func (r *Users) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users(id, name, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *Users) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE id=$1`, id))
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE email=$1`, email))
}

func (r *Users) Update(ctx context.Context, u *domain.User) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE users SET name=$2, email=$3, password_hash=$4 WHERE id=$1`,
		u.ID, u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *Users) scan(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
