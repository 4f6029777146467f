package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoply/internal/models"
)

type Users struct{ DB *pgxpool.Pool }

const uniqueViolation = "23505"

func (s *Users) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.DB.Exec(ctx, `
		INSERT INTO users(id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *Users) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findBy(ctx, `id = $1`, id)
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findBy(ctx, `username = $1`, username)
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findBy(ctx, `email = $1`, email)
}

func (s *Users) findBy(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Users) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE users SET email = $2, updated_at = NOW() WHERE id = $1`, id, email)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
