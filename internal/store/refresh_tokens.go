package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoply/internal/models"
)

type RefreshTokens struct{ DB *pgxpool.Pool }

func (s *RefreshTokens) Insert(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO refresh_tokens(id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)`,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	return err
}

// FindActive looks a token up by hash; revoked tokens are not returned.
// Expiry is the caller's concern, matching the flow where an expired token
// is revoked explicitly after the check.
func (s *RefreshTokens) FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at, replaced_by
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = FALSE`, tokenHash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.CreatedAt, &t.ReplacedByToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke marks the token revoked, optionally recording its replacement when
// the revocation is part of a rotation.
func (s *RefreshTokens) Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE, replaced_by = $2
		WHERE id = $1 AND revoked = FALSE`, id, replacedBy)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeByHash revokes the token identified by its hash. Used on logout,
// where only the plaintext token is presented.
func (s *RefreshTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE token_hash = $1 AND revoked = FALSE`, tokenHash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
