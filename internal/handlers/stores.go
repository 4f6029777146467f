package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"shoply/internal/models"
	"shoply/internal/store"
)

// Store interfaces consumed by the handlers. The pgx-backed implementations
// live in internal/store; tests substitute in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type RefreshTokenStore interface {
	Insert(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error
	RevokeByHash(ctx context.Context, tokenHash string) error
}

type ProductStore interface {
	List(ctx context.Context, page, limit int64) ([]models.Product, error)
}

type OrderStore interface {
	Place(ctx context.Context, userID uuid.UUID, lines []store.OrderLine) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
}

// ResetTokenStore holds single-use password reset tokens. Consume must
// invalidate the token it returns the user for.
type ResetTokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// OrderEvents publishes order lifecycle events. A nil value disables
// publication.
type OrderEvents interface {
	Publish(key, value []byte, headers ...kafka.Header)
}
