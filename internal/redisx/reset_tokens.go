package redisx

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ResetTokens keeps password reset tokens in Redis under a TTL, so unused
// tokens expire on their own.
type ResetTokens struct {
	Client *redis.Client
}

func (r *ResetTokens) Save(ctx context.Context, token string, userID uuid.UUID) error {
	key := fmt.Sprintf(KeyPasswordReset, token)
	return r.Client.Set(ctx, key, userID.String(), TTLPasswordReset).Err()
}

// Consume returns the user the token was issued for and deletes it, so a
// token can be redeemed at most once.
func (r *ResetTokens) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	key := fmt.Sprintf(KeyPasswordReset, token)
	val, err := r.Client.GetDel(ctx, key).Result()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}
