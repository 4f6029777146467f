package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	TokenHash       string     `json:"tokenHash"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	Revoked         bool       `json:"revoked"`
	CreatedAt       time.Time  `json:"createdAt"`
	ReplacedByToken *uuid.UUID `json:"replacedByToken,omitempty"`
}
