package redisx

import "time"

const (
	// Password reset: pwreset:{token} -> user_id
	KeyPasswordReset = "pwreset:%s"
)

var (
	TTLPasswordReset = 30 * time.Minute
)
