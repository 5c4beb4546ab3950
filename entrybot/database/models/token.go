package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// AccessToken grants short-lived dashboard access.
type AccessToken struct {
	Token     string       `json:"-"`
	UserID    snowflake.ID `json:"user_id"`
	Username  string       `json:"username"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Valid reports whether the token is usable at now. The expiry instant
// itself is still valid.
func (t AccessToken) Valid(now time.Time) bool {
	return !now.After(t.ExpiresAt)
}
