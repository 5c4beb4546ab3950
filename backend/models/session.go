package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// UserSession is the signed login cookie payload.
type UserSession struct {
	UserID     snowflake.ID `json:"id"`
	Username   string       `json:"username"`
	GlobalName string       `json:"global_name,omitempty"`
	LoginAt    time.Time    `json:"login_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

func (s *UserSession) DisplayName() string {
	if s.GlobalName != "" {
		return s.GlobalName
	}
	return s.Username
}

// Expired reports whether the session is past its TTL at now.
func (s *UserSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
