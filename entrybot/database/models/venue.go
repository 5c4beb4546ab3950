package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Venue is a registered check-in location, keyed by its two digit code.
type Venue struct {
	Code        string        `json:"-"`
	Name        string        `json:"store_name"`
	OwnerID     snowflake.ID  `json:"owner_id"`
	MinRoleID   *snowflake.ID `json:"min_role_id"`
	GrantRoleID *snowflake.ID `json:"grant_role_id"`
	Passphrase  *string       `json:"passphrase"`
	GuildID     snowflake.ID  `json:"guild_id,omitempty"`
	ChannelID   snowflake.ID  `json:"channel_id,omitempty"`
	MessageID   snowflake.ID  `json:"message_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

func (v Venue) RequiresPassphrase() bool {
	return v.Passphrase != nil && *v.Passphrase != ""
}

// VenuePatch carries the fields to overwrite. Nil fields are left untouched.
type VenuePatch struct {
	Name        *string
	MinRoleID   *snowflake.ID
	GrantRoleID *snowflake.ID
	Passphrase  *string
	ChannelID   *snowflake.ID
	MessageID   *snowflake.ID

	// ClearPassphrase removes the passphrase. It wins over Passphrase.
	ClearPassphrase bool
}

func (p VenuePatch) IsEmpty() bool {
	return p.Name == nil && p.MinRoleID == nil && p.GrantRoleID == nil &&
		p.Passphrase == nil && p.ChannelID == nil && p.MessageID == nil && !p.ClearPassphrase
}

// Apply merges the patch into v and stamps UpdatedAt.
func (p VenuePatch) Apply(v *Venue, now time.Time) {
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.MinRoleID != nil {
		id := *p.MinRoleID
		v.MinRoleID = &id
	}
	if p.GrantRoleID != nil {
		id := *p.GrantRoleID
		v.GrantRoleID = &id
	}
	switch {
	case p.ClearPassphrase:
		v.Passphrase = nil
	case p.Passphrase != nil:
		phrase := *p.Passphrase
		v.Passphrase = &phrase
	}
	if p.ChannelID != nil {
		v.ChannelID = *p.ChannelID
	}
	if p.MessageID != nil {
		v.MessageID = *p.MessageID
	}
	v.UpdatedAt = &now
}
