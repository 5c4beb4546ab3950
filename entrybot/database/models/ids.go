package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
)

// looseID decodes a Discord id written either as a JSON string or as a bare
// number. Data files written before ids were quoted use the number form.
type looseID snowflake.ID

func (id *looseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid id %s: %w", s, err)
		}
		s = unquoted
	}
	if s == "" {
		*id = 0
		return nil
	}
	parsed, err := snowflake.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", s, err)
	}
	*id = looseID(parsed)
	return nil
}

func (id *looseID) ptr() *snowflake.ID {
	if id == nil {
		return nil
	}
	v := snowflake.ID(*id)
	return &v
}

func (v *Venue) UnmarshalJSON(b []byte) error {
	type Alias Venue
	aux := struct {
		*Alias
		OwnerID     looseID  `json:"owner_id"`
		MinRoleID   *looseID `json:"min_role_id"`
		GrantRoleID *looseID `json:"grant_role_id"`
		GuildID     looseID  `json:"guild_id"`
		ChannelID   looseID  `json:"channel_id"`
		MessageID   looseID  `json:"message_id"`
	}{Alias: (*Alias)(v)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	v.OwnerID = snowflake.ID(aux.OwnerID)
	v.MinRoleID = aux.MinRoleID.ptr()
	v.GrantRoleID = aux.GrantRoleID.ptr()
	v.GuildID = snowflake.ID(aux.GuildID)
	v.ChannelID = snowflake.ID(aux.ChannelID)
	v.MessageID = snowflake.ID(aux.MessageID)
	return nil
}

func (v *Visit) UnmarshalJSON(b []byte) error {
	type Alias Visit
	aux := struct {
		*Alias
		UserID looseID `json:"user_id"`
	}{Alias: (*Alias)(v)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	v.UserID = snowflake.ID(aux.UserID)
	return nil
}

func (t *AccessToken) UnmarshalJSON(b []byte) error {
	type Alias AccessToken
	aux := struct {
		*Alias
		UserID looseID `json:"user_id"`
	}{Alias: (*Alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.UserID = snowflake.ID(aux.UserID)
	return nil
}
