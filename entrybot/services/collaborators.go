package services

//go:generate mockgen -source=collaborators.go -destination=mock/collaborators.go -package=mock

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// GuildMember is the subset of a Discord member the check-in flow needs.
type GuildMember struct {
	UserID      snowflake.ID
	Username    string
	DisplayName string
	RoleIDs     []snowflake.ID
}

// MemberDirectory looks up guild members and evaluates role requirements.
// Member returns nil, nil when the user is not in the guild.
type MemberDirectory interface {
	Member(ctx context.Context, guildID, userID snowflake.ID) (*GuildMember, error)
	MeetsMinimumRole(ctx context.Context, guildID snowflake.ID, member *GuildMember, minRoleID snowflake.ID) (bool, error)
	RoleNames(ctx context.Context, guildID snowflake.ID, member *GuildMember) ([]string, error)
}

type RoleGranter interface {
	GrantRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error
}

type NoticeKind int

const (
	NoticeCheckedIn NoticeKind = iota
	NoticeRoleTooLow
	NoticePassphraseMismatch
)

// OwnerNotice describes a check-in attempt reported to the venue owner.
type OwnerNotice struct {
	Kind        NoticeKind
	VenueName   string
	UserID      snowflake.ID
	Nickname    string
	At          time.Time
	VisitCount  int
	RoleNames   []string
	RoleGranted bool
	Passphrase  string
}

type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, ownerID snowflake.ID, notice OwnerNotice) error
}
