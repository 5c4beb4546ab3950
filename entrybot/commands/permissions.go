package commands

import (
	"slices"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
)

// Actor is the invoking user as seen by permission checks.
type Actor struct {
	UserID        snowflake.ID
	RoleIDs       []snowflake.ID
	Administrator bool
}

type memberEvent interface {
	User() discord.User
	Member() *discord.ResolvedMember
}

func ActorOf(e memberEvent) Actor {
	a := Actor{UserID: e.User().ID}
	if m := e.Member(); m != nil {
		a.RoleIDs = m.RoleIDs
		a.Administrator = m.Permissions.Has(discord.PermissionAdministrator)
	}
	return a
}

// Permissions decides who may manage venues and who may use admin commands.
type Permissions struct {
	AllowedRoleIDs  []snowflake.ID
	AdminRoleIDs    []snowflake.ID
	DeveloperUserID snowflake.ID
}

func NewPermissions(cfg entrybot.AccessConfig) Permissions {
	return Permissions{
		AllowedRoleIDs:  cfg.AllowedRoleIDs,
		AdminRoleIDs:    cfg.AdminRoleIDs,
		DeveloperUserID: cfg.DeveloperUserID,
	}
}

// IsManager reports whether a may register and manage venues. With no
// allowed roles configured everyone may.
func (p Permissions) IsManager(a Actor) bool {
	if len(p.AllowedRoleIDs) == 0 {
		return true
	}
	return hasAny(a.RoleIDs, p.AllowedRoleIDs)
}

// IsAdmin covers the developer, the admin roles and the Discord
// Administrator permission.
func (p Permissions) IsAdmin(a Actor) bool {
	if p.DeveloperUserID != 0 && a.UserID == p.DeveloperUserID {
		return true
	}
	if hasAny(a.RoleIDs, p.AdminRoleIDs) {
		return true
	}
	return a.Administrator
}

func (p Permissions) IsAdminOrManager(a Actor) bool {
	return p.IsAdmin(a) || p.IsManager(a)
}

// CanModify reports whether a may update or delete v.
func (p Permissions) CanModify(a Actor, v *models.Venue) bool {
	return v.OwnerID == a.UserID || p.IsAdmin(a)
}

func hasAny(have, want []snowflake.ID) bool {
	for _, id := range want {
		if slices.Contains(have, id) {
			return true
		}
	}
	return false
}
