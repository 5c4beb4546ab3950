package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/disgoorg/entry-bot/entrybot/config"
)

// GuildREST is the slice of the Discord REST API the guild service uses.
// rest.Rest satisfies it.
type GuildREST interface {
	GetMember(guildID snowflake.ID, userID snowflake.ID, opts ...rest.RequestOpt) (*discord.Member, error)
	GetRoles(guildID snowflake.ID, opts ...rest.RequestOpt) ([]discord.Role, error)
	AddMemberRole(guildID snowflake.ID, userID snowflake.ID, roleID snowflake.ID, opts ...rest.RequestOpt) error
	CreateDMChannel(userID snowflake.ID, opts ...rest.RequestOpt) (*discord.DMChannel, error)
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// GuildService resolves members and roles over REST, grants roles and
// delivers owner DMs. Lookups are cached and concurrent misses coalesced.
type GuildService struct {
	rest  GuildREST
	cache *lru.Cache
	group singleflight.Group
	now   func() time.Time
}

func NewGuildService(r GuildREST) *GuildService {
	cache, _ := lru.New(config.CacheSize)
	return &GuildService{
		rest:  r,
		cache: cache,
		now:   time.Now,
	}
}

func (s *GuildService) cached(key string) (any, bool) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := raw.(cacheEntry)
	if s.now().After(entry.expiresAt) {
		s.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (s *GuildService) store(key string, value any, ttl time.Duration) {
	s.cache.Add(key, cacheEntry{value: value, expiresAt: s.now().Add(ttl)})
}

func isNotFound(err error) bool {
	var restErr *rest.Error
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func (s *GuildService) Member(ctx context.Context, guildID, userID snowflake.ID) (*GuildMember, error) {
	if guildID == 0 {
		return nil, nil
	}
	key := fmt.Sprintf("member:%s:%s", guildID, userID)
	if v, ok := s.cached(key); ok {
		return v.(*GuildMember), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		m, err := s.rest.GetMember(guildID, userID, rest.WithCtx(ctx))
		if isNotFound(err) {
			return (*GuildMember)(nil), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch member %s: %w", userID, err)
		}
		member := toGuildMember(m)
		s.store(key, member, config.MemberCacheExpiration)
		return member, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*GuildMember), nil
}

func toGuildMember(m *discord.Member) *GuildMember {
	display := m.User.Username
	if m.User.GlobalName != nil && *m.User.GlobalName != "" {
		display = *m.User.GlobalName
	}
	if m.Nick != nil && *m.Nick != "" {
		display = *m.Nick
	}

	username := m.User.Username
	if m.User.Discriminator != "" && m.User.Discriminator != "0" {
		username = fmt.Sprintf("%s#%s", username, m.User.Discriminator)
	}
	if username == "" {
		username = m.User.ID.String()
	}

	return &GuildMember{
		UserID:      m.User.ID,
		Username:    username,
		DisplayName: display,
		RoleIDs:     append([]snowflake.ID(nil), m.RoleIDs...),
	}
}

func (s *GuildService) roles(ctx context.Context, guildID snowflake.ID) ([]discord.Role, error) {
	key := "roles:" + guildID.String()
	if v, ok := s.cached(key); ok {
		return v.([]discord.Role), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		roles, err := s.rest.GetRoles(guildID, rest.WithCtx(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch roles of guild %s: %w", guildID, err)
		}
		s.store(key, roles, config.RoleCacheExpiration)
		return roles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]discord.Role), nil
}

// MeetsMinimumRole passes when the member holds the role itself or any role
// positioned at or above it.
func (s *GuildService) MeetsMinimumRole(ctx context.Context, guildID snowflake.ID, member *GuildMember, minRoleID snowflake.ID) (bool, error) {
	for _, id := range member.RoleIDs {
		if id == minRoleID {
			return true, nil
		}
	}
	if len(member.RoleIDs) == 0 {
		return false, nil
	}

	roles, err := s.roles(ctx, guildID)
	if err != nil {
		return false, err
	}
	positions := make(map[snowflake.ID]int, len(roles))
	for _, r := range roles {
		positions[r.ID] = r.Position
	}

	minPosition := positions[minRoleID]
	for _, id := range member.RoleIDs {
		if positions[id] >= minPosition {
			return true, nil
		}
	}
	return false, nil
}

// RoleNames lists the member's role names without @everyone, sorted.
func (s *GuildService) RoleNames(ctx context.Context, guildID snowflake.ID, member *GuildMember) ([]string, error) {
	roles, err := s.roles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}

	var result []string
	for _, id := range member.RoleIDs {
		if id == guildID {
			continue
		}
		if name := names[id]; name != "" {
			result = append(result, name)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i]) < strings.ToLower(result[j])
	})
	return result, nil
}

func (s *GuildService) GrantRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	if guildID == 0 {
		return errors.New("no guild configured")
	}
	if err := s.rest.AddMemberRole(guildID, userID, roleID, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to add role %s to %s: %w", roleID, userID, err)
	}
	s.cache.Remove(fmt.Sprintf("member:%s:%s", guildID, userID))
	return nil
}

func (s *GuildService) NotifyOwner(ctx context.Context, ownerID snowflake.ID, notice OwnerNotice) error {
	return s.SendDM(ctx, ownerID, OwnerNoticeEmbed(notice))
}

func (s *GuildService) SendDM(ctx context.Context, userID snowflake.ID, embed discord.Embed) error {
	channel, err := s.rest.CreateDMChannel(userID, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := s.rest.CreateMessage(channel.ID(), discord.MessageCreate{
		Embeds: []discord.Embed{embed},
	}, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}

// OwnerNoticeEmbed renders a notice as the DM embed sent to venue owners.
func OwnerNoticeEmbed(n OwnerNotice) discord.Embed {
	roles := "(none)"
	if len(n.RoleNames) > 0 {
		roles = strings.Join(n.RoleNames, ", ")
	}
	at := n.At.Format("15:04") + " (KST)"
	who := discord.UserMention(n.UserID)

	switch n.Kind {
	case NoticeRoleTooLow, NoticePassphraseMismatch:
		embed := discord.Embed{
			Title: fmt.Sprintf("⚠️ [Check-in failed] %s tried to check in", n.Nickname),
			Color: config.NoticeColor,
			Fields: []discord.EmbedField{
				{Name: "Venue", Value: n.VenueName, Inline: boolPtr(true)},
				{Name: "User", Value: who, Inline: boolPtr(true)},
				{Name: "Time", Value: at, Inline: boolPtr(true)},
			},
		}
		if n.Kind == NoticeRoleTooLow {
			embed.Description = "**Reason**: minimum role not met"
			embed.Fields = append(embed.Fields, discord.EmbedField{Name: "Current roles", Value: roles})
			return embed
		}
		embed.Color = config.ErrorColor
		embed.Description = "**Reason**: passphrase mismatch"
		embed.Fields = append(embed.Fields,
			discord.EmbedField{Name: "Entered passphrase", Value: "`" + n.Passphrase + "`", Inline: boolPtr(true)},
			discord.EmbedField{Name: "Roles", Value: roles},
		)
		return embed
	}

	embed := discord.Embed{
		Title: fmt.Sprintf("✅ [Check-in] %s checked in (%s)", n.Nickname, VisitLabel(n.VisitCount)),
		Color: config.SuccessColor,
		Fields: []discord.EmbedField{
			{Name: "Venue", Value: n.VenueName, Inline: boolPtr(true)},
			{Name: "Visitor", Value: who, Inline: boolPtr(true)},
			{Name: "Time", Value: at, Inline: boolPtr(true)},
			{Name: "Visits", Value: Ordinal(n.VisitCount) + " visit", Inline: boolPtr(true)},
			{Name: "Roles", Value: roles},
		},
	}
	if n.RoleGranted {
		embed.Fields = append(embed.Fields, discord.EmbedField{Name: "Role grant", Value: "✅ granted", Inline: boolPtr(true)})
	}
	return embed
}

// VisitLabel is "first visit" for a first check-in and "visit #N" after.
func VisitLabel(count int) string {
	if count <= 1 {
		return "first visit"
	}
	return fmt.Sprintf("visit #%d", count)
}

func Ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func boolPtr(b bool) *bool { return &b }
