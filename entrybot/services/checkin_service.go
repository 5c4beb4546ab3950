package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

type CheckinOutcome int

const (
	OutcomeCheckedIn CheckinOutcome = iota
	OutcomeAlreadyCheckedIn
	OutcomeVenueNotFound
	OutcomeNotMember
	OutcomeRoleTooLow
	OutcomePassphraseRequired
	OutcomePassphraseMismatch
)

func (o CheckinOutcome) String() string {
	switch o {
	case OutcomeCheckedIn:
		return "checked_in"
	case OutcomeAlreadyCheckedIn:
		return "already_checked_in"
	case OutcomeVenueNotFound:
		return "venue_not_found"
	case OutcomeNotMember:
		return "not_member"
	case OutcomeRoleTooLow:
		return "role_too_low"
	case OutcomePassphraseRequired:
		return "passphrase_required"
	case OutcomePassphraseMismatch:
		return "passphrase_mismatch"
	}
	return "unknown"
}

// Success reports whether the user is checked in for today, new or not.
func (o CheckinOutcome) Success() bool {
	return o == OutcomeCheckedIn || o == OutcomeAlreadyCheckedIn
}

const (
	SourceBot = "bot"
	SourceWeb = "web"
)

type CheckinRequest struct {
	Code       string
	UserID     snowflake.ID
	Passphrase string
	Source     string
}

type CheckinResult struct {
	Outcome     CheckinOutcome
	Venue       *models.Venue
	Nickname    string
	VisitCount  int
	RoleGranted bool
	RoleNames   []string
}

const sideEffectTimeout = 15 * time.Second

// CheckinService runs the check-in state machine: venue lookup, guild
// membership, minimum role, passphrase, then the ledger write. Rejections are
// reported as outcomes; only infrastructure failures return an error.
type CheckinService struct {
	venues       repositories.VenueRepository
	visits       repositories.VisitRepository
	members      MemberDirectory
	roles        RoleGranter
	notifier     OwnerNotifier
	clock        clock.Clock
	metrics      *metrics.Metrics
	defaultGuild snowflake.ID
	async        bool
}

func NewCheckinService(
	venues repositories.VenueRepository,
	visits repositories.VisitRepository,
	members MemberDirectory,
	roles RoleGranter,
	notifier OwnerNotifier,
	c clock.Clock,
	m *metrics.Metrics,
	defaultGuild snowflake.ID,
) *CheckinService {
	return &CheckinService{
		venues:       venues,
		visits:       visits,
		members:      members,
		roles:        roles,
		notifier:     notifier,
		clock:        c,
		metrics:      m,
		defaultGuild: defaultGuild,
		async:        true,
	}
}

// GuildFor returns the guild a venue belongs to.
func (s *CheckinService) GuildFor(v *models.Venue) snowflake.ID {
	if v.GuildID != 0 {
		return v.GuildID
	}
	return s.defaultGuild
}

func (s *CheckinService) CheckIn(ctx context.Context, req CheckinRequest) (*CheckinResult, error) {
	result, err := s.checkIn(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.IncCheckin(result.Outcome.String(), req.Source)
	slog.Info("Check-in processed",
		slog.String("type", "sys"),
		slog.String("venue", req.Code),
		slog.String("user_id", req.UserID.String()),
		slog.String("source", req.Source),
		slog.String("outcome", result.Outcome.String()),
	)
	return result, nil
}

func (s *CheckinService) checkIn(ctx context.Context, req CheckinRequest) (*CheckinResult, error) {
	venue, err := s.venues.Get(ctx, req.Code)
	if repositories.IsNotFound(err) {
		return &CheckinResult{Outcome: OutcomeVenueNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	result := &CheckinResult{Venue: venue}

	guildID := s.GuildFor(venue)
	member, err := s.members.Member(ctx, guildID, req.UserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		result.Outcome = OutcomeNotMember
		return result, nil
	}
	result.Nickname = member.DisplayName

	if venue.MinRoleID != nil {
		ok, err := s.members.MeetsMinimumRole(ctx, guildID, member, *venue.MinRoleID)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Outcome = OutcomeRoleTooLow
			result.RoleNames = s.roleNames(ctx, guildID, member)
			s.notify(venue.OwnerID, OwnerNotice{
				Kind:      NoticeRoleTooLow,
				VenueName: venue.Name,
				UserID:    req.UserID,
				Nickname:  member.DisplayName,
				At:        s.clock.Now(),
				RoleNames: result.RoleNames,
			})
			return result, nil
		}
	}

	if venue.RequiresPassphrase() {
		if req.Passphrase == "" {
			result.Outcome = OutcomePassphraseRequired
			return result, nil
		}
		if req.Passphrase != *venue.Passphrase {
			result.Outcome = OutcomePassphraseMismatch
			s.notify(venue.OwnerID, OwnerNotice{
				Kind:       NoticePassphraseMismatch,
				VenueName:  venue.Name,
				UserID:     req.UserID,
				Nickname:   member.DisplayName,
				At:         s.clock.Now(),
				RoleNames:  s.roleNames(ctx, guildID, member),
				Passphrase: req.Passphrase,
			})
			return result, nil
		}
	}

	recorded, err := s.visits.RecordVisit(ctx, venue.Code, req.UserID, member.Username, member.DisplayName, clock.Today(s.clock))
	if err != nil {
		return nil, err
	}
	if !recorded.Created {
		result.Outcome = OutcomeAlreadyCheckedIn
		return result, nil
	}

	result.Outcome = OutcomeCheckedIn
	if result.VisitCount, err = s.visits.CountVisits(ctx, venue.Code, req.UserID); err != nil {
		return nil, err
	}

	if venue.GrantRoleID != nil {
		if err := s.roles.GrantRole(ctx, guildID, req.UserID, *venue.GrantRoleID); err != nil {
			slog.Warn("Failed to grant check-in role",
				slog.String("type", "sys"),
				slog.String("venue", venue.Code),
				slog.String("user_id", req.UserID.String()),
				slog.Any("error", err),
			)
		} else {
			result.RoleGranted = true
		}
	}

	result.RoleNames = s.roleNames(ctx, guildID, member)
	s.notify(venue.OwnerID, OwnerNotice{
		Kind:        NoticeCheckedIn,
		VenueName:   venue.Name,
		UserID:      req.UserID,
		Nickname:    member.DisplayName,
		At:          recorded.Visit.CreatedAt,
		VisitCount:  result.VisitCount,
		RoleNames:   result.RoleNames,
		RoleGranted: result.RoleGranted,
	})
	return result, nil
}

func (s *CheckinService) roleNames(ctx context.Context, guildID snowflake.ID, member *GuildMember) []string {
	names, err := s.members.RoleNames(ctx, guildID, member)
	if err != nil {
		slog.Warn("Failed to resolve member roles",
			slog.String("type", "sys"),
			slog.String("user_id", member.UserID.String()),
			slog.Any("error", err),
		)
		return nil
	}
	return names
}

// notify delivers the owner notice without blocking the check-in reply.
func (s *CheckinService) notify(ownerID snowflake.ID, notice OwnerNotice) {
	if ownerID == 0 || s.notifier == nil {
		return
	}
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := s.notifier.NotifyOwner(ctx, ownerID, notice); err != nil {
			slog.Warn("Failed to notify venue owner",
				slog.String("type", "sys"),
				slog.String("owner_id", ownerID.String()),
				slog.Any("error", err),
			)
		}
	}
	if s.async {
		go send()
		return
	}
	send()
}

// Message is the reply shown to the visitor on both the bot and the web page.
func (r *CheckinResult) Message() string {
	switch r.Outcome {
	case OutcomeCheckedIn:
		return fmt.Sprintf("Checked in to %s! This is your %s visit.", r.Venue.Name, Ordinal(r.VisitCount))
	case OutcomeAlreadyCheckedIn:
		return "You have already checked in today. (once per day)"
	case OutcomeVenueNotFound:
		return "This venue is not registered."
	case OutcomeNotMember:
		return "Please join the Discord server first."
	case OutcomeRoleTooLow:
		return "You don't have the role required to enter."
	case OutcomePassphraseRequired:
		return "Please enter the passphrase."
	case OutcomePassphraseMismatch:
		return "The passphrase does not match."
	}
	return "Check-in failed."
}
