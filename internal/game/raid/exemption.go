package raid

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/udisondev/raidgate/internal/model"
)

// DefaultClanLookupTimeout bounds a clan service call on the damage path.
const DefaultClanLookupTimeout = 250 * time.Millisecond

// ClanService answers clan membership questions.
// Optional: a nil ClanService means no clan integration is installed.
type ClanService interface {
	// IsMemberOrAlly reports whether attackerID belongs to the clan of
	// ownerID or to a clan allied with it.
	IsMemberOrAlly(ctx context.Context, ownerID, attackerID model.PlayerID) (bool, error)
}

// TeamRoster exposes in-game team membership.
type TeamRoster interface {
	// TeamMembers returns the members of the player's team (the player
	// included), or nil when the player is not in a team.
	TeamMembers(playerID model.PlayerID) []model.PlayerID
}

// ExemptionResolver decides whether an attacker may damage an owner's
// structures regardless of raid hours.
//
// Resolution order: owner themself, then the clan service when installed,
// then the attacker's team roster. Lookups only read state; a failing clan
// service resolves to "not exempt".
type ExemptionResolver struct {
	clans   ClanService
	teams   TeamRoster
	timeout time.Duration
}

// NewExemptionResolver creates a resolver. clans may be nil.
func NewExemptionResolver(clans ClanService, teams TeamRoster, timeout time.Duration) *ExemptionResolver {
	if timeout <= 0 {
		timeout = DefaultClanLookupTimeout
	}
	return &ExemptionResolver{clans: clans, teams: teams, timeout: timeout}
}

// IsExempt reports whether attacker may damage structures owned by ownerID.
func (r *ExemptionResolver) IsExempt(ctx context.Context, ownerID model.PlayerID, attacker *model.Player) bool {
	switch {
	case attacker == nil:
		return false
	case attacker.ID == ownerID:
		return true
	case r.clans != nil:
		return r.clanExempt(ctx, ownerID, attacker.ID)
	default:
		return r.teamExempt(ownerID, attacker.ID)
	}
}

func (r *ExemptionResolver) clanExempt(ctx context.Context, ownerID, attackerID model.PlayerID) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ok, err := r.clans.IsMemberOrAlly(ctx, ownerID, attackerID)
	if err != nil {
		slog.Warn("clan lookup failed, treating attacker as outsider",
			"owner", ownerID,
			"attacker", attackerID,
			"error", err)
		return false
	}
	slog.Debug("clan exemption checked",
		"owner", ownerID,
		"attacker", attackerID,
		"memberOrAlly", ok)
	return ok
}

func (r *ExemptionResolver) teamExempt(ownerID, attackerID model.PlayerID) bool {
	if r.teams == nil {
		return false
	}
	ok := slices.Contains(r.teams.TeamMembers(attackerID), ownerID)
	slog.Debug("team exemption checked",
		"owner", ownerID,
		"attacker", attackerID,
		"teamMate", ok)
	return ok
}
