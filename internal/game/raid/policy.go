package raid

import (
	"context"
	"log/slog"

	"github.com/udisondev/raidgate/internal/clock"
	"github.com/udisondev/raidgate/internal/model"
)

// ProtectionPercent is reported to attackers of a protected structure.
const ProtectionPercent = 100

// Outcome is the verdict for one hit.
type Outcome uint8

const (
	Allow Outcome = iota
	Mitigate
)

func (o Outcome) String() string {
	if o == Mitigate {
		return "mitigate"
	}
	return "allow"
}

// Reason explains a Decision.
type Reason string

const (
	ReasonNoHit            Reason = "no_hit"
	ReasonNotBlockable     Reason = "not_blockable"
	ReasonOwner            Reason = "owner"
	ReasonExempt           Reason = "exempt"
	ReasonNotPlayerOwned   Reason = "not_player_owned"
	ReasonUnprotectedOwner Reason = "unprotected_owner"
	ReasonNoWindow         Reason = "no_window"
	ReasonRaidTime         Reason = "raid_time"
	ReasonOutsideWindow    Reason = "outside_window"
)

// Decision is the result of Policy.OnDamage.
type Decision struct {
	Outcome Outcome
	Reason  Reason
}

func allow(r Reason) Decision { return Decision{Outcome: Allow, Reason: r} }

// Notifier shows the protection message to an attacker.
type Notifier interface {
	ShowProtection(player *model.Player, percent int)
}

// SoundPlayer plays a sound effect at a position.
type SoundPlayer interface {
	PlaySound(path string, pos model.Position)
}

// PermissionChecker reports whether a player holds a capability.
type PermissionChecker interface {
	HasPermission(playerID model.PlayerID, perm string) bool
}

// PolicyConfig tunes mitigation side effects.
type PolicyConfig struct {
	ShowMessage bool
	PlaySound   bool
	Sound       string

	// RequireProtectPermission limits protection to owners holding
	// model.PermProtect.
	RequireProtectPermission bool
}

// Policy decides, per hit, whether structure damage goes through.
// Thread-safe as long as its collaborators are; holds no mutable state of
// its own apart from the setters, which are called during wiring.
type Policy struct {
	cfg        PolicyConfig
	classifier *Classifier
	resolver   *ExemptionResolver
	schedule   *Schedule
	clock      clock.Clock

	notifier Notifier
	sound    SoundPlayer
	perms    PermissionChecker
}

// NewPolicy creates a damage policy.
func NewPolicy(cfg PolicyConfig, classifier *Classifier, resolver *ExemptionResolver, schedule *Schedule, clk clock.Clock) *Policy {
	if clk == nil {
		clk = clock.UTC{}
	}
	return &Policy{
		cfg:        cfg,
		classifier: classifier,
		resolver:   resolver,
		schedule:   schedule,
		clock:      clk,
	}
}

// SetNotifier installs the protection message sink.
func (p *Policy) SetNotifier(n Notifier) { p.notifier = n }

// SetSoundPlayer installs the deterrent sound sink.
func (p *Policy) SetSoundPlayer(s SoundPlayer) { p.sound = s }

// SetPermissions installs the capability lookup.
func (p *Policy) SetPermissions(c PermissionChecker) { p.perms = c }

// OnDamage evaluates a hit on e. On Mitigate the hit has been neutralized
// in place and the attacker notified.
func (p *Policy) OnDamage(ctx context.Context, e *model.Entity, hit *model.HitInfo) Decision {
	if e == nil || hit == nil {
		return allow(ReasonNoHit)
	}
	if !p.classifier.IsBlockable(e) {
		return allow(ReasonNotBlockable)
	}

	ownerID := e.OwnerID
	attacker := hit.Initiator
	if attacker != nil && attacker.ID == ownerID {
		return allow(ReasonOwner)
	}
	if p.resolver.IsExempt(ctx, ownerID, attacker) {
		return allow(ReasonExempt)
	}
	if !ownerID.IsPlayer() {
		return allow(ReasonNotPlayerOwned)
	}
	if p.cfg.RequireProtectPermission && !p.hasPermission(ownerID, model.PermProtect) {
		return allow(ReasonUnprotectedOwner)
	}

	w := p.schedule.Current()
	if !w.IsConfigured() {
		return allow(ReasonNoWindow)
	}
	if w.IsRaidTime(p.clock.Now()) {
		return allow(ReasonRaidTime)
	}

	var attackerID model.PlayerID
	if attacker != nil {
		attackerID = attacker.ID
	}
	slog.Info("structure attack blocked outside raid hours",
		"attacker", attackerID,
		"owner", ownerID,
		"prefab", e.PrefabName,
		"window", w.String())

	p.mitigate(hit)
	return Decision{Outcome: Mitigate, Reason: ReasonOutsideWindow}
}

// mitigate zeroes the hit and sends attacker feedback.
// Fire damage without a weapon (burning structures, incendiary splash)
// gets neither message nor sound to avoid flooding the attacker.
func (p *Policy) mitigate(hit *model.HitInfo) {
	fire := hit.IsFire()

	hit.Damage.Clear()
	hit.DoHitEffects = false
	hit.HitMaterial = 0

	attacker := hit.Initiator
	if attacker == nil {
		return
	}
	if p.cfg.ShowMessage && p.notifier != nil && (!fire || hit.WeaponPrefab != "") {
		p.notifier.ShowProtection(attacker, ProtectionPercent)
	}
	if p.cfg.PlaySound && p.sound != nil && !fire && p.cfg.Sound != "" {
		p.sound.PlaySound(p.cfg.Sound, attacker.Position)
	}
}

func (p *Policy) hasPermission(id model.PlayerID, perm string) bool {
	return p.perms != nil && p.perms.HasPermission(id, perm)
}
