package model

// DamageType classifies a portion of incoming damage.
type DamageType string

const (
	DamageGeneric   DamageType = "generic"
	DamageBullet    DamageType = "bullet"
	DamageSlash     DamageType = "slash"
	DamageBlunt     DamageType = "blunt"
	DamageStab      DamageType = "stab"
	DamageExplosion DamageType = "explosion"
	DamageHeat      DamageType = "heat" // fire, incendiary ammo, flamethrowers
	DamageDecay     DamageType = "decay"
)

// DamageTypes holds damage amounts per type for a single hit.
type DamageTypes map[DamageType]float32

// Total returns the sum of all damage amounts.
func (d DamageTypes) Total() float32 {
	var sum float32
	for _, v := range d {
		sum += v
	}
	return sum
}

// Majority returns the type carrying the most damage, or "" when empty.
// Ties resolve to the lexically smallest type so the result is deterministic.
func (d DamageTypes) Majority() DamageType {
	var (
		best    DamageType
		bestAmt float32
	)
	for t, v := range d {
		if v <= 0 {
			continue
		}
		if v > bestAmt || (v == bestAmt && t < best) {
			best, bestAmt = t, v
		}
	}
	return best
}

// Clear removes every damage entry in place.
func (d DamageTypes) Clear() {
	clear(d)
}

// HitInfo describes one incoming hit on an entity.
type HitInfo struct {
	// Initiator is the attacking player, nil for non-player sources
	// (traps, decay, environment).
	Initiator    *Player     `json:"initiator,omitempty"`
	Damage       DamageTypes `json:"damage"`
	DoHitEffects bool        `json:"do_hit_effects"`
	HitMaterial  uint32      `json:"hit_material"`
	WeaponPrefab string      `json:"weapon_prefab,omitempty"` // "" when no weapon is identifiable
	HitPosition  Position    `json:"hit_position"`
}

// IsFire reports whether the hit is predominantly heat damage.
func (h *HitInfo) IsFire() bool {
	return h.Damage.Majority() == DamageHeat
}
