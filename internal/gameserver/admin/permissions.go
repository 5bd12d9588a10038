package admin

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/udisondev/raidgate/internal/model"
)

// ErrUnknownPermission is returned for capability keys the gate does not define.
var ErrUnknownPermission = errors.New("unknown permission")

// Permissions stores capability grants per player.
// GMs implicitly hold every permission; access levels are learned from
// players seen by the gateway (Observe).
// Thread-safe: protected by RWMutex.
type Permissions struct {
	mu     sync.RWMutex
	grants map[model.PlayerID]map[string]struct{}
	levels map[model.PlayerID]int32
}

// NewPermissions creates an empty permission store.
func NewPermissions() *Permissions {
	return &Permissions{
		grants: make(map[model.PlayerID]map[string]struct{}, 16),
		levels: make(map[model.PlayerID]int32, 256),
	}
}

// Load replaces all grants with the given player id → permissions map.
// Nothing is changed when any entry is invalid.
func (p *Permissions) Load(grants map[string][]string) error {
	next := make(map[model.PlayerID]map[string]struct{}, len(grants))
	for rawID, perms := range grants {
		id, err := model.ParsePlayerID(rawID)
		if err != nil {
			return fmt.Errorf("permission grant %q: %w", rawID, err)
		}
		set := make(map[string]struct{}, len(perms))
		for _, perm := range perms {
			if !slices.Contains(model.KnownPermissions, perm) {
				return fmt.Errorf("permission grant %s: %w: %q", id, ErrUnknownPermission, perm)
			}
			set[perm] = struct{}{}
		}
		next[id] = set
	}

	p.mu.Lock()
	p.grants = next
	p.mu.Unlock()
	return nil
}

// Grant gives a permission to a player.
func (p *Permissions) Grant(id model.PlayerID, perm string) error {
	if !slices.Contains(model.KnownPermissions, perm) {
		return fmt.Errorf("%w: %q", ErrUnknownPermission, perm)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.grants[id]
	if !ok {
		set = make(map[string]struct{}, len(model.KnownPermissions))
		p.grants[id] = set
	}
	set[perm] = struct{}{}
	return nil
}

// Revoke removes a permission from a player.
func (p *Permissions) Revoke(id model.PlayerID, perm string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.grants[id]
	if !ok {
		return
	}
	delete(set, perm)
	if len(set) == 0 {
		delete(p.grants, id)
	}
}

// Observe records the access level of a connected player.
func (p *Permissions) Observe(player *model.Player) {
	if player == nil || !player.ID.IsPlayer() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if player.AccessLevel == 0 {
		delete(p.levels, player.ID)
		return
	}
	p.levels[player.ID] = player.AccessLevel
}

// HasPermission reports whether the player holds perm, directly or as a GM.
func (p *Permissions) HasPermission(id model.PlayerID, perm string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if level, ok := p.levels[id]; ok {
		if al := GetAccessLevel(level); al != nil && al.IsGM {
			return true
		}
	}
	_, ok := p.grants[id][perm]
	return ok
}

// Granted returns the explicit grants of a player, sorted.
func (p *Permissions) Granted(id model.PlayerID) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.grants[id]))
	for perm := range p.grants[id] {
		out = append(out, perm)
	}
	slices.Sort(out)
	return out
}
