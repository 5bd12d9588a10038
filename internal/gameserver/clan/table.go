package clan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/udisondev/raidgate/internal/model"
)

// Clan name limits.
const (
	MinClanNameLen = 2
	MaxClanNameLen = 16
)

// Table errors.
var (
	ErrClanNameTaken   = errors.New("clan name already taken")
	ErrClanNameInvalid = errors.New("invalid clan name")
	ErrClanNotFound    = errors.New("clan not found")
)

// Table holds every clan and answers membership queries for the raid gate.
// Thread-safe: protected by RWMutex.
type Table struct {
	mu sync.RWMutex

	// Clans by ID.
	clans map[int32]*Clan

	// Clan name -> ID index (lowercase for case-insensitive lookup).
	nameIndex map[string]int32

	// Player -> clan ID index.
	memberIndex map[model.PlayerID]int32

	// Next clan ID counter.
	nextID atomic.Int32
}

// NewTable creates a new clan table.
func NewTable() *Table {
	return &Table{
		clans:       make(map[int32]*Clan, 128),
		nameIndex:   make(map[string]int32, 128),
		memberIndex: make(map[model.PlayerID]int32, 1024),
	}
}

// Create creates a new clan led by leaderID.
func (t *Table) Create(name string, leaderID model.PlayerID) (*Clan, error) {
	if err := validateClanName(name); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	lowerName := strings.ToLower(name)
	if _, ok := t.nameIndex[lowerName]; ok {
		return nil, ErrClanNameTaken
	}
	if _, ok := t.memberIndex[leaderID]; ok {
		return nil, ErrAlreadyInClan
	}

	id := t.nextID.Add(1)
	for t.clans[id] != nil {
		id = t.nextID.Add(1)
	}
	c := New(id, name, leaderID)

	t.clans[id] = c
	t.nameIndex[lowerName] = id
	t.memberIndex[leaderID] = id

	slog.Info("clan created", "clan_id", id, "name", name, "leader_id", leaderID)
	return c, nil
}

// Upsert creates or fully replaces a clan from a snapshot (database load,
// host sync). Members listed here are moved out of any other clan.
// Host-provided names skip the charset rules applied by Create.
func (t *Table) Upsert(s Snapshot) error {
	if s.ID <= 0 {
		return fmt.Errorf("upsert clan %q: invalid id %d", s.Name, s.ID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("upsert clan %d: %w: empty name", s.ID, ErrClanNameInvalid)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	lowerName := strings.ToLower(s.Name)
	if owner, ok := t.nameIndex[lowerName]; ok && owner != s.ID {
		return fmt.Errorf("upsert clan %q: %w", s.Name, ErrClanNameTaken)
	}

	c, exists := t.clans[s.ID]
	if exists {
		delete(t.nameIndex, strings.ToLower(c.Name()))
		for _, id := range c.Members() {
			delete(t.memberIndex, id)
		}
	} else {
		c = New(s.ID, s.Name, s.LeaderID)
		t.clans[s.ID] = c
	}
	c.replace(s)

	for _, id := range c.Members() {
		if other, ok := t.memberIndex[id]; ok && other != s.ID {
			if oc := t.clans[other]; oc != nil {
				oc.removeMember(id)
			}
		}
		t.memberIndex[id] = s.ID
	}
	t.nameIndex[lowerName] = s.ID

	if s.ID > t.nextID.Load() {
		t.nextID.Store(s.ID)
	}
	return nil
}

// Disband removes a clan from the table.
func (t *Table) Disband(clanID int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clans[clanID]
	if !ok {
		return ErrClanNotFound
	}

	for _, id := range c.Members() {
		if t.memberIndex[id] == clanID {
			delete(t.memberIndex, id)
		}
	}
	delete(t.clans, clanID)
	delete(t.nameIndex, strings.ToLower(c.Name()))

	slog.Info("clan disbanded", "clan_id", clanID, "name", c.Name())
	return nil
}

// Join adds a player to a clan.
func (t *Table) Join(clanID int32, playerID model.PlayerID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clans[clanID]
	if !ok {
		return ErrClanNotFound
	}
	if _, in := t.memberIndex[playerID]; in {
		return ErrAlreadyInClan
	}
	c.addMember(playerID)
	t.memberIndex[playerID] = clanID
	return nil
}

// Leave removes a player from their clan.
func (t *Table) Leave(playerID model.PlayerID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	clanID, ok := t.memberIndex[playerID]
	if !ok {
		return ErrNotInClan
	}
	c := t.clans[clanID]
	if c.LeaderID() == playerID {
		return ErrLeaderLeaving
	}
	c.removeMember(playerID)
	delete(t.memberIndex, playerID)
	return nil
}

// SetAlly puts a clan into an alliance (0 leaves it).
func (t *Table) SetAlly(clanID, allyID int32) error {
	t.mu.RLock()
	c, ok := t.clans[clanID]
	t.mu.RUnlock()
	if !ok {
		return ErrClanNotFound
	}
	c.setAllyID(allyID)
	return nil
}

// Clan returns a clan by ID, or nil if not found.
func (t *Table) Clan(id int32) *Clan {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clans[id]
}

// ClanByName returns a clan by name (case-insensitive), or nil if not found.
func (t *Table) ClanByName(name string) *Clan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.nameIndex[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return t.clans[id]
}

// ClanOf returns the player's clan, or nil.
func (t *Table) ClanOf(playerID model.PlayerID) *Clan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.memberIndex[playerID]
	if !ok {
		return nil
	}
	return t.clans[id]
}

// ClanAllies returns all clans belonging to the given alliance ID.
func (t *Table) ClanAllies(allyID int32) []*Clan {
	if allyID == 0 {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []*Clan
	for _, c := range t.clans {
		if c.AllyID() == allyID {
			result = append(result, c)
		}
	}
	return result
}

// Count returns the number of registered clans.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clans)
}

// IsMemberOrAlly reports whether attackerID is in ownerID's clan or in a
// clan allied with it. Players without a clan are nobody's allies.
func (t *Table) IsMemberOrAlly(ctx context.Context, ownerID, attackerID model.PlayerID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	ownerClan, ok := t.memberIndex[ownerID]
	if !ok {
		return false, nil
	}
	attackerClan, ok := t.memberIndex[attackerID]
	if !ok {
		return false, nil
	}
	if ownerClan == attackerClan {
		return true, nil
	}

	allyID := t.clans[ownerClan].AllyID()
	return allyID != 0 && allyID == t.clans[attackerClan].AllyID(), nil
}

// validateClanName checks clan name constraints.
func validateClanName(name string) error {
	if len(name) < MinClanNameLen || len(name) > MaxClanNameLen {
		return fmt.Errorf("%w: length must be %d-%d", ErrClanNameInvalid, MinClanNameLen, MaxClanNameLen)
	}
	for _, r := range name {
		if !isValidClanNameChar(r) {
			return fmt.Errorf("%w: invalid character %q", ErrClanNameInvalid, r)
		}
	}
	return nil
}

// isValidClanNameChar returns true if the rune is allowed in a clan name.
// Allows: A-Z, a-z, 0-9, '-' and '_'.
func isValidClanNameChar(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
