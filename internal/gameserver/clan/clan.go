package clan

import (
	"errors"
	"slices"
	"sync"

	"github.com/udisondev/raidgate/internal/model"
)

// Common clan errors.
var (
	ErrAlreadyInClan = errors.New("already in clan")
	ErrNotInClan     = errors.New("not in clan")
	ErrLeaderLeaving = errors.New("clan leader cannot leave; disband instead")
)

// Clan is a player clan as known to the raid gate.
// Clans sharing a non-zero ally ID are allies.
// Thread-safe: all mutable fields protected by mu. Membership changes go
// through Table so the member index stays consistent.
type Clan struct {
	mu sync.RWMutex

	id       int32
	name     string
	leaderID model.PlayerID
	allyID   int32

	members map[model.PlayerID]struct{}
}

// New creates a clan with the leader as its only member.
func New(id int32, name string, leaderID model.PlayerID) *Clan {
	c := &Clan{
		id:       id,
		name:     name,
		leaderID: leaderID,
		members:  make(map[model.PlayerID]struct{}, 8),
	}
	if leaderID != 0 {
		c.members[leaderID] = struct{}{}
	}
	return c
}

// ID returns the clan ID.
func (c *Clan) ID() int32 { return c.id }

// Name returns the clan name.
func (c *Clan) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// LeaderID returns the clan leader.
func (c *Clan) LeaderID() model.PlayerID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.leaderID
}

// AllyID returns the alliance ID, 0 if not allied.
func (c *Clan) AllyID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allyID
}

// IsMember reports whether the player is in this clan.
func (c *Clan) IsMember(id model.PlayerID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.members[id]
	return ok
}

// Members returns the member IDs in ascending order.
func (c *Clan) Members() []model.PlayerID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.PlayerID, 0, len(c.members))
	for id := range c.members {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// MemberCount returns the number of members.
func (c *Clan) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Snapshot returns a copy of the clan's state.
func (c *Clan) Snapshot() Snapshot {
	members := c.Members()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		ID:       c.id,
		Name:     c.name,
		LeaderID: c.leaderID,
		AllyID:   c.allyID,
		Members:  members,
	}
}

func (c *Clan) setAllyID(id int32) {
	c.mu.Lock()
	c.allyID = id
	c.mu.Unlock()
}

func (c *Clan) addMember(id model.PlayerID) {
	c.mu.Lock()
	c.members[id] = struct{}{}
	c.mu.Unlock()
}

func (c *Clan) removeMember(id model.PlayerID) {
	c.mu.Lock()
	delete(c.members, id)
	c.mu.Unlock()
}

// replace overwrites name, leader, alliance and roster.
func (c *Clan) replace(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = s.Name
	c.leaderID = s.LeaderID
	c.allyID = s.AllyID
	c.members = make(map[model.PlayerID]struct{}, len(s.Members)+1)
	for _, id := range s.Members {
		c.members[id] = struct{}{}
	}
	if s.LeaderID != 0 {
		c.members[s.LeaderID] = struct{}{}
	}
}

// Snapshot is a plain copy of a clan, used for loading and syncing.
type Snapshot struct {
	ID       int32            `json:"clan_id"`
	Name     string           `json:"name"`
	LeaderID model.PlayerID   `json:"leader_id"`
	AllyID   int32            `json:"ally_id"`
	Members  []model.PlayerID `json:"members"`
}
