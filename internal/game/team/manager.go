package team

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/udisondev/raidgate/internal/model"
)

// Team errors.
var (
	ErrTeamNotFound = errors.New("team not found")
	ErrNoLeader     = errors.New("team leader is required")
)

// Team is an in-game player team. Value snapshot, never shared mutably.
type Team struct {
	ID      int32
	Leader  model.PlayerID
	Members []model.PlayerID // leader included
}

// Manager tracks the team rosters reported by the game host.
// A player belongs to at most one team.
// Thread-safe: uses RWMutex for rosters and atomic for ID generation.
type Manager struct {
	mu       sync.RWMutex
	teams    map[int32]*Team
	byMember map[model.PlayerID]int32
	byLeader map[model.PlayerID]int32
	nextID   atomic.Int32
}

// NewManager creates a new team manager.
func NewManager() *Manager {
	return &Manager{
		teams:    make(map[int32]*Team),
		byMember: make(map[model.PlayerID]int32),
		byLeader: make(map[model.PlayerID]int32),
	}
}

// SetTeam replaces the roster of the team led by leader, creating it if
// needed. Members are moved out of any other team they were in.
// Returns the team ID.
func (m *Manager) SetTeam(leader model.PlayerID, members []model.PlayerID) (int32, error) {
	if leader == 0 {
		return 0, ErrNoLeader
	}

	roster := make([]model.PlayerID, 0, len(members)+1)
	roster = append(roster, leader)
	for _, id := range members {
		if id != 0 && !slices.Contains(roster, id) {
			roster = append(roster, id)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byLeader[leader]
	if ok {
		m.detachLocked(id)
	} else {
		id = m.nextID.Add(1)
	}

	for _, member := range roster {
		if other, in := m.byMember[member]; in && other != id {
			m.removeMemberLocked(other, member)
		}
	}

	m.teams[id] = &Team{ID: id, Leader: leader, Members: roster}
	m.byLeader[leader] = id
	for _, member := range roster {
		m.byMember[member] = id
	}
	return id, nil
}

// Disband removes a team by ID.
func (m *Manager) Disband(teamID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.teams[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	m.detachLocked(teamID)
	delete(m.teams, teamID)
	delete(m.byLeader, t.Leader)
	return nil
}

// TeamOf returns a snapshot of the player's team.
func (m *Manager) TeamOf(playerID model.PlayerID) (Team, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byMember[playerID]
	if !ok {
		return Team{}, false
	}
	t := m.teams[id]
	return Team{ID: t.ID, Leader: t.Leader, Members: slices.Clone(t.Members)}, true
}

// TeamMembers returns the player's team roster (player included),
// or nil if the player is not in a team.
func (m *Manager) TeamMembers(playerID model.PlayerID) []model.PlayerID {
	t, ok := m.TeamOf(playerID)
	if !ok {
		return nil
	}
	return t.Members
}

// TeamCount returns the number of active teams.
func (m *Manager) TeamCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.teams)
}

// detachLocked unindexes every member of a team. Caller holds mu.
func (m *Manager) detachLocked(teamID int32) {
	t, ok := m.teams[teamID]
	if !ok {
		return
	}
	for _, member := range t.Members {
		if m.byMember[member] == teamID {
			delete(m.byMember, member)
		}
	}
}

// removeMemberLocked drops one member from a team; a team that loses its
// leader is disbanded. Caller holds mu.
func (m *Manager) removeMemberLocked(teamID int32, member model.PlayerID) {
	t, ok := m.teams[teamID]
	if !ok {
		return
	}
	if t.Leader == member {
		m.detachLocked(teamID)
		delete(m.teams, teamID)
		delete(m.byLeader, t.Leader)
		return
	}
	t.Members = slices.DeleteFunc(t.Members, func(id model.PlayerID) bool { return id == member })
	delete(m.byMember, member)
}
