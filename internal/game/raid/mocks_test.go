package raid

import (
	"context"
	"sync"

	"github.com/udisondev/raidgate/internal/model"
)

const (
	ownerID    model.PlayerID = 76561198000000001
	strangerID model.PlayerID = 76561198000000002
	mateID     model.PlayerID = 76561198000000003
)

// mockClans implements ClanService for testing.
type mockClans struct {
	mu     sync.Mutex
	answer bool
	err    error
	calls  int
	block  bool // wait for ctx to expire
}

func (m *mockClans) IsMemberOrAlly(ctx context.Context, _, _ model.PlayerID) (bool, error) {
	m.mu.Lock()
	m.calls++
	block, answer, err := m.block, m.answer, m.err
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return false, ctx.Err()
	}
	return answer, err
}

func (m *mockClans) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockTeams implements TeamRoster for testing.
type mockTeams map[model.PlayerID][]model.PlayerID

func (m mockTeams) TeamMembers(id model.PlayerID) []model.PlayerID {
	return m[id]
}

// mockNotifier records protection messages.
type mockNotifier struct {
	shown []model.PlayerID
	pct   []int
}

func (n *mockNotifier) ShowProtection(p *model.Player, percent int) {
	n.shown = append(n.shown, p.ID)
	n.pct = append(n.pct, percent)
}

// mockSound records played sounds.
type mockSound struct {
	paths []string
	at    []model.Position
}

func (s *mockSound) PlaySound(path string, pos model.Position) {
	s.paths = append(s.paths, path)
	s.at = append(s.at, pos)
}

// mockPerms grants a fixed set of (player, perm) pairs.
type mockPerms map[model.PlayerID][]string

func (m mockPerms) HasPermission(id model.PlayerID, perm string) bool {
	for _, p := range m[id] {
		if p == perm {
			return true
		}
	}
	return false
}
