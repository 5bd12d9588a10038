package team

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidgate/internal/model"
)

const (
	alice model.PlayerID = 76561198000000101
	bob   model.PlayerID = 76561198000000102
	carol model.PlayerID = 76561198000000103
	dave  model.PlayerID = 76561198000000104
)

func TestManager_SetTeam(t *testing.T) {
	mgr := NewManager()

	id, err := mgr.SetTeam(alice, []model.PlayerID{bob, alice, bob})
	require.NoError(t, err)
	assert.Equal(t, int32(1), id)
	assert.Equal(t, 1, mgr.TeamCount())

	team, ok := mgr.TeamOf(bob)
	require.True(t, ok)
	assert.Equal(t, alice, team.Leader)
	// Лидер первым, дубликаты убраны
	assert.Equal(t, []model.PlayerID{alice, bob}, team.Members)
}

func TestManager_SetTeam_NoLeader(t *testing.T) {
	mgr := NewManager()
	_, err := mgr.SetTeam(0, []model.PlayerID{bob})
	assert.ErrorIs(t, err, ErrNoLeader)
}

func TestManager_SetTeam_ReplacesRoster(t *testing.T) {
	mgr := NewManager()
	id1, err := mgr.SetTeam(alice, []model.PlayerID{bob, carol})
	require.NoError(t, err)

	id2, err := mgr.SetTeam(alice, []model.PlayerID{dave})
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same leader keeps the team ID")

	assert.Nil(t, mgr.TeamMembers(bob))
	assert.Nil(t, mgr.TeamMembers(carol))
	assert.Equal(t, []model.PlayerID{alice, dave}, mgr.TeamMembers(dave))
}

func TestManager_SetTeam_MovesMembers(t *testing.T) {
	mgr := NewManager()
	_, err := mgr.SetTeam(alice, []model.PlayerID{bob, carol})
	require.NoError(t, err)

	// Carol joins Dave's team.
	_, err = mgr.SetTeam(dave, []model.PlayerID{carol})
	require.NoError(t, err)

	assert.Equal(t, []model.PlayerID{alice, bob}, mgr.TeamMembers(alice))
	assert.Equal(t, []model.PlayerID{dave, carol}, mgr.TeamMembers(carol))
	assert.Equal(t, 2, mgr.TeamCount())
}

func TestManager_SetTeam_LeaderJoiningElsewhereDisbands(t *testing.T) {
	mgr := NewManager()
	_, err := mgr.SetTeam(alice, []model.PlayerID{bob})
	require.NoError(t, err)

	_, err = mgr.SetTeam(dave, []model.PlayerID{alice})
	require.NoError(t, err)

	assert.Nil(t, mgr.TeamMembers(bob))
	assert.Equal(t, []model.PlayerID{dave, alice}, mgr.TeamMembers(alice))
	assert.Equal(t, 1, mgr.TeamCount())
}

func TestManager_Disband(t *testing.T) {
	mgr := NewManager()
	id, err := mgr.SetTeam(alice, []model.PlayerID{bob})
	require.NoError(t, err)

	require.NoError(t, mgr.Disband(id))
	assert.Equal(t, 0, mgr.TeamCount())
	assert.Nil(t, mgr.TeamMembers(alice))

	assert.ErrorIs(t, mgr.Disband(id), ErrTeamNotFound)
}

func TestManager_TeamOfReturnsCopy(t *testing.T) {
	mgr := NewManager()
	_, err := mgr.SetTeam(alice, []model.PlayerID{bob})
	require.NoError(t, err)

	members := mgr.TeamMembers(alice)
	members[1] = carol

	assert.Equal(t, []model.PlayerID{alice, bob}, mgr.TeamMembers(alice))
}

func TestManager_Concurrent(t *testing.T) {
	mgr := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = mgr.SetTeam(alice, []model.PlayerID{bob})
				_, _ = mgr.SetTeam(carol, []model.PlayerID{dave, bob})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = mgr.TeamMembers(bob)
			}
		}()
	}
	wg.Wait()

	// Bob belongs to exactly one team.
	inAlice := len(mgr.TeamMembers(alice)) == 2
	inCarol := len(mgr.TeamMembers(carol)) == 3
	assert.NotEqual(t, inAlice, inCarol)
}
