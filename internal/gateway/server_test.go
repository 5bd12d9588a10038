package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidgate/internal/clock"
	"github.com/udisondev/raidgate/internal/config"
	"github.com/udisondev/raidgate/internal/game/raid"
	"github.com/udisondev/raidgate/internal/game/team"
	"github.com/udisondev/raidgate/internal/gameserver/admin"
	"github.com/udisondev/raidgate/internal/gameserver/admin/commands"
	"github.com/udisondev/raidgate/internal/gameserver/clan"
	"github.com/udisondev/raidgate/internal/i18n"
	"github.com/udisondev/raidgate/internal/model"
)

const (
	ownerID    model.PlayerID = 76561198000000001
	strangerID model.PlayerID = 76561198000000002
	mateID     model.PlayerID = 76561198000000003
)

type fakeClanStore struct {
	mu      sync.Mutex
	saved   []clan.Snapshot
	deleted []int32
}

func (f *fakeClanStore) SaveClan(_ context.Context, s clan.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeClanStore) DeleteClan(_ context.Context, id int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fixture struct {
	srv     *Server
	http    *httptest.Server
	teams   *team.Manager
	clans   *clan.Table
	store   *fakeClanStore
	catalog *i18n.Catalog
}

// newFixture wires a gateway with a 02:00-06:00 window and the clock at 10:00 UTC.
func newFixture(t *testing.T, withClans bool) *fixture {
	t.Helper()

	window, err := raid.ParseWindow("02:00", "06:00")
	require.NoError(t, err)
	schedule := raid.NewSchedule(window)
	clk := clock.NewFake(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	cat := i18n.MustNew()

	f := &fixture{teams: team.NewManager(), catalog: cat}

	var clanSvc raid.ClanService
	if withClans {
		f.clans = clan.NewTable()
		f.store = &fakeClanStore{}
		clanSvc = f.clans
	}

	perms := admin.NewPermissions()
	handler := admin.NewHandler()
	commands.RegisterAll(handler, commands.NewRaiding(raid.NewReporter(schedule, cat), perms, cat, clk), commands.NewHelp(schedule, cat), nil)

	deps := Deps{
		Classifier:  raid.NewClassifier(raid.DefaultPrefabs),
		Resolver:    raid.NewExemptionResolver(clanSvc, f.teams, time.Second),
		Schedule:    schedule,
		Clock:       clk,
		Catalog:     cat,
		Commands:    handler,
		Permissions: perms,
		Teams:       f.teams,
	}
	if withClans {
		deps.Clans = f.clans
		deps.ClanStore = f.store
	}

	f.srv = NewServer(config.GatewayConfig{}, deps, Settings{
		Policy:         raid.PolicyConfig{ShowMessage: true, Sound: config.DefaultSound},
		MessageDismiss: time.Minute,
	})
	f.http = httptest.NewServer(f.srv.Handler())
	t.Cleanup(func() {
		f.srv.closeSessions()
		f.http.Close()
	})
	return f
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := strings.Replace(f.http.URL, "http://", "ws://", 1) + "/ws"
	dialer := &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame any) {
	t.Helper()
	b, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

type rawFrame struct {
	Type string
	Body []byte
}

// readUntil collects frames until one of type stop arrives.
func readUntil(t *testing.T, conn *websocket.Conn, stop string) []rawFrame {
	t.Helper()
	var frames []rawFrame
	for {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		base, err := DecodeBase(msg)
		require.NoError(t, err)
		frames = append(frames, rawFrame{Type: base.Type, Body: msg})
		if base.Type == stop {
			return frames
		}
	}
}

func decode[T any](t *testing.T, f rawFrame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Body, &v))
	return v
}

func damageFrame(seq uint64, attacker model.PlayerID) DamageFrame {
	return DamageFrame{
		BaseFrame: BaseFrame{Type: TypeDamage, Seq: seq},
		Entity:    &model.Entity{NetID: 9, PrefabName: "door.hinged.metal", OwnerID: ownerID},
		Hit: &model.HitInfo{
			Initiator:    &model.Player{ID: attacker, Name: "raider", Position: model.NewPosition(1, 2, 3)},
			Damage:       model.DamageTypes{model.DamageBullet: 50},
			DoHitEffects: true,
			HitMaterial:  7,
			WeaponPrefab: "rifle.ak",
		},
	}
}

func TestServer_DamageMitigated(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)

	send(t, conn, damageFrame(1, strangerID))
	frames := readUntil(t, conn, TypeDecision)

	require.Len(t, frames, 3)
	assert.Equal(t, TypeUIHide, frames[0].Type)
	show := decode[UIShowFrame](t, frames[1])
	assert.Equal(t, strangerID, show.Player)
	assert.Equal(t, "This building is protected: 100%", show.Text)

	d := decode[DecisionFrame](t, frames[2])
	assert.Equal(t, uint64(1), d.Seq)
	assert.Equal(t, "mitigate", d.Outcome)
	assert.Equal(t, string(raid.ReasonOutsideWindow), d.Reason)
	require.NotNil(t, d.Hit)
	assert.Zero(t, d.Hit.Damage.Total())
	assert.False(t, d.Hit.DoHitEffects)
	assert.Zero(t, d.Hit.HitMaterial)
}

func TestServer_DamageAllowedForTeammate(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)

	send(t, conn, TeamFrame{BaseFrame: BaseFrame{Type: TypeTeam}, Leader: ownerID, Members: []model.PlayerID{mateID}})
	send(t, conn, damageFrame(2, mateID))

	frames := readUntil(t, conn, TypeDecision)
	require.Len(t, frames, 1)
	d := decode[DecisionFrame](t, frames[0])
	assert.Equal(t, "allow", d.Outcome)
	assert.Equal(t, string(raid.ReasonExempt), d.Reason)
	assert.Equal(t, float32(50), d.Hit.Damage.Total())

	// Empty roster disbands the team.
	send(t, conn, TeamFrame{BaseFrame: BaseFrame{Type: TypeTeam}, Leader: ownerID})
	send(t, conn, damageFrame(3, mateID))
	frames = readUntil(t, conn, TypeDecision)
	d = decode[DecisionFrame](t, frames[len(frames)-1])
	assert.Equal(t, "mitigate", d.Outcome)
	assert.Equal(t, 0, f.teams.TeamCount())
}

func TestServer_ClanFrames(t *testing.T) {
	f := newFixture(t, true)
	conn := f.dial(t)

	send(t, conn, ClanFrame{
		BaseFrame: BaseFrame{Type: TypeClan, Seq: 4},
		Snapshot:  clan.Snapshot{ID: 5, Name: "Wolves", LeaderID: ownerID, Members: []model.PlayerID{mateID}},
	})
	send(t, conn, damageFrame(5, mateID))

	frames := readUntil(t, conn, TypeDecision)
	require.Len(t, frames, 1, "clan upsert must not produce an error frame")
	d := decode[DecisionFrame](t, frames[0])
	assert.Equal(t, "allow", d.Outcome)
	assert.Equal(t, string(raid.ReasonExempt), d.Reason)

	send(t, conn, ClanFrame{BaseFrame: BaseFrame{Type: TypeClan, Seq: 6}, Snapshot: clan.Snapshot{ID: 5}, Disband: true})
	send(t, conn, damageFrame(7, mateID))
	frames = readUntil(t, conn, TypeDecision)
	d = decode[DecisionFrame](t, frames[len(frames)-1])
	assert.Equal(t, "mitigate", d.Outcome)

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	require.Len(t, f.store.saved, 1)
	assert.Equal(t, "Wolves", f.store.saved[0].Name)
	assert.Equal(t, []int32{5}, f.store.deleted)
}

func TestServer_ClanFrameWithoutTable(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)

	send(t, conn, ClanFrame{BaseFrame: BaseFrame{Type: TypeClan, Seq: 8}, Snapshot: clan.Snapshot{ID: 1, Name: "Wolves"}})
	frames := readUntil(t, conn, TypeError)
	e := decode[ErrorFrame](t, frames[0])
	assert.Equal(t, uint64(8), e.Seq)
	assert.Contains(t, e.Message, "clans.mode")
}

func TestServer_Command(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)

	send(t, conn, CommandFrame{
		BaseFrame: BaseFrame{Type: TypeCommand, Seq: 9},
		Player:    &model.Player{ID: strangerID},
		Text:      "/raiding",
	})
	frames := readUntil(t, conn, TypeReply)
	r := decode[ReplyFrame](t, frames[0])
	assert.Equal(t, uint64(9), r.Seq)
	assert.True(t, r.Handled)
	assert.Contains(t, r.Text, "Raiding is not currently available.")
	assert.Contains(t, r.Text, "02:00")

	send(t, conn, CommandFrame{
		BaseFrame: BaseFrame{Type: TypeCommand, Seq: 10},
		Player:    &model.Player{ID: strangerID},
		Text:      "hello there",
	})
	frames = readUntil(t, conn, TypeReply)
	r = decode[ReplyFrame](t, frames[0])
	assert.False(t, r.Handled)
}

func TestServer_MalformedFrames(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	frames := readUntil(t, conn, TypeError)
	assert.Contains(t, decode[ErrorFrame](t, frames[0]).Message, "malformed frame")

	send(t, conn, BaseFrame{Type: "teleport", Seq: 11})
	frames = readUntil(t, conn, TypeError)
	e := decode[ErrorFrame](t, frames[0])
	assert.Equal(t, uint64(11), e.Seq)
	assert.Contains(t, e.Message, "teleport")

	send(t, conn, CommandFrame{BaseFrame: BaseFrame{Type: TypeCommand, Seq: 12}, Text: "/raiding"})
	frames = readUntil(t, conn, TypeError)
	assert.Equal(t, uint64(12), decode[ErrorFrame](t, frames[0]).Seq)
}

func TestServer_UpdateSettings(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)

	f.srv.UpdateSettings(Settings{
		Policy:         raid.PolicyConfig{ShowMessage: false, PlaySound: true, Sound: config.DefaultSound},
		MessageDismiss: time.Minute,
	})

	send(t, conn, damageFrame(13, strangerID))
	frames := readUntil(t, conn, TypeDecision)
	require.Len(t, frames, 2)

	snd := decode[SoundFrame](t, frames[0])
	assert.Equal(t, config.DefaultSound, snd.Path)
	assert.Equal(t, model.NewPosition(1, 2, 3), snd.Position)
}

func TestServer_ServeShutdown(t *testing.T) {
	f := newFixture(t, false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return f.srv.Addr() != nil }, time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.srv.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "session must be closed on shutdown")
}
