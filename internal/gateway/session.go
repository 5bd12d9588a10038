package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/raidgate/internal/game/raid"
	"github.com/udisondev/raidgate/internal/gameserver/notify"
	"github.com/udisondev/raidgate/internal/model"
)

const clanStoreTimeout = 2 * time.Second

// session is one connected game host.
// Frames are handled one at a time by run; only the outbox is shared with
// the writer goroutine and the notifier timers.
type session struct {
	id   uint64
	srv  *Server
	conn *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc

	out       chan []byte
	closeOnce sync.Once

	notifier *notify.Notifier
	settings *Settings
	policy   *raid.Policy
}

func newSession(srv *Server, conn *websocket.Conn, id uint64) *session {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     id,
		srv:    srv,
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan []byte, srv.cfg.SendQueueSize),
	}
	settings := srv.settings.Load()
	sess.notifier = notify.New(sess, srv.deps.Catalog, settings.MessageDismiss)
	sess.settings = settings
	sess.policy = srv.newPolicy(settings, sess)
	return sess
}

// Close stops the session. Safe to call multiple times.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.notifier.Close()
		_ = s.conn.Close()
	})
}

// run starts the writer goroutine and reads frames until the connection
// drops or the session is closed.
func (s *session) run() {
	var wg sync.WaitGroup
	defer wg.Wait()
	defer s.Close()
	wg.Go(s.writePump)

	readTimeout := s.srv.cfg.ReadTimeout
	_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("game host read failed", "session", s.id, "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		s.handleFrame(msg)
	}
}

// writePump drains the outbox and keeps the connection alive with pings.
func (s *session) writePump() {
	ping := time.NewTicker(s.srv.cfg.ReadTimeout * 9 / 10)
	defer ping.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case b := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				slog.Warn("game host write failed", "session", s.id, "error", err)
				s.Close()
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(s.srv.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.Close()
				return
			}
		}
	}
}

// send queues a frame for the writer.
// Non-blocking: a full outbox means a stuck host, which is disconnected.
func (s *session) send(frame any) {
	b, err := json.Marshal(frame)
	if err != nil {
		slog.Error("encoding frame", "session", s.id, "error", err)
		return
	}
	select {
	case <-s.ctx.Done():
	case s.out <- b:
	default:
		slog.Warn("send queue full, disconnecting slow host", "session", s.id)
		go s.Close()
	}
}

func (s *session) sendError(seq uint64, format string, args ...any) {
	s.send(ErrorFrame{
		BaseFrame: BaseFrame{Type: TypeError, Seq: seq},
		Message:   fmt.Sprintf(format, args...),
	})
}

func (s *session) handleFrame(msg []byte) {
	base, err := DecodeBase(msg)
	if err != nil {
		s.sendError(0, "malformed frame: %v", err)
		return
	}

	switch base.Type {
	case TypeDamage:
		var f DamageFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			s.sendError(base.Seq, "malformed damage frame: %v", err)
			return
		}
		s.handleDamage(f)

	case TypeCommand:
		var f CommandFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			s.sendError(base.Seq, "malformed command frame: %v", err)
			return
		}
		s.handleCommand(f)

	case TypeTeam:
		var f TeamFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			s.sendError(base.Seq, "malformed team frame: %v", err)
			return
		}
		s.handleTeam(f)

	case TypeClan:
		var f ClanFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			s.sendError(base.Seq, "malformed clan frame: %v", err)
			return
		}
		s.handleClan(f)

	default:
		s.sendError(base.Seq, "unknown frame type %q", base.Type)
	}
}

func (s *session) handleDamage(f DamageFrame) {
	if f.Hit != nil && s.srv.deps.Permissions != nil {
		s.srv.deps.Permissions.Observe(f.Hit.Initiator)
	}

	d := s.currentPolicy().OnDamage(s.ctx, f.Entity, f.Hit)

	s.send(DecisionFrame{
		BaseFrame: BaseFrame{Type: TypeDecision, Seq: f.Seq},
		Outcome:   d.Outcome.String(),
		Reason:    string(d.Reason),
		Hit:       f.Hit,
	})
}

func (s *session) handleCommand(f CommandFrame) {
	if f.Player == nil {
		s.sendError(f.Seq, "command frame without player")
		return
	}
	if s.srv.deps.Permissions != nil {
		s.srv.deps.Permissions.Observe(f.Player)
	}

	var text string
	var handled bool
	if s.srv.deps.Commands != nil {
		text, handled = s.srv.deps.Commands.Dispatch(f.Player, f.Text)
	}
	s.send(ReplyFrame{
		BaseFrame: BaseFrame{Type: TypeReply, Seq: f.Seq},
		Handled:   handled,
		Text:      text,
	})
}

func (s *session) handleTeam(f TeamFrame) {
	teams := s.srv.deps.Teams
	if teams == nil {
		s.sendError(f.Seq, "teams are not tracked")
		return
	}

	if len(f.Members) == 0 {
		t, ok := teams.TeamOf(f.Leader)
		if !ok || t.Leader != f.Leader {
			return
		}
		if err := teams.Disband(t.ID); err != nil {
			s.sendError(f.Seq, "disband team: %v", err)
		}
		return
	}

	if _, err := teams.SetTeam(f.Leader, f.Members); err != nil {
		s.sendError(f.Seq, "set team: %v", err)
	}
}

func (s *session) handleClan(f ClanFrame) {
	table := s.srv.deps.Clans
	if table == nil {
		s.sendError(f.Seq, "clan frames need clans.mode table")
		return
	}

	if f.Disband {
		if err := table.Disband(f.ID); err != nil {
			s.sendError(f.Seq, "disband clan %d: %v", f.ID, err)
			return
		}
	} else if err := table.Upsert(f.Snapshot); err != nil {
		s.sendError(f.Seq, "upsert clan: %v", err)
		return
	}

	store := s.srv.deps.ClanStore
	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, clanStoreTimeout)
	defer cancel()

	var err error
	if f.Disband {
		err = store.DeleteClan(ctx, f.ID)
	} else {
		err = store.SaveClan(ctx, f.Snapshot)
	}
	if err != nil {
		slog.Error("persisting clan update",
			"session", s.id,
			"clan_id", f.ID,
			"error", err)
		s.sendError(f.Seq, "persist clan %d: %v", f.ID, err)
	}
}

// currentPolicy rebuilds the policy when settings were reloaded.
func (s *session) currentPolicy() *raid.Policy {
	if cur := s.srv.settings.Load(); cur != s.settings {
		s.settings = cur
		s.policy = s.srv.newPolicy(cur, s)
		s.notifier.SetDismiss(cur.MessageDismiss)
	}
	return s.policy
}

// Show implements notify.UI.
func (s *session) Show(player *model.Player, text string) {
	s.send(UIShowFrame{
		BaseFrame: BaseFrame{Type: TypeUIShow},
		Player:    player.ID,
		Text:      text,
	})
}

// Hide implements notify.UI.
func (s *session) Hide(player *model.Player) {
	s.send(UIHideFrame{
		BaseFrame: BaseFrame{Type: TypeUIHide},
		Player:    player.ID,
	})
}

// PlaySound implements raid.SoundPlayer.
func (s *session) PlaySound(path string, pos model.Position) {
	s.send(SoundFrame{
		BaseFrame: BaseFrame{Type: TypeSound},
		Path:      path,
		Position:  pos,
	})
}
