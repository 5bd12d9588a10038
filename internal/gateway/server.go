// Package gateway is the websocket endpoint the game host connects to. It
// turns damage events and chat commands into raid gate decisions and sends
// the resulting UI and sound effects back.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/raidgate/internal/clock"
	"github.com/udisondev/raidgate/internal/config"
	"github.com/udisondev/raidgate/internal/game/raid"
	"github.com/udisondev/raidgate/internal/game/team"
	"github.com/udisondev/raidgate/internal/gameserver/admin"
	"github.com/udisondev/raidgate/internal/gameserver/clan"
	"github.com/udisondev/raidgate/internal/i18n"
)

// ClanStore persists clan updates received from the host.
type ClanStore interface {
	SaveClan(ctx context.Context, s clan.Snapshot) error
	DeleteClan(ctx context.Context, clanID int32) error
}

// Deps are the shared components every session uses.
type Deps struct {
	Classifier  *raid.Classifier
	Resolver    *raid.ExemptionResolver
	Schedule    *raid.Schedule
	Clock       clock.Clock
	Catalog     *i18n.Catalog
	Commands    *admin.Handler
	Permissions *admin.Permissions
	Teams       *team.Manager

	// Clans is set in table mode; ClanStore additionally when persisted.
	Clans     *clan.Table
	ClanStore ClanStore
}

// Settings are the reloadable knobs of a session.
type Settings struct {
	Policy         raid.PolicyConfig
	MessageDismiss time.Duration
}

// Server accepts game host connections on /ws.
type Server struct {
	cfg      config.GatewayConfig
	deps     Deps
	upgrader websocket.Upgrader
	settings atomic.Pointer[Settings]

	nextID atomic.Uint64

	mu       sync.Mutex
	sessions map[uint64]*session
	listener net.Listener
}

// NewServer creates a gateway server.
func NewServer(cfg config.GatewayConfig, deps Deps, settings Settings) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultWriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = config.DefaultReadTimeout
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = config.DefaultSendQueueSize
	}
	if deps.Clock == nil {
		deps.Clock = clock.UTC{}
	}

	s := &Server{
		cfg:  cfg,
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			// The host is a server process, not a browser.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[uint64]*session, 4),
	}
	s.settings.Store(&settings)
	return s
}

// UpdateSettings publishes new settings. Sessions pick them up on their
// next damage frame.
func (s *Server) UpdateSettings(settings Settings) {
	s.settings.Store(&settings)
}

// Handler returns the HTTP handler serving /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Addr returns the address the server is listening on.
// Returns nil if the server hasn't started yet.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// SessionCount returns the number of connected hosts.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run listens on cfg.BindAddress and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.BindAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves connections from ln until ctx is done.
// Used for testing with custom listeners.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("raid gateway started", "address", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.closeSessions()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving gateway: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	// Hijacked websocket connections are not tracked by http.Server.
	s.closeSessions()
	if err != nil {
		return fmt.Errorf("shutting down gateway: %w", err)
	}
	slog.Info("raid gateway stopped")
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := newSession(s, conn, s.nextID.Add(1))
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	slog.Info("game host connected", "session", sess.id, "remote", conn.RemoteAddr())

	sess.run()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	slog.Info("game host disconnected", "session", sess.id)
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// newPolicy builds a policy for one session; sess is its sound sink.
func (s *Server) newPolicy(settings *Settings, sess *session) *raid.Policy {
	p := raid.NewPolicy(settings.Policy, s.deps.Classifier, s.deps.Resolver, s.deps.Schedule, s.deps.Clock)
	p.SetNotifier(sess.notifier)
	p.SetSoundPlayer(sess)
	if s.deps.Permissions != nil {
		p.SetPermissions(s.deps.Permissions)
	}
	return p
}
