// Package notify shows the raid protection message to attacking players and
// dismisses it after a delay.
package notify

import (
	"sync"
	"time"

	"github.com/udisondev/raidgate/internal/i18n"
	"github.com/udisondev/raidgate/internal/model"
)

// DefaultDismiss is how long the protection message stays on screen.
const DefaultDismiss = 3 * time.Second

// UI draws and removes the on-screen message of one player.
// Implementations must not block.
type UI interface {
	Show(player *model.Player, text string)
	Hide(player *model.Player)
}

// Notifier shows one protection message per player. A newer message
// replaces the one on screen and restarts its dismiss timer.
// Thread-safe: protected by mutex.
type Notifier struct {
	ui      UI
	catalog *i18n.Catalog

	mu      sync.Mutex
	dismiss time.Duration
	timers  map[model.PlayerID]*time.Timer
	closed  bool
}

// New creates a notifier. Non-positive dismiss falls back to DefaultDismiss.
func New(ui UI, catalog *i18n.Catalog, dismiss time.Duration) *Notifier {
	if dismiss <= 0 {
		dismiss = DefaultDismiss
	}
	return &Notifier{
		ui:      ui,
		catalog: catalog,
		dismiss: dismiss,
		timers:  make(map[model.PlayerID]*time.Timer, 16),
	}
}

// SetDismiss changes the delay used for messages shown from now on.
func (n *Notifier) SetDismiss(d time.Duration) {
	if d <= 0 {
		return
	}
	n.mu.Lock()
	n.dismiss = d
	n.mu.Unlock()
}

// ShowProtection tells the player the structure is protected by percent.
func (n *Notifier) ShowProtection(player *model.Player, percent int) {
	if player == nil {
		return
	}
	text := n.catalog.Sprintf(player.Language, i18n.KeyProtection, percent)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	if t, ok := n.timers[player.ID]; ok {
		t.Stop()
	}
	n.ui.Hide(player)
	n.ui.Show(player, text)

	var timer *time.Timer
	timer = time.AfterFunc(n.dismiss, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		// Заменён более новым сообщением или уже закрыт.
		if n.timers[player.ID] != timer {
			return
		}
		delete(n.timers, player.ID)
		n.ui.Hide(player)
	})
	n.timers[player.ID] = timer
}

// Pending returns the number of messages still on screen.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.timers)
}

// Close stops all dismiss timers. Messages already shown stay until the
// client drops them.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
}
