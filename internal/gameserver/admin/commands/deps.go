package commands

import (
	"context"
	"time"

	"github.com/udisondev/raidgate/internal/game/raid"
	"github.com/udisondev/raidgate/internal/model"
)

// StatusReporter renders the raid status for a language.
type StatusReporter interface {
	StatusFor(now time.Time, lang string) string
}

// WindowSource returns the raid window in effect.
type WindowSource interface {
	Current() raid.Window
}

// PermissionChecker reports whether a player holds a capability key.
type PermissionChecker interface {
	HasPermission(id model.PlayerID, perm string) bool
}

// Reloader re-reads the configuration and publishes it.
// Returns a short summary of what is now active.
type Reloader interface {
	Reload(ctx context.Context) (string, error)
}
