package commands

import (
	"sync/atomic"

	"github.com/udisondev/raidgate/internal/clock"
	"github.com/udisondev/raidgate/internal/i18n"
	"github.com/udisondev/raidgate/internal/model"
)

// Raiding handles /raiding. It shows whether raiding is on and how long until
// that changes.
type Raiding struct {
	reporter StatusReporter
	perms    PermissionChecker
	catalog  *i18n.Catalog
	clock    clock.Clock

	requireCheck atomic.Bool
}

// NewRaiding creates the raiding command. perms may be nil when the check
// permission is never required.
func NewRaiding(reporter StatusReporter, perms PermissionChecker, catalog *i18n.Catalog, clk clock.Clock) *Raiding {
	if clk == nil {
		clk = clock.UTC{}
	}
	return &Raiding{
		reporter: reporter,
		perms:    perms,
		catalog:  catalog,
		clock:    clk,
	}
}

// SetRequireCheck toggles whether callers need raidgate.check.
func (c *Raiding) SetRequireCheck(v bool) { c.requireCheck.Store(v) }

func (c *Raiding) Names() []string { return []string{"raiding", "raid"} }

func (c *Raiding) Handle(player *model.Player, _ string) (string, error) {
	if c.requireCheck.Load() && !player.IsGM() {
		if c.perms == nil || !c.perms.HasPermission(player.ID, model.PermCheck) {
			return c.catalog.Sprintf(player.Language, i18n.KeyDenied), nil
		}
	}
	return c.reporter.StatusFor(c.clock.Now(), player.Language), nil
}
