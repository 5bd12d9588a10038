package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/udisondev/raidgate/internal/model"
)

const reloadTimeout = 5 * time.Second

// RaidReload handles //raidreload: it re-reads the raid configuration.
type RaidReload struct {
	reloader Reloader
}

// NewRaidReload creates the reload command.
func NewRaidReload(r Reloader) *RaidReload {
	return &RaidReload{reloader: r}
}

func (c *RaidReload) Names() []string           { return []string{"raidreload"} }
func (c *RaidReload) RequiredAccessLevel() int32 { return 1 }

func (c *RaidReload) Handle(_ *model.Player, _ []string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	summary, err := c.reloader.Reload(ctx)
	if err != nil {
		return "", fmt.Errorf("reload raid config: %w", err)
	}
	return "Raid configuration reloaded: " + summary, nil
}
