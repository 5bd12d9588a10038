package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/raidgate/internal/config"
	"github.com/udisondev/raidgate/internal/game/raid"
	"github.com/udisondev/raidgate/internal/gameserver/admin"
	"github.com/udisondev/raidgate/internal/gameserver/admin/commands"
	"github.com/udisondev/raidgate/internal/gateway"
)

// settingsPublisher receives policy settings on reload.
type settingsPublisher interface {
	UpdateSettings(settings gateway.Settings)
}

// reloader re-reads the config file and pushes the reloadable parts into
// the running components. Everything else needs a restart.
type reloader struct {
	path  string
	level *slog.LevelVar

	schedule *raid.Schedule
	perms    *admin.Permissions
	raiding  *commands.Raiding
	gateway  settingsPublisher

	mu      sync.Mutex
	current config.Raid
}

func (r *reloader) Reload(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := config.LoadRaid(r.path)
	if err != nil {
		return "", err
	}

	// Grants first: a bad grant set leaves everything as it was.
	if err := r.perms.Load(cfg.Permissions.Grants); err != nil {
		return "", fmt.Errorf("loading permission grants: %w", err)
	}

	window, err := cfg.Window()
	if err != nil {
		warnUnconfiguredWindow(err)
	}
	r.schedule.Replace(window)
	r.raiding.SetRequireCheck(cfg.Permissions.RequireCheck)
	r.gateway.UpdateSettings(settingsFrom(cfg))
	r.level.Set(parseLogLevel(cfg.LogLevel))

	prev := r.current
	if !slices.Equal(prev.Prefabs, cfg.Prefabs) {
		slog.Warn("prefab changes take effect after restart")
	}
	if prev.Clans != cfg.Clans || prev.Database != cfg.Database || prev.Gateway != cfg.Gateway {
		slog.Warn("clan, database and gateway changes take effect after restart")
	}
	if prev.Language != cfg.Language {
		slog.Warn("language change takes effect after restart", "language", cfg.Language)
	}
	r.current = cfg

	slog.Info("raid configuration reloaded", "window", window.String())
	return window.String(), nil
}

// warnUnconfiguredWindow reports a raid window that failed to parse. Without a
// window every hit is allowed.
func warnUnconfiguredWindow(err error) {
	slog.Warn("raid window not configured, raiding is always allowed", "error", err)
}
