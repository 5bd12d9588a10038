package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/raidgate/internal/clock"
	"github.com/udisondev/raidgate/internal/config"
	"github.com/udisondev/raidgate/internal/db"
	"github.com/udisondev/raidgate/internal/game/raid"
	"github.com/udisondev/raidgate/internal/game/team"
	"github.com/udisondev/raidgate/internal/gameserver/admin"
	"github.com/udisondev/raidgate/internal/gameserver/admin/commands"
	"github.com/udisondev/raidgate/internal/gameserver/clan"
	"github.com/udisondev/raidgate/internal/gateway"
	"github.com/udisondev/raidgate/internal/i18n"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := config.Path()
	cfg, err := config.LoadRaid(cfgPath)
	if err != nil {
		return fmt.Errorf("loading raid config: %w", err)
	}

	// Level lives in a LevelVar so a reload can change it.
	var level slog.LevelVar
	level.Set(parseLogLevel(cfg.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	})))

	slog.Info("raidgate starting", "config", cfgPath, "log_level", cfg.LogLevel)

	if _, err := config.Migrate(cfgPath, &cfg); err != nil {
		slog.Warn("config file not upgraded", "path", cfgPath, "error", err)
	}

	window, err := cfg.Window()
	if err != nil {
		warnUnconfiguredWindow(err)
	}
	schedule := raid.NewSchedule(window)
	slog.Info("raid window", "window", window.String())

	catalog, err := i18n.New()
	if err != nil {
		return fmt.Errorf("building message catalog: %w", err)
	}
	catalog = catalog.WithDefault(cfg.Language)

	// Clan service
	var (
		clanService raid.ClanService
		clanTable   *clan.Table
		clanStore   gateway.ClanStore
	)
	if cfg.Clans.UsesDatabase() {
		dsn := cfg.Database.DSN()
		database, err := db.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(ctx, dsn); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		repo := db.NewClanRepository(database.Pool())
		switch cfg.Clans.Mode {
		case config.ClansPostgres:
			clanService = repo
		case config.ClansTable:
			clanTable = clan.NewTable()
			n, err := repo.LoadInto(ctx, clanTable)
			if err != nil {
				return fmt.Errorf("loading clans: %w", err)
			}
			slog.Info("clans loaded", "count", n)
			clanService = clanTable
			clanStore = repo
		}
	} else if cfg.Clans.Mode == config.ClansTable {
		clanTable = clan.NewTable()
		clanService = clanTable
	}
	slog.Info("clan service", "mode", cfg.Clans.Mode, "persist", cfg.Clans.Persist)

	teams := team.NewManager()
	classifier := raid.NewClassifier(cfg.Prefabs)
	resolver := raid.NewExemptionResolver(clanService, teams, cfg.ClanLookupTimeout)

	perms := admin.NewPermissions()
	if err := perms.Load(cfg.Permissions.Grants); err != nil {
		return fmt.Errorf("loading permission grants: %w", err)
	}

	clk := clock.UTC{}
	raiding := commands.NewRaiding(raid.NewReporter(schedule, catalog), perms, catalog, clk)
	raiding.SetRequireCheck(cfg.Permissions.RequireCheck)

	handler := admin.NewHandler()

	srv := gateway.NewServer(cfg.Gateway, gateway.Deps{
		Classifier:  classifier,
		Resolver:    resolver,
		Schedule:    schedule,
		Clock:       clk,
		Catalog:     catalog,
		Commands:    handler,
		Permissions: perms,
		Teams:       teams,
		Clans:       clanTable,
		ClanStore:   clanStore,
	}, settingsFrom(cfg))

	rl := &reloader{
		path:     cfgPath,
		current:  cfg,
		level:    &level,
		schedule: schedule,
		perms:    perms,
		raiding:  raiding,
		gateway:  srv,
	}
	commands.RegisterAll(handler, raiding, commands.NewHelp(schedule, catalog), rl)

	slog.Info("commands registered",
		"user", handler.UserCommandCount(),
		"admin", handler.AdminCommandCount())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("gateway: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return watchReload(gctx, rl)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("raidgate stopped")
	return nil
}

// watchReload reloads the configuration on every SIGHUP until ctx ends.
func watchReload(ctx context.Context, rl *reloader) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if _, err := rl.Reload(ctx); err != nil {
				slog.Error("reload on SIGHUP", "error", err)
			}
		}
	}
}

func settingsFrom(cfg config.Raid) gateway.Settings {
	return gateway.Settings{
		Policy:         cfg.PolicyConfig(),
		MessageDismiss: cfg.MessageDismiss,
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
