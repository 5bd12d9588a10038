package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/raidgate/internal/game/raid"
)

// CurrentVersion is the schema version written into migrated files.
const CurrentVersion = "0.2.0"

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "RAIDGATE_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config/raidgate.yaml"

// Default durations.
const (
	DefaultMessageDismiss = 3 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultReadTimeout    = 120 * time.Second
	DefaultSendQueueSize  = 256
)

// DefaultSound is played at the attacker when play_sound is on.
const DefaultSound = "assets/prefabs/weapon mods/silencers/effects/silencer_attach.fx.prefab"

// Raid holds all configuration for the raid gate.
type Raid struct {
	// Raid window, "HH:mm" UTC. "zz:zz" leaves it unset.
	RaidTimeStart string `yaml:"raid_time_start"`
	RaidTimeEnd   string `yaml:"raid_time_end"`

	// Feedback to the attacker
	ShowMessage    bool          `yaml:"show_message"`
	PlaySound      bool          `yaml:"play_sound"`
	Sound          string        `yaml:"sound" validate:"required_if=PlaySound true"`
	MessageDismiss time.Duration `yaml:"message_dismiss"`

	// Structure kinds (substring patterns of prefab names)
	Prefabs []string `yaml:"prefabs" validate:"dive,required"`

	// Exemption
	ClanLookupTimeout time.Duration `yaml:"clan_lookup_timeout"`
	Clans             ClansConfig   `yaml:"clans"`

	Database    DatabaseConfig    `yaml:"database"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Permissions PermissionsConfig `yaml:"permissions"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	Language string `yaml:"language" validate:"omitempty,bcp47_language_tag"`

	Version string `yaml:"version"`
}

// DefaultRaid returns Raid config with sensible defaults.
func DefaultRaid() Raid {
	return Raid{
		RaidTimeStart:     raid.UnsetTime,
		RaidTimeEnd:       raid.UnsetTime,
		ShowMessage:       true,
		PlaySound:         false,
		Sound:             DefaultSound,
		MessageDismiss:    DefaultMessageDismiss,
		Prefabs:           slices.Clone(raid.DefaultPrefabs),
		ClanLookupTimeout: raid.DefaultClanLookupTimeout,
		Clans:             ClansConfig{Mode: ClansOff},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "raidgate",
			Password: "raidgate",
			DBName:   "raidgate",
			SSLMode:  "disable",
		},
		Gateway: GatewayConfig{
			BindAddress:   "127.0.0.1:28090",
			WriteTimeout:  DefaultWriteTimeout,
			ReadTimeout:   DefaultReadTimeout,
			SendQueueSize: DefaultSendQueueSize,
		},
		Permissions: PermissionsConfig{
			Grants: map[string][]string{},
		},
		LogLevel: "info",
		Language: "en",
		Version:  CurrentVersion,
	}
}

// Window parses the configured raid bounds. On error the returned window
// is unconfigured.
func (c Raid) Window() (raid.Window, error) {
	return raid.ParseWindow(c.RaidTimeStart, c.RaidTimeEnd)
}

// PolicyConfig extracts the mitigation settings.
func (c Raid) PolicyConfig() raid.PolicyConfig {
	return raid.PolicyConfig{
		ShowMessage:              c.ShowMessage,
		PlaySound:                c.PlaySound,
		Sound:                    c.Sound,
		RequireProtectPermission: c.Permissions.RequireProtect,
	}
}

// Path returns the config path from the environment, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// LoadRaid loads raid config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadRaid(path string) (Raid, error) {
	cfg := DefaultRaid()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// Absent version means a file written before versioning.
	cfg.Version = ""
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// normalize replaces non-positive durations and sizes with defaults.
func (c *Raid) normalize() {
	fix := func(key string, d *time.Duration, def time.Duration) {
		if *d <= 0 {
			slog.Warn("non-positive duration in config, using default",
				"key", key,
				"value", *d,
				"default", def)
			*d = def
		}
	}
	fix("message_dismiss", &c.MessageDismiss, DefaultMessageDismiss)
	fix("clan_lookup_timeout", &c.ClanLookupTimeout, raid.DefaultClanLookupTimeout)
	fix("gateway.write_timeout", &c.Gateway.WriteTimeout, DefaultWriteTimeout)
	fix("gateway.read_timeout", &c.Gateway.ReadTimeout, DefaultReadTimeout)

	if c.Gateway.SendQueueSize <= 0 {
		c.Gateway.SendQueueSize = DefaultSendQueueSize
	}
	if c.Permissions.Grants == nil {
		c.Permissions.Grants = map[string][]string{}
	}
}

// Migrate upgrades an outdated config in place: keys missing from the file
// already carry defaults, so stamping the version and writing it back is
// enough. Returns true if the file was rewritten.
func Migrate(path string, cfg *Raid) (bool, error) {
	if cfg.Version == CurrentVersion {
		return false, nil
	}

	slog.Warn("upgrading configuration file",
		"path", path,
		"from", cfg.Version,
		"to", CurrentVersion)

	cfg.Version = CurrentVersion
	if err := Save(path, *cfg); err != nil {
		return false, fmt.Errorf("upgrading config: %w", err)
	}
	return true, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Raid) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
