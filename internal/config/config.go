package config

import (
	"fmt"
	"time"
)

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname" validate:"required"`
	SSLMode  string `yaml:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Clan service modes.
const (
	ClansOff      = "off"      // team fallback only
	ClansTable    = "table"    // in-memory table, fed by the gateway and optionally Postgres
	ClansPostgres = "postgres" // live query per decision
)

// ClansConfig selects where clan membership comes from.
type ClansConfig struct {
	Mode string `yaml:"mode" validate:"oneof=off table postgres"`

	// Persist loads the table from Postgres at startup and writes host
	// updates back (table mode only).
	Persist bool `yaml:"persist"`
}

// UsesDatabase reports whether the mode needs a database connection.
func (c ClansConfig) UsesDatabase() bool {
	return c.Mode == ClansPostgres || (c.Mode == ClansTable && c.Persist)
}

// GatewayConfig holds the websocket listener the game host connects to.
type GatewayConfig struct {
	BindAddress string `yaml:"bind_address" validate:"required,hostname_port"`

	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline (default: 5s)
	ReadTimeout   time.Duration `yaml:"read_timeout"`    // idle host disconnect (default: 120s)
	SendQueueSize int           `yaml:"send_queue_size"` // per-connection outbox capacity (default: 256)
}

// PermissionsConfig holds capability grants and the switches that make
// them mandatory.
type PermissionsConfig struct {
	RequireProtect bool                `yaml:"require_protect"`
	RequireCheck   bool                `yaml:"require_check"`
	Grants         map[string][]string `yaml:"grants" validate:"dive,keys,numeric,endkeys,dive,oneof=raidgate.protect raidgate.check"`
}
