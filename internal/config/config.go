// Package config defines the top-level configuration for the chainbook node
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by CHAINBOOK_* environment
// variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ChainConfig holds the deterministic-core parameters and the genesis file.
type ChainConfig struct {
	// GenesisPath points at the TOML genesis document (accounts, assets,
	// events, opening balances).
	GenesisPath string `toml:"genesis_path"`

	// BlockInterval is how often the node advances the head block time.
	BlockInterval duration `toml:"block_interval"`

	MinBetMultiplier int64 `toml:"min_bet_multiplier"`
	MaxBetMultiplier int64 `toml:"max_bet_multiplier"`

	// OddsIncrements overrides the default boundary -> increment ladder
	// when non-empty. Entries must ascend by boundary.
	OddsIncrements []domain.OddsIncrement `toml:"odds_increments"`

	// LiveBettingDelay quarantines fresh bets on delay_bets groups.
	LiveBettingDelay duration `toml:"live_betting_delay"`
}

// Parameters converts the chain section into domain parameters, falling
// back to the stock defaults for unset fields.
func (c ChainConfig) Parameters() domain.Parameters {
	params := domain.DefaultParameters()
	if c.MinBetMultiplier > 0 {
		params.MinBetMultiplier = c.MinBetMultiplier
	}
	if c.MaxBetMultiplier > 0 {
		params.MaxBetMultiplier = c.MaxBetMultiplier
	}
	if len(c.OddsIncrements) > 0 {
		params.OddsIncrements = c.OddsIncrements
	}
	if c.LiveBettingDelay.Duration > 0 {
		params.LiveBettingDelay = c.LiveBettingDelay.Duration
	}
	return params
}

// PostgresConfig holds connection parameters for the read-model sink.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the settlement
// archiver.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "3m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			GenesisPath:      "genesis.toml",
			BlockInterval:    duration{3 * time.Second},
			LiveBettingDelay: duration{5 * time.Second},
		},
		Postgres: PostgresConfig{
			SSLMode:      "disable",
			PoolMaxConns: 8,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 8,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		Mode:     "node",
		LogLevel: "info",
	}
}

// Validate checks cross-field consistency. It is called once after Load.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "node", "query":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}

	if c.Chain.BlockInterval.Duration <= 0 {
		return fmt.Errorf("config: block_interval must be positive")
	}
	if c.Chain.MinBetMultiplier < 0 || c.Chain.MaxBetMultiplier < 0 {
		return fmt.Errorf("config: bet multiplier bounds must be non-negative")
	}
	// Decimal odds below 1.01 cannot settle: the lay side would stake zero.
	if c.Chain.MinBetMultiplier > 0 && c.Chain.MinBetMultiplier <= domain.OddsPrecision {
		return fmt.Errorf("config: min_bet_multiplier %d must exceed %d (odds of 1.00)",
			c.Chain.MinBetMultiplier, domain.OddsPrecision)
	}
	if c.Chain.MinBetMultiplier > 0 && c.Chain.MaxBetMultiplier > 0 &&
		c.Chain.MinBetMultiplier > c.Chain.MaxBetMultiplier {
		return fmt.Errorf("config: min_bet_multiplier exceeds max_bet_multiplier")
	}

	var prev int64
	for i, entry := range c.Chain.OddsIncrements {
		if entry.Boundary <= prev {
			return fmt.Errorf("config: odds_increments[%d] boundary %d does not ascend", i, entry.Boundary)
		}
		if entry.Increment <= 0 {
			return fmt.Errorf("config: odds_increments[%d] increment must be positive", i)
		}
		prev = entry.Boundary
	}
	return nil
}
