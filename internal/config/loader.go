package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CHAINBOOK_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CHAINBOOK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.GenesisPath, "CHAINBOOK_CHAIN_GENESIS_PATH")
	setDuration(&cfg.Chain.BlockInterval, "CHAINBOOK_CHAIN_BLOCK_INTERVAL")
	setInt64(&cfg.Chain.MinBetMultiplier, "CHAINBOOK_CHAIN_MIN_BET_MULTIPLIER")
	setInt64(&cfg.Chain.MaxBetMultiplier, "CHAINBOOK_CHAIN_MAX_BET_MULTIPLIER")
	setDuration(&cfg.Chain.LiveBettingDelay, "CHAINBOOK_CHAIN_LIVE_BETTING_DELAY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CHAINBOOK_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CHAINBOOK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CHAINBOOK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CHAINBOOK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CHAINBOOK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CHAINBOOK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CHAINBOOK_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CHAINBOOK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CHAINBOOK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CHAINBOOK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CHAINBOOK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CHAINBOOK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CHAINBOOK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CHAINBOOK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CHAINBOOK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CHAINBOOK_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "CHAINBOOK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CHAINBOOK_S3_REGION")
	setStr(&cfg.S3.Bucket, "CHAINBOOK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CHAINBOOK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CHAINBOOK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CHAINBOOK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CHAINBOOK_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "CHAINBOOK_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "CHAINBOOK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CHAINBOOK_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "CHAINBOOK_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CHAINBOOK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CHAINBOOK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CHAINBOOK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CHAINBOOK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CHAINBOOK_MODE")
	setStr(&cfg.LogLevel, "CHAINBOOK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
