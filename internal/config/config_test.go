package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Mode = "supernode" },
		func(c *Config) { c.Server.Port = 0 },
		func(c *Config) { c.Chain.BlockInterval = duration{0} },
		func(c *Config) { c.Chain.MinBetMultiplier = 100 },
		func(c *Config) { c.Chain.MinBetMultiplier = 500; c.Chain.MaxBetMultiplier = 400 },
		func(c *Config) {
			c.Chain.OddsIncrements = []domain.OddsIncrement{
				{Boundary: 300, Increment: 2},
				{Boundary: 200, Increment: 1},
			}
		},
		func(c *Config) {
			c.Chain.OddsIncrements = []domain.OddsIncrement{{Boundary: 200, Increment: 0}}
		},
	}

	for i, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		require.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestChainParametersFallBackToDefaults(t *testing.T) {
	var chain ChainConfig
	params := chain.Parameters()
	require.Equal(t, domain.DefaultParameters(), params)

	chain.MinBetMultiplier = 110
	chain.LiveBettingDelay = duration{9 * time.Second}
	params = chain.Parameters()
	require.Equal(t, int64(110), params.MinBetMultiplier)
	require.Equal(t, 9*time.Second, params.LiveBettingDelay)
	require.Equal(t, domain.DefaultParameters().MaxBetMultiplier, params.MaxBetMultiplier)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "query"
log_level = "debug"

[chain]
block_interval = "2s"

[redis]
addr = "redis-primary:6379"
`), 0o600))

	t.Setenv("CHAINBOOK_REDIS_ADDR", "redis-override:6379")
	t.Setenv("CHAINBOOK_SERVER_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "query", cfg.Mode)
	require.Equal(t, 2*time.Second, cfg.Chain.BlockInterval.Duration)
	require.Equal(t, "redis-override:6379", cfg.Redis.Addr)
	require.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadGenesisChecksReferences(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "genesis.toml")
	require.NoError(t, os.WriteFile(good, []byte(`
time = "2026-01-01T00:00:00Z"

[[accounts]]
name = "alice"

[[assets]]
symbol = "BOOK"
precision = 4
authorized = ["alice"]

[[balances]]
account = "alice"
asset = "BOOK"
amount = 1000
`), 0o600))

	gen, err := LoadGenesis(good)
	require.NoError(t, err)
	require.Len(t, gen.Accounts, 1)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte(`
[[accounts]]
name = "alice"

[[balances]]
account = "mallory"
asset = "BOOK"
amount = 1000
`), 0o600))

	_, err = LoadGenesis(bad)
	require.Error(t, err)
}
