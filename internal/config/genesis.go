package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Genesis is the chain's initial condition: the external entities (accounts,
// assets, events) and opening balances the deterministic core must be seeded
// with before the first transaction.
type Genesis struct {
	Time     string           `toml:"time"` // RFC3339 genesis block time
	Accounts []GenesisAccount `toml:"accounts"`
	Assets   []GenesisAsset   `toml:"assets"`
	Events   []GenesisEvent   `toml:"events"`
	Balances []GenesisBalance `toml:"balances"`
}

// GenesisAccount declares one account by name.
type GenesisAccount struct {
	Name string `toml:"name"`
}

// GenesisAsset declares one settlement asset. Authorized lists account
// names; empty means open to all.
type GenesisAsset struct {
	Symbol     string   `toml:"symbol"`
	Precision  uint8    `toml:"precision"`
	Authorized []string `toml:"authorized"`
}

// GenesisEvent declares one sporting event.
type GenesisEvent struct {
	Description string `toml:"description"`
}

// GenesisBalance funds one account with an opening balance.
type GenesisBalance struct {
	Account string `toml:"account"`
	Asset   string `toml:"asset"`
	Amount  int64  `toml:"amount"`
}

// LoadGenesis reads and structurally checks a genesis TOML document.
func LoadGenesis(path string) (*Genesis, error) {
	var gen Genesis
	if _, err := toml.DecodeFile(path, &gen); err != nil {
		return nil, fmt.Errorf("config: load genesis %s: %w", path, err)
	}

	names := make(map[string]bool, len(gen.Accounts))
	for i, acct := range gen.Accounts {
		if acct.Name == "" {
			return nil, fmt.Errorf("config: genesis account %d has no name", i)
		}
		if names[acct.Name] {
			return nil, fmt.Errorf("config: genesis account %q duplicated", acct.Name)
		}
		names[acct.Name] = true
	}

	symbols := make(map[string]bool, len(gen.Assets))
	for i, asset := range gen.Assets {
		if asset.Symbol == "" {
			return nil, fmt.Errorf("config: genesis asset %d has no symbol", i)
		}
		if symbols[asset.Symbol] {
			return nil, fmt.Errorf("config: genesis asset %q duplicated", asset.Symbol)
		}
		symbols[asset.Symbol] = true
		for _, name := range asset.Authorized {
			if !names[name] {
				return nil, fmt.Errorf("config: genesis asset %q authorizes unknown account %q", asset.Symbol, name)
			}
		}
	}

	for i, bal := range gen.Balances {
		if !names[bal.Account] {
			return nil, fmt.Errorf("config: genesis balance %d funds unknown account %q", i, bal.Account)
		}
		if !symbols[bal.Asset] {
			return nil, fmt.Errorf("config: genesis balance %d uses unknown asset %q", i, bal.Asset)
		}
		if bal.Amount <= 0 {
			return nil, fmt.Errorf("config: genesis balance %d must be positive", i)
		}
	}
	return &gen, nil
}
