package chain

import (
	"fmt"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// Ledger tracks per-account per-asset balances. It shares the store's
// transaction boundary: adjustments made inside a session are rolled back
// with it.
//
// Validation always precedes mutation, so a debit below zero indicates a
// broken evaluator and panics rather than returning an error.
type Ledger struct {
	balances map[domain.ObjectID]map[domain.ObjectID]int64
	store    *Store
}

// NewLedger returns an empty ledger bound to the store's undo session.
func NewLedger(store *Store) *Ledger {
	return &Ledger{
		balances: make(map[domain.ObjectID]map[domain.ObjectID]int64),
		store:    store,
	}
}

// GetBalance returns the account's balance in the given asset.
func (l *Ledger) GetBalance(account, asset domain.ObjectID) int64 {
	return l.balances[account][asset]
}

// AdjustBalance applies a signed balance movement.
func (l *Ledger) AdjustBalance(account domain.ObjectID, delta domain.AssetAmount) {
	byAsset, ok := l.balances[account]
	if !ok {
		byAsset = make(map[domain.ObjectID]int64)
		l.balances[account] = byAsset
	}

	prior := byAsset[delta.AssetID]
	next := prior + delta.Amount
	if next < 0 {
		panic(fmt.Sprintf("chain: balance of %s in %s driven negative (%d%+d)",
			account, delta.AssetID, prior, delta.Amount))
	}
	byAsset[delta.AssetID] = next
	l.store.onUndo(func() { byAsset[delta.AssetID] = prior })
}

// IsAuthorizedAsset reports whether the account may transact the asset. An
// asset with an empty authorization list is open to every account.
func (l *Ledger) IsAuthorizedAsset(account domain.ObjectID, asset *domain.Asset) bool {
	if len(asset.AuthorizedAccounts) == 0 {
		return true
	}
	for _, id := range asset.AuthorizedAccounts {
		if id == account {
			return true
		}
	}
	return false
}
