package chain

import (
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// genesisTime is the head block time every fixture starts at.
var genesisTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const startingBalance = 1_000_000

// testingT is the subset of testing.T the fixture needs; *rapid.T satisfies
// it too, so property tests reuse the same fixture.
type testingT interface {
	require.TestingT
	Helper()
	Fatalf(format string, args ...any)
}

// fixture bundles a fresh state with funded accounts and a registered asset
// and event.
type fixture struct {
	t     testingT
	state *State

	alice, bob, carol domain.ObjectID
	asset             domain.ObjectID
	event             domain.ObjectID
}

func newFixture(t testingT) *fixture {
	return newFixtureWithParams(t, domain.DefaultParameters())
}

func newFixtureWithParams(t testingT, params domain.Parameters) *fixture {
	t.Helper()
	state := NewState(params, genesisTime)

	f := &fixture{t: t, state: state}
	f.alice = state.RegisterAccount("alice")
	f.bob = state.RegisterAccount("bob")
	f.carol = state.RegisterAccount("carol")
	f.asset = state.RegisterAsset("BOOK", 4)
	f.event = state.RegisterEvent("united vs city")

	for _, acct := range []domain.ObjectID{f.alice, f.bob, f.carol} {
		state.Fund(acct, f.amount(startingBalance))
	}
	return f
}

func (f *fixture) amount(n int64) domain.AssetAmount {
	return domain.AssetAmount{AssetID: f.asset, Amount: n}
}

func (f *fixture) balance(account domain.ObjectID) int64 {
	return f.state.Ledger().GetBalance(account, f.asset)
}

// propose applies the operations as a proposed transaction and requires
// success.
func (f *fixture) propose(ops ...domain.Operation) *domain.TxReceipt {
	f.t.Helper()
	receipt, err := f.state.ApplyTransaction(&domain.Transaction{Operations: ops, IsProposed: true})
	require.NoError(f.t, err)
	return receipt
}

// apply applies the operations as a regular transaction and requires
// success.
func (f *fixture) apply(ops ...domain.Operation) *domain.TxReceipt {
	f.t.Helper()
	receipt, err := f.state.ApplyTransaction(&domain.Transaction{Operations: ops})
	require.NoError(f.t, err)
	return receipt
}

// mustFail applies a transaction and requires the given failure reason.
func (f *fixture) mustFail(reason domain.Reason, proposed bool, ops ...domain.Operation) {
	f.t.Helper()
	_, err := f.state.ApplyTransaction(&domain.Transaction{Operations: ops, IsProposed: proposed})
	require.ErrorIs(f.t, err, domain.ErrInvalidOperation)
	require.Equal(f.t, reason, domain.ReasonOf(err))
}

// bootstrapMarket creates rules, a group, and one market in a single
// proposed transaction wired together with relative ids, and returns the
// three created ids.
func (f *fixture) bootstrapMarket() (rulesID, groupID, marketID domain.ObjectID) {
	f.t.Helper()
	receipt := f.propose(
		&domain.RulesCreateOp{Name: "standard rules", Description: "ordinary settlement"},
		&domain.GroupCreateOp{
			EventID:     f.event,
			RulesID:     domain.RelativeID(0),
			AssetID:     f.asset,
			Description: "match odds",
		},
		&domain.MarketCreateOp{
			GroupID:         domain.RelativeID(1),
			Description:     "home win",
			PayoutCondition: "home",
		},
	)
	require.Len(f.t, receipt.CreatedIDs, 3)
	return receipt.CreatedIDs[0], receipt.CreatedIDs[1], receipt.CreatedIDs[2]
}

// placeBet places a bet and returns its id; the bet may already be matched
// away, in which case the id refers to a deleted object.
func (f *fixture) placeBet(bettor, market domain.ObjectID, amount, multiplier int64, side domain.BetSide) domain.ObjectID {
	f.t.Helper()
	receipt := f.apply(&domain.BetPlaceOp{
		BettorID:         bettor,
		MarketID:         market,
		Amount:           f.amount(amount),
		BackerMultiplier: multiplier,
		Side:             side,
	})
	require.Len(f.t, receipt.CreatedIDs, 1)
	return receipt.CreatedIDs[0]
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func idPtr(id domain.ObjectID) *domain.ObjectID { return &id }
