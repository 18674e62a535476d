package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

func TestLifecycleOpsAreProposedOnly(t *testing.T) {
	f := newFixture(t)
	_, groupID, marketID := f.bootstrapMarket()

	cases := []domain.Operation{
		&domain.RulesCreateOp{Name: "r", Description: "d"},
		&domain.GroupCreateOp{EventID: f.event, RulesID: domain.RelativeID(0), AssetID: f.asset},
		&domain.MarketCreateOp{GroupID: groupID, Description: "x", PayoutCondition: "y"},
		&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(true)},
		&domain.MarketUpdateOp{MarketID: marketID, NewDescription: strPtr("z")},
		&domain.GroupResolveOp{GroupID: groupID},
		&domain.GroupCancelUnmatchedBetsOp{GroupID: groupID},
	}
	for _, op := range cases {
		f.mustFail(domain.ReasonNotAProposal, false, op)
	}
}

func TestRulesCreateAndUpdate(t *testing.T) {
	f := newFixture(t)

	receipt := f.propose(&domain.RulesCreateOp{Name: "initial", Description: "first"})
	rulesID := receipt.CreatedIDs[0]
	require.True(t, rulesID.IsType(domain.TypeRules))

	f.propose(&domain.RulesUpdateOp{RulesID: rulesID, NewName: strPtr("renamed")})
	rules, ok := f.state.Rules(rulesID)
	require.True(t, ok)
	require.Equal(t, "renamed", rules.Name)
	require.Equal(t, "first", rules.Description, "absent fields keep prior values")

	f.mustFail(domain.ReasonNothingToUpdate, true, &domain.RulesUpdateOp{RulesID: rulesID})
	f.mustFail(domain.ReasonReferenceNotFound, true,
		&domain.RulesUpdateOp{RulesID: domain.NewID(domain.TypeRules, 99), NewName: strPtr("x")})
}

func TestGroupCreateValidatesReferences(t *testing.T) {
	f := newFixture(t)
	rulesID := f.propose(&domain.RulesCreateOp{Name: "r", Description: "d"}).CreatedIDs[0]

	f.mustFail(domain.ReasonReferenceNotFound, true, &domain.GroupCreateOp{
		EventID: domain.NewID(domain.TypeEvent, 42), RulesID: rulesID, AssetID: f.asset,
	})
	f.mustFail(domain.ReasonWrongReferenceType, true, &domain.GroupCreateOp{
		EventID: f.asset, RulesID: rulesID, AssetID: f.asset,
	})
	f.mustFail(domain.ReasonReferenceNotFound, true, &domain.GroupCreateOp{
		EventID: f.event, RulesID: rulesID, AssetID: domain.NewID(domain.TypeAsset, 7),
	})

	groupID := f.propose(&domain.GroupCreateOp{
		EventID: f.event, RulesID: rulesID, AssetID: f.asset, Description: "g",
	}).CreatedIDs[0]

	group, ok := f.state.Group(groupID)
	require.True(t, ok)
	require.False(t, group.Frozen)
	require.False(t, group.DelayBets)
}

func TestRelativeIDsResolveWithinTransaction(t *testing.T) {
	f := newFixture(t)
	rulesID, groupID, marketID := f.bootstrapMarket()

	group, ok := f.state.Group(groupID)
	require.True(t, ok)
	require.Equal(t, rulesID, group.RulesID)

	market, ok := f.state.Market(marketID)
	require.True(t, ok)
	require.Equal(t, groupID, market.GroupID)
}

func TestRelativeIDPastCreationIndexFails(t *testing.T) {
	f := newFixture(t)
	f.mustFail(domain.ReasonReferenceNotFound, true, &domain.GroupCreateOp{
		EventID: f.event, RulesID: domain.RelativeID(0), AssetID: f.asset,
	})
}

func TestGroupUpdateRejectsRedundantFlagFlips(t *testing.T) {
	f := newFixture(t)
	_, groupID, _ := f.bootstrapMarket()

	f.mustFail(domain.ReasonRedundantNoOp, true,
		&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(false)})
	f.mustFail(domain.ReasonRedundantNoOp, true,
		&domain.GroupUpdateOp{GroupID: groupID, DelayBets: boolPtr(false)})

	f.propose(&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(true)})

	// The rejection is idempotent: repeating the same values keeps failing.
	f.mustFail(domain.ReasonRedundantNoOp, true,
		&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(true)})
	f.mustFail(domain.ReasonRedundantNoOp, true,
		&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(true)})

	f.mustFail(domain.ReasonNothingToUpdate, true, &domain.GroupUpdateOp{GroupID: groupID})
}

func TestMarketUpdateMovesGroup(t *testing.T) {
	f := newFixture(t)
	rulesID, _, marketID := f.bootstrapMarket()

	otherGroup := f.propose(&domain.GroupCreateOp{
		EventID: f.event, RulesID: rulesID, AssetID: f.asset, Description: "other",
	}).CreatedIDs[0]

	f.propose(&domain.MarketUpdateOp{
		MarketID:           marketID,
		NewGroupID:         idPtr(otherGroup),
		NewPayoutCondition: strPtr("away"),
	})

	market, ok := f.state.Market(marketID)
	require.True(t, ok)
	require.Equal(t, otherGroup, market.GroupID)
	require.Equal(t, "away", market.PayoutCondition)
	require.Equal(t, []*domain.BettingMarket{market}, f.state.MarketsOf(otherGroup))

	f.mustFail(domain.ReasonNothingToUpdate, true, &domain.MarketUpdateOp{MarketID: marketID})
}

func TestMarketUpdateCannotStrandBetsAcrossAssets(t *testing.T) {
	f := newFixture(t)
	rulesID, _, marketID := f.bootstrapMarket()

	altAsset := f.state.RegisterAsset("ALT", 4)
	altGroup := f.propose(&domain.GroupCreateOp{
		EventID: f.event, RulesID: rulesID, AssetID: altAsset, Description: "alt",
	}).CreatedIDs[0]

	f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)

	f.mustFail(domain.ReasonAssetMismatch, true, &domain.MarketUpdateOp{
		MarketID:   marketID,
		NewGroupID: idPtr(altGroup),
	})
}

func TestBetPlaceValidation(t *testing.T) {
	f := newFixture(t)
	_, groupID, marketID := f.bootstrapMarket()

	// Market must exist.
	f.mustFail(domain.ReasonReferenceNotFound, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: domain.NewID(domain.TypeMarket, 99),
		Amount: f.amount(10), BackerMultiplier: 200, Side: domain.SideBack,
	})

	// Asset must match the group's settlement asset.
	otherAsset := f.state.RegisterAsset("ALT", 4)
	f.mustFail(domain.ReasonAssetMismatch, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount: domain.AssetAmount{AssetID: otherAsset, Amount: 10},
		BackerMultiplier: 200, Side: domain.SideBack,
	})

	// Odds bounds and increment grid.
	f.mustFail(domain.ReasonOddsOutOfRange, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount: f.amount(10), BackerMultiplier: 100, Side: domain.SideBack,
	})
	f.mustFail(domain.ReasonOddsOutOfRange, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount: f.amount(10), BackerMultiplier: 100001, Side: domain.SideBack,
	})
	before := f.balance(f.alice)
	f.mustFail(domain.ReasonOddsNotOnIncrement, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount: f.amount(10), BackerMultiplier: 251, Side: domain.SideBack,
	})
	require.Equal(t, before, f.balance(f.alice), "rejected bet must not move balance")

	// Amount and balance checks.
	f.mustFail(domain.ReasonNonPositiveAmount, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount: f.amount(0), BackerMultiplier: 200, Side: domain.SideBack,
	})
	f.mustFail(domain.ReasonInsufficientBalance, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount: f.amount(startingBalance + 1), BackerMultiplier: 200, Side: domain.SideBack,
	})

	// Frozen group accepts no new bets.
	f.propose(&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(true)})
	f.mustFail(domain.ReasonMarketFrozen, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount: f.amount(10), BackerMultiplier: 200, Side: domain.SideBack,
	})
}

func TestBetPlaceUnauthorizedAsset(t *testing.T) {
	f := newFixture(t)

	// An asset only bob may transact.
	restricted := f.state.RegisterAsset("VIP", 4, f.bob)
	f.state.Fund(f.alice, domain.AssetAmount{AssetID: restricted, Amount: 1000})
	f.state.Fund(f.bob, domain.AssetAmount{AssetID: restricted, Amount: 1000})

	receipt := f.propose(
		&domain.RulesCreateOp{Name: "r", Description: "d"},
		&domain.GroupCreateOp{
			EventID: f.event, RulesID: domain.RelativeID(0), AssetID: restricted,
		},
		&domain.MarketCreateOp{GroupID: domain.RelativeID(1), Description: "m", PayoutCondition: "c"},
	)
	marketID := receipt.CreatedIDs[2]

	f.mustFail(domain.ReasonUnauthorizedAsset, false, &domain.BetPlaceOp{
		BettorID: f.alice, MarketID: marketID,
		Amount:           domain.AssetAmount{AssetID: restricted, Amount: 10},
		BackerMultiplier: 200, Side: domain.SideBack,
	})

	f.apply(&domain.BetPlaceOp{
		BettorID: f.bob, MarketID: marketID,
		Amount:           domain.AssetAmount{AssetID: restricted, Amount: 10},
		BackerMultiplier: 200, Side: domain.SideBack,
	})
}

func TestBetCancelRoundTrip(t *testing.T) {
	f := newFixture(t)
	_, _, marketID := f.bootstrapMarket()

	before := f.balance(f.alice)
	betID := f.placeBet(f.alice, marketID, 500, 300, domain.SideBack)
	require.Equal(t, before-500, f.balance(f.alice))

	// Only the bettor may cancel.
	f.mustFail(domain.ReasonCancelForeignBet, false,
		&domain.BetCancelOp{BettorID: f.bob, BetID: betID})

	f.apply(&domain.BetCancelOp{BettorID: f.alice, BetID: betID})
	require.Equal(t, before, f.balance(f.alice), "cancel before any match restores the balance exactly")

	_, ok := f.state.Bet(betID)
	require.False(t, ok)
}

func TestTransferMovesBalance(t *testing.T) {
	f := newFixture(t)

	f.apply(&domain.TransferOp{From: f.alice, To: f.bob, Amount: f.amount(250)})
	require.Equal(t, int64(startingBalance-250), f.balance(f.alice))
	require.Equal(t, int64(startingBalance+250), f.balance(f.bob))

	f.mustFail(domain.ReasonInsufficientBalance, false,
		&domain.TransferOp{From: f.carol, To: f.bob, Amount: f.amount(startingBalance + 1)})
	f.mustFail(domain.ReasonNonPositiveAmount, false,
		&domain.TransferOp{From: f.alice, To: f.bob, Amount: f.amount(0)})
}

func TestFailedTransactionRollsBackWholly(t *testing.T) {
	f := newFixture(t)
	_, _, marketID := f.bootstrapMarket()

	before := f.balance(f.alice)
	objects := f.state.Store().Len()

	// The first operation is valid and applies; the second fails, so the
	// whole transaction must unwind, bet and escrow included.
	_, err := f.state.ApplyTransaction(&domain.Transaction{Operations: []domain.Operation{
		&domain.BetPlaceOp{
			BettorID: f.alice, MarketID: marketID,
			Amount: f.amount(100), BackerMultiplier: 200, Side: domain.SideBack,
		},
		&domain.TransferOp{From: f.alice, To: f.bob, Amount: f.amount(-1)},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidOperation)

	require.Equal(t, before, f.balance(f.alice))
	require.Equal(t, objects, f.state.Store().Len())
	require.Empty(t, f.state.OpenBetsOf(marketID))
}
