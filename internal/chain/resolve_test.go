package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

func TestGroupResolvePaysWinners(t *testing.T) {
	f := newFixture(t)
	_, groupID, marketID := f.bootstrapMarket()

	f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)
	f.placeBet(f.bob, marketID, 10, 200, domain.SideLay)
	// An unmatched residual that must be refunded by resolution.
	f.placeBet(f.carol, marketID, 40, 400, domain.SideBack)

	f.propose(&domain.GroupResolveOp{
		GroupID: groupID,
		Resolutions: []domain.MarketResolution{
			{MarketID: marketID, Label: domain.ResolutionWin},
		},
	})

	require.Equal(t, int64(startingBalance+10), f.balance(f.alice), "back wins the 20 pool")
	require.Equal(t, int64(startingBalance-10), f.balance(f.bob), "lay loses its stake")
	require.Equal(t, int64(startingBalance), f.balance(f.carol), "unmatched stake refunded")

	// The group and its market are retired.
	_, ok := f.state.Group(groupID)
	require.False(t, ok)
	_, ok = f.state.Market(marketID)
	require.False(t, ok)
	require.Empty(t, f.state.PositionsOf(marketID))
}

func TestGroupResolveNotWinAndCancel(t *testing.T) {
	f := newFixture(t)

	receipt := f.propose(
		&domain.RulesCreateOp{Name: "r", Description: "d"},
		&domain.GroupCreateOp{EventID: f.event, RulesID: domain.RelativeID(0), AssetID: f.asset},
		&domain.MarketCreateOp{GroupID: domain.RelativeID(1), Description: "home", PayoutCondition: "home"},
		&domain.MarketCreateOp{GroupID: domain.RelativeID(1), Description: "away", PayoutCondition: "away"},
	)
	groupID, homeID, awayID := receipt.CreatedIDs[1], receipt.CreatedIDs[2], receipt.CreatedIDs[3]

	f.placeBet(f.alice, homeID, 10, 200, domain.SideBack)
	f.placeBet(f.bob, homeID, 10, 200, domain.SideLay)
	f.placeBet(f.alice, awayID, 30, 300, domain.SideBack)
	f.placeBet(f.bob, awayID, 60, 300, domain.SideLay)

	f.propose(&domain.GroupResolveOp{
		GroupID: groupID,
		Resolutions: []domain.MarketResolution{
			{MarketID: homeID, Label: domain.ResolutionNotWin},
			{MarketID: awayID, Label: domain.ResolutionCancel},
		},
	})

	// home: bob's lay takes the 20 pool. away: canceled, stakes returned.
	require.Equal(t, int64(startingBalance-10), f.balance(f.alice))
	require.Equal(t, int64(startingBalance+10), f.balance(f.bob))
}

func TestGroupResolveValidation(t *testing.T) {
	f := newFixture(t)
	rulesID, groupID, marketID := f.bootstrapMarket()

	otherReceipt := f.propose(
		&domain.GroupCreateOp{EventID: f.event, RulesID: rulesID, AssetID: f.asset},
		&domain.MarketCreateOp{GroupID: domain.RelativeID(0), Description: "m", PayoutCondition: "c"},
	)
	foreignMarket := otherReceipt.CreatedIDs[1]

	// Coverage: every market exactly once.
	f.mustFail(domain.ReasonResolutionCoverageMismatch, true, &domain.GroupResolveOp{GroupID: groupID})
	f.mustFail(domain.ReasonResolutionCoverageMismatch, true, &domain.GroupResolveOp{
		GroupID: groupID,
		Resolutions: []domain.MarketResolution{
			{MarketID: marketID, Label: domain.ResolutionWin},
			{MarketID: marketID, Label: domain.ResolutionWin},
		},
	})
	f.mustFail(domain.ReasonResolutionCoverageMismatch, true, &domain.GroupResolveOp{
		GroupID: groupID,
		Resolutions: []domain.MarketResolution{
			{MarketID: foreignMarket, Label: domain.ResolutionWin},
		},
	})

	// Labels come from the legal set.
	f.mustFail(domain.ReasonResolutionLabelIllegal, true, &domain.GroupResolveOp{
		GroupID: groupID,
		Resolutions: []domain.MarketResolution{
			{MarketID: marketID, Label: "draw"},
		},
	})
}

func TestGroupCancelUnmatchedBetsLeavesPositions(t *testing.T) {
	f := newFixture(t)
	_, groupID, marketID := f.bootstrapMarket()

	f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)
	f.placeBet(f.bob, marketID, 10, 200, domain.SideLay)
	restingID := f.placeBet(f.carol, marketID, 25, 600, domain.SideBack)

	f.propose(&domain.GroupCancelUnmatchedBetsOp{GroupID: groupID})

	require.Equal(t, int64(startingBalance), f.balance(f.carol), "unmatched escrow refunded")
	_, ok := f.state.Bet(restingID)
	require.False(t, ok)

	require.Len(t, f.state.PositionsOf(marketID), 2, "matched positions intact")
	require.Equal(t, int64(startingBalance-10), f.balance(f.alice), "matched stake stays escrowed")
}

func TestResolveConservesTotalBalance(t *testing.T) {
	f := newFixture(t)
	_, groupID, marketID := f.bootstrapMarket()

	f.placeBet(f.alice, marketID, 100, 300, domain.SideBack)
	f.placeBet(f.bob, marketID, 150, 300, domain.SideLay)
	f.placeBet(f.carol, marketID, 77, 1000, domain.SideBack)

	f.propose(&domain.GroupResolveOp{
		GroupID: groupID,
		Resolutions: []domain.MarketResolution{
			{MarketID: marketID, Label: domain.ResolutionWin},
		},
	})

	total := f.balance(f.alice) + f.balance(f.bob) + f.balance(f.carol)
	require.Equal(t, int64(3*startingBalance), total, "resolution releases all escrow")
}
