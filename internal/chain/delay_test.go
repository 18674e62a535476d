package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

func delayedFixture(t *testing.T) (*fixture, domain.ObjectID, domain.ObjectID) {
	t.Helper()
	f := newFixture(t)
	_, groupID, marketID := f.bootstrapMarket()
	f.propose(&domain.GroupUpdateOp{GroupID: groupID, DelayBets: boolPtr(true)})
	return f, groupID, marketID
}

func TestDelayedBetCarriesDeadline(t *testing.T) {
	f, _, marketID := delayedFixture(t)

	betID := f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)
	bet, ok := f.state.Bet(betID)
	require.True(t, ok)
	require.NotNil(t, bet.EndOfDelay)
	require.Equal(t, genesisTime.Add(5*time.Second), *bet.EndOfDelay)
}

func TestAdvanceTimeFlushesExpiredDelays(t *testing.T) {
	f, _, marketID := delayedFixture(t)

	layID := f.placeBet(f.bob, marketID, 10, 200, domain.SideLay)
	backID := f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)

	// Before the deadline nothing moves.
	f.state.AdvanceTime(genesisTime.Add(3 * time.Second))
	require.Empty(t, f.state.PositionsOf(marketID))

	// At the deadline both bets enter the book and cross.
	events := f.state.AdvanceTime(genesisTime.Add(5 * time.Second))
	require.NotEmpty(t, events)

	_, ok := f.state.Bet(layID)
	require.False(t, ok)
	_, ok = f.state.Bet(backID)
	require.False(t, ok)
	require.Len(t, f.state.PositionsOf(marketID), 2)
}

func TestDisablingDelayFlushesOnlyThatGroup(t *testing.T) {
	f, groupID, marketID := delayedFixture(t)

	// A second delayed group with its own quarantined bet.
	receipt := f.propose(
		&domain.RulesCreateOp{Name: "r2", Description: "d2"},
		&domain.GroupCreateOp{EventID: f.event, RulesID: domain.RelativeID(0), AssetID: f.asset},
		&domain.MarketCreateOp{GroupID: domain.RelativeID(1), Description: "m2", PayoutCondition: "c2"},
	)
	otherGroup, otherMarket := receipt.CreatedIDs[1], receipt.CreatedIDs[2]
	f.propose(&domain.GroupUpdateOp{GroupID: otherGroup, DelayBets: boolPtr(true)})

	f.placeBet(f.bob, marketID, 10, 200, domain.SideLay)
	backID := f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)
	otherBet := f.placeBet(f.carol, otherMarket, 10, 200, domain.SideBack)

	// Disabling the delay on the first group flushes and matches its bets
	// immediately, deadline notwithstanding.
	f.propose(&domain.GroupUpdateOp{GroupID: groupID, DelayBets: boolPtr(false)})

	_, ok := f.state.Bet(backID)
	require.False(t, ok, "flushed and matched")
	require.Len(t, f.state.PositionsOf(marketID), 2)

	// The other group's bet stays quarantined.
	other, ok := f.state.Bet(otherBet)
	require.True(t, ok)
	require.True(t, other.Delayed())
}

func TestFrozenGroupRetainsDelayedBets(t *testing.T) {
	f, groupID, marketID := delayedFixture(t)

	betID := f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)
	f.propose(&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(true)})

	// Neither the deadline nor a delay_bets flip releases bets of a frozen
	// group.
	f.state.AdvanceTime(genesisTime.Add(time.Minute))
	bet, ok := f.state.Bet(betID)
	require.True(t, ok)
	require.True(t, bet.Delayed())

	f.propose(&domain.GroupUpdateOp{GroupID: groupID, DelayBets: boolPtr(false)})
	bet, ok = f.state.Bet(betID)
	require.True(t, ok)
	require.True(t, bet.Delayed())

	// Unfreezing alone does not flush; the next time advance does.
	f.propose(&domain.GroupUpdateOp{GroupID: groupID, Freeze: boolPtr(false)})
	f.state.AdvanceTime(genesisTime.Add(2 * time.Minute))
	bet, ok = f.state.Bet(betID)
	require.True(t, ok)
	require.False(t, bet.Delayed())
}

func TestZeroDelaySkipsQuarantine(t *testing.T) {
	params := domain.DefaultParameters()
	params.LiveBettingDelay = 0

	f := newFixtureWithParams(t, params)
	_, groupID, marketID := f.bootstrapMarket()
	f.propose(&domain.GroupUpdateOp{GroupID: groupID, DelayBets: boolPtr(true)})

	f.placeBet(f.bob, marketID, 10, 200, domain.SideLay)
	backID := f.placeBet(f.alice, marketID, 10, 200, domain.SideBack)

	// delay_bets with a zero delay places straight into the book.
	_, ok := f.state.Bet(backID)
	require.False(t, ok, "matched immediately")
	require.Len(t, f.state.PositionsOf(marketID), 2)
}
