package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

func TestStoreRollbackRestoresEverything(t *testing.T) {
	store := NewStore()

	store.Begin()
	rulesID := store.AllocateID(domain.TypeRules)
	store.Insert(&domain.BettingMarketRules{ID: rulesID, Name: "keep"})
	store.Commit()

	store.Begin()

	// Mutate the surviving object, add a new one, and remove nothing.
	kept, _ := store.Get(rulesID)
	rules := kept.(*domain.BettingMarketRules)
	rules.Name = "mutated"
	store.Update(rules)

	newID := store.AllocateID(domain.TypeRules)
	store.Insert(&domain.BettingMarketRules{ID: newID, Name: "doomed"})

	store.Rollback()

	obj, ok := store.Get(rulesID)
	require.True(t, ok)
	require.Equal(t, "keep", obj.(*domain.BettingMarketRules).Name)

	_, ok = store.Get(newID)
	require.False(t, ok)

	// The serial counter rewound too: the next allocation reuses it.
	store.Begin()
	require.Equal(t, newID, store.AllocateID(domain.TypeRules))
	store.Commit()
}

func TestStoreRollbackRestoresIndexes(t *testing.T) {
	store := NewStore()

	market := domain.NewID(domain.TypeMarket, 0)
	bettor := domain.NewID(domain.TypeAccount, 0)

	store.Begin()
	bet := &domain.Bet{
		ID:               store.AllocateID(domain.TypeBet),
		BettorID:         bettor,
		MarketID:         market,
		Amount:           domain.AssetAmount{AssetID: domain.NewID(domain.TypeAsset, 0), Amount: 10},
		BackerMultiplier: 200,
		Side:             domain.SideBack,
		Seq:              store.NextBetSeq(),
	}
	store.Insert(bet)
	store.Commit()

	store.Begin()
	store.Remove(bet.ID)
	require.Empty(t, store.BetsOfMarket(market))
	store.Rollback()

	require.Equal(t, []domain.ObjectID{bet.ID}, store.BetsOfMarket(market))
	require.Equal(t, []domain.ObjectID{bet.ID}, store.BetsOfBettor(bettor))

	count := 0
	store.AscendOdds(func(item oddsItem) bool {
		count++
		require.Equal(t, bet.ID, item.betID)
		return true
	})
	require.Equal(t, 1, count)
}

func TestStoreHandsOutClones(t *testing.T) {
	store := NewStore()

	store.Begin()
	id := store.AllocateID(domain.TypeRules)
	store.Insert(&domain.BettingMarketRules{ID: id, Name: "original"})
	store.Commit()

	obj, _ := store.Get(id)
	obj.(*domain.BettingMarketRules).Name = "scribbled"

	again, _ := store.Get(id)
	require.Equal(t, "original", again.(*domain.BettingMarketRules).Name,
		"mutating a returned clone must not touch the store")
}

func TestByOddsOrdering(t *testing.T) {
	store := NewStore()
	store.Begin()

	market := domain.NewID(domain.TypeMarket, 0)
	asset := domain.NewID(domain.TypeAsset, 0)
	mk := func(side domain.BetSide, mult int64) domain.ObjectID {
		b := &domain.Bet{
			ID:               store.AllocateID(domain.TypeBet),
			BettorID:         domain.NewID(domain.TypeAccount, 0),
			MarketID:         market,
			Amount:           domain.AssetAmount{AssetID: asset, Amount: 100},
			BackerMultiplier: mult,
			Side:             side,
			Seq:              store.NextBetSeq(),
		}
		store.Insert(b)
		return b.ID
	}

	backHigh := mk(domain.SideBack, 300)
	backLow := mk(domain.SideBack, 200)
	layLow := mk(domain.SideLay, 200)
	layHigh := mk(domain.SideLay, 300)
	store.Commit()

	var order []domain.ObjectID
	store.AscendOdds(func(item oddsItem) bool {
		order = append(order, item.betID)
		return true
	})

	// Backs ascend by multiplier (best first); lays descend (best first).
	require.Equal(t, []domain.ObjectID{backLow, backHigh, layHigh, layLow}, order)
}
