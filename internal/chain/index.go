package chain

import (
	"github.com/google/btree"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// btreeDegree is the branching factor for all secondary indices.
const btreeDegree = 16

// oddsItem is one entry of the by_odds index. The index holds every open
// bet; delayed bets sort as a contiguous region ahead of all active bets so
// the delay controller can scan them off the front, and active bets sort in
// price-time priority per (market, side).
type oddsItem struct {
	delayed    bool
	endOfDelay int64 // unix nanos, only meaningful while delayed
	market     uint64
	side       domain.BetSide
	price      int64 // priority key: multiplier for backs, negated for lays
	seq        uint64
	betID      domain.ObjectID
}

func sideRank(s domain.BetSide) int {
	if s == domain.SideBack {
		return 0
	}
	return 1
}

// oddsLess orders the by_odds index: the delayed region first (by deadline,
// then insertion), then active bets by (market, side, price priority,
// insertion). Backs carry their multiplier as the priority key and lays the
// negated multiplier, so the best-priced bet of either side comes first.
func oddsLess(a, b oddsItem) bool {
	if a.delayed != b.delayed {
		return a.delayed
	}
	if a.delayed {
		if a.endOfDelay != b.endOfDelay {
			return a.endOfDelay < b.endOfDelay
		}
		return a.seq < b.seq
	}
	if a.market != b.market {
		return a.market < b.market
	}
	if ra, rb := sideRank(a.side), sideRank(b.side); ra != rb {
		return ra < rb
	}
	if a.price != b.price {
		return a.price < b.price
	}
	return a.seq < b.seq
}

// oddsItemFor builds the index entry for a bet in its current state.
func oddsItemFor(b *domain.Bet) oddsItem {
	item := oddsItem{
		market: b.MarketID.Serial,
		side:   b.Side,
		seq:    b.Seq,
		betID:  b.ID,
	}
	if b.EndOfDelay != nil {
		item.delayed = true
		item.endOfDelay = b.EndOfDelay.UnixNano()
	}
	if b.Side == domain.SideBack {
		item.price = b.BackerMultiplier
	} else {
		item.price = -b.BackerMultiplier
	}
	return item
}

// refItem is a generic (primary serial, secondary serial) index entry used
// by the by_group, by_market, and by_bettor indices.
type refItem struct {
	primary   uint64
	secondary uint64
	id        domain.ObjectID
}

func refLess(a, b refItem) bool {
	if a.primary != b.primary {
		return a.primary < b.primary
	}
	return a.secondary < b.secondary
}

func newOddsIndex() *btree.BTreeG[oddsItem] {
	return btree.NewG(btreeDegree, oddsLess)
}

func newRefIndex() *btree.BTreeG[refItem] {
	return btree.NewG(btreeDegree, refLess)
}
