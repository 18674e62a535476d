package chain

import (
	"math"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// BookOf projects the active book of one market into aggregated price
// levels, best price first on both sides. Delayed bets are excluded; they
// are not available to the matching engine either.
func (s *State) BookOf(marketID domain.ObjectID) domain.BookSnapshot {
	snap := domain.BookSnapshot{MarketID: marketID, AsOf: s.headTime}

	for _, side := range []domain.BetSide{domain.SideBack, domain.SideLay} {
		pivot := oddsItem{
			delayed: false,
			market:  marketID.Serial,
			side:    side,
			price:   math.MinInt64,
		}

		var levels []domain.BookLevel
		s.store.AscendOddsFrom(pivot, func(item oddsItem) bool {
			if item.delayed || item.market != pivot.market || item.side != side {
				return false
			}
			bet, err := s.findBet(item.betID)
			if err != nil {
				return true
			}
			if n := len(levels); n > 0 && levels[n-1].Price == bet.BackerMultiplier {
				levels[n-1].Stake += bet.Amount.Amount
				levels[n-1].Bets++
			} else {
				levels = append(levels, domain.BookLevel{
					Price: bet.BackerMultiplier,
					Stake: bet.Amount.Amount,
					Bets:  1,
				})
			}
			return true
		})

		if side == domain.SideBack {
			snap.Backs = levels
		} else {
			snap.Lays = levels
		}
	}
	return snap
}
