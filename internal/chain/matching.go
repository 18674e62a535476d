package chain

import (
	"math"
	"math/big"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// muldiv returns floor(a*b/c) computed without intermediate overflow.
func muldiv(a, b, c int64) int64 {
	var product big.Int
	product.Mul(big.NewInt(a), big.NewInt(b))
	product.Quo(&product, big.NewInt(c))
	return product.Int64()
}

// crossAmounts computes the matched stakes when a back and a lay cross at
// the clearing multiplier price (scaled by OddsPrecision P).
//
// The complementarity rule: a back of stake S_b at multiplier m settles
// against a lay of stake S_l = S_b*(m-P)/P, so that the combined escrow
// S_b+S_l equals the winning side's payout S_b*m/P.
//
// Splits truncate toward zero. A returned backMatched of zero means the lay
// stake cannot support a single back unit at this price; a zero layMatched
// (with backMatched > 0) means the back stake cannot produce a single lay
// unit. Either way the undersized bet is dust at this price.
func crossAmounts(backStake, layStake, price int64) (backMatched, layMatched int64) {
	p := domain.OddsPrecision
	maxBack := muldiv(layStake, p, price-p)
	if maxBack == 0 {
		return 0, 0
	}
	backMatched = backStake
	if maxBack < backMatched {
		backMatched = maxBack
	}
	layMatched = muldiv(backMatched, price-p, p)
	return backMatched, layMatched
}

// betIsDust reports whether the bet's residual stake is too small to ever
// match a one-unit counter-stake at its own multiplier.
func betIsDust(b *domain.Bet) bool {
	p := domain.OddsPrecision
	if b.Side == domain.SideBack {
		return muldiv(b.Amount.Amount, b.BackerMultiplier-p, p) == 0
	}
	return muldiv(b.Amount.Amount, p, b.BackerMultiplier-p) == 0
}

// bestCounter returns the best-priced active opposing bet on the taker's
// market: the lowest-multiplier back, or the highest-multiplier lay, ties
// broken by insertion sequence.
func (s *State) bestCounter(taker *domain.Bet) (*domain.Bet, bool) {
	pivot := oddsItem{
		delayed: false,
		market:  taker.MarketID.Serial,
		side:    taker.Side.Opposite(),
		price:   math.MinInt64,
	}

	var counterID domain.ObjectID
	found := false
	s.store.AscendOddsFrom(pivot, func(item oddsItem) bool {
		if item.delayed || item.market != pivot.market || item.side != pivot.side {
			return false
		}
		counterID = item.betID
		found = true
		return false
	})
	if !found {
		return nil, false
	}

	bet, err := s.findBet(counterID)
	if err != nil {
		panic(err)
	}
	return bet, true
}

// crosses reports whether a back at backMult and a lay at layMult meet the
// complementarity rule.
func crosses(backMult, layMult int64) bool {
	return backMult <= layMult
}

// matchBet drives a freshly admitted (taker) bet against the opposing queue
// of its market. It repeatedly peels the best-priced counter-bet, clears at
// the maker's multiplier, reduces stakes, merges matched amounts into the
// bettors' positions, and deletes filled bets. The loop ends when the taker
// is filled or the book holds no compatible counter-bet.
func (s *State) matchBet(takerID domain.ObjectID) {
	for {
		taker, err := s.findBet(takerID)
		if err != nil {
			return // fully filled and deleted in a prior round
		}

		maker, ok := s.bestCounter(taker)
		if !ok {
			break
		}

		var backBet, layBet *domain.Bet
		if taker.Side == domain.SideBack {
			backBet, layBet = taker, maker
		} else {
			backBet, layBet = maker, taker
		}
		if !crosses(backBet.BackerMultiplier, layBet.BackerMultiplier) {
			break
		}

		// The earlier-placed bet dictates the clearing price.
		price := maker.BackerMultiplier

		backMatched, layMatched := crossAmounts(backBet.Amount.Amount, layBet.Amount.Amount, price)
		if backMatched == 0 {
			// The lay side cannot support one back unit at this price.
			s.cancelBet(layBet)
			if layBet == taker {
				return
			}
			continue
		}
		if layMatched == 0 {
			// The back side cannot produce one lay unit at this price.
			s.cancelBet(backBet)
			if backBet == taker {
				return
			}
			continue
		}

		s.fill(backBet, layBet, backMatched, layMatched, taker.ID, maker.ID, price)

		// Residuals too small to ever match again are refunded rather than
		// left to clog the front of the queue.
		if maker, err := s.findBet(maker.ID); err == nil && betIsDust(maker) {
			s.cancelBet(maker)
		}
		if taker, err := s.findBet(takerID); err == nil && betIsDust(taker) {
			s.cancelBet(taker)
			return
		}
	}
}

// fill applies one cross: reduces both stakes, deletes filled bets, and
// merges the matched amounts into the two bettors' positions.
func (s *State) fill(backBet, layBet *domain.Bet, backMatched, layMatched int64, takerID, makerID domain.ObjectID, price int64) {
	assetID := backBet.Amount.AssetID
	total := backMatched + layMatched

	s.reduceBet(backBet, backMatched)
	s.reduceBet(layBet, layMatched)

	s.upsertPosition(backBet.MarketID, backBet.BettorID, func(pos *domain.Position) {
		pos.PayIfWin += total
		pos.PayIfCanceled += backMatched
	})
	s.upsertPosition(layBet.MarketID, layBet.BettorID, func(pos *domain.Position) {
		pos.PayIfNotWin += total
		pos.PayIfCanceled += layMatched
	})

	s.emit(domain.Event{
		Type:         domain.EventBetMatched,
		Subject:      takerID,
		Market:       backBet.MarketID,
		Counterparty: makerID,
		Amount:       domain.AssetAmount{AssetID: assetID, Amount: total},
		Price:        price,
	})
}

// reduceBet shrinks a bet's residual stake, deleting it once fully filled.
func (s *State) reduceBet(bet *domain.Bet, matched int64) {
	bet.Amount.Amount -= matched
	if bet.Amount.Amount == 0 {
		s.store.Remove(bet.ID)
		return
	}
	s.store.Update(bet)
}

// upsertPosition merges matched exposure into the bettor's position on the
// market, creating it on first touch.
func (s *State) upsertPosition(marketID, bettorID domain.ObjectID, mutate func(*domain.Position)) {
	pos, ok := s.store.PositionOf(marketID, bettorID)
	if !ok {
		pos = &domain.Position{
			ID:       s.store.AllocateID(domain.TypePosition),
			MarketID: marketID,
			BettorID: bettorID,
		}
		mutate(pos)
		s.store.Insert(pos)
		return
	}
	mutate(pos)
	s.store.Update(pos)
}

// cancelBet refunds a bet's residual escrow and deletes it.
func (s *State) cancelBet(bet *domain.Bet) {
	s.ledger.AdjustBalance(bet.BettorID, bet.Amount)
	s.store.Remove(bet.ID)
	s.emit(domain.Event{
		Type:    domain.EventBetCanceled,
		Subject: bet.ID,
		Market:  bet.MarketID,
		Account: bet.BettorID,
		Amount:  bet.Amount,
	})
}
