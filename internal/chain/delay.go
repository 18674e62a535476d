package chain

import "github.com/alanyoungcy/chainbook/internal/domain"

// The delay controller. Bets with EndOfDelay set sort as a contiguous
// region at the front of the by_odds index, ordered by deadline. Flushing a
// bet clears the marker, which re-sorts it into the active book, and then
// runs it through the matching engine.

// flushExpiredDelays admits every delayed bet whose deadline has passed at
// the current head block time. Bets on frozen groups stay quarantined; the
// frozen state overrides the expired deadline.
func (s *State) flushExpiredDelays() {
	deadline := s.headTime.UnixNano()

	var expired []domain.ObjectID
	s.store.AscendOdds(func(item oddsItem) bool {
		if !item.delayed || item.endOfDelay > deadline {
			return false
		}
		expired = append(expired, item.betID)
		return true
	})

	for _, betID := range expired {
		s.flushDelayedBet(betID, domain.ObjectID{})
	}
}

// flushGroupDelays admits every delayed bet of one group, regardless of
// deadline. It runs when the group's delay_bets flag transitions to false;
// other groups' delayed bets are untouched, and a frozen group keeps its
// bets quarantined.
func (s *State) flushGroupDelays(groupID domain.ObjectID) {
	var delayed []domain.ObjectID
	s.store.AscendOdds(func(item oddsItem) bool {
		if !item.delayed {
			return false
		}
		delayed = append(delayed, item.betID)
		return true
	})

	for _, betID := range delayed {
		s.flushDelayedBet(betID, groupID)
	}
}

// flushDelayedBet clears one bet's delay marker and matches it. When
// onlyGroup is set, bets of other groups are skipped.
func (s *State) flushDelayedBet(betID, onlyGroup domain.ObjectID) {
	bet, err := s.findBet(betID)
	if err != nil || !bet.Delayed() {
		return
	}

	market := s.mustMarket(bet.MarketID)
	group := s.mustGroup(market.GroupID)
	if !onlyGroup.IsZero() && group.ID != onlyGroup {
		return
	}
	if group.Frozen {
		return
	}

	bet.EndOfDelay = nil
	s.store.Update(bet)
	s.emit(domain.Event{
		Type:    domain.EventBetsFlushed,
		Subject: bet.ID,
		Market:  bet.MarketID,
		Account: bet.BettorID,
	})

	s.matchBet(bet.ID)
}
