package chain

import "github.com/alanyoungcy/chainbook/internal/domain"

func (s *State) validateGroupResolve(ctx *txContext, op *domain.GroupResolveOp) error {
	if err := ctx.requireProposed(op); err != nil {
		return err
	}

	group, err := s.findGroup(op.GroupID)
	if err != nil {
		return err
	}

	markets := s.store.MarketsOfGroup(group.ID)

	seen := make(map[domain.ObjectID]bool, len(op.Resolutions))
	for _, res := range op.Resolutions {
		if !res.Label.Valid() {
			return domain.NewOpError(domain.ReasonResolutionLabelIllegal,
				"label %q is not in the legal set for group %s", res.Label, group.ID)
		}
		if seen[res.MarketID] {
			return domain.NewOpError(domain.ReasonResolutionCoverageMismatch,
				"market %s is resolved twice", res.MarketID)
		}
		seen[res.MarketID] = true

		market, err := s.findMarket(res.MarketID)
		if err != nil {
			return err
		}
		if market.GroupID != group.ID {
			return domain.NewOpError(domain.ReasonResolutionCoverageMismatch,
				"market %s does not belong to group %s", market.ID, group.ID)
		}
	}

	if len(op.Resolutions) != len(markets) {
		return domain.NewOpError(domain.ReasonResolutionCoverageMismatch,
			"%d resolutions cover a group of %d markets", len(op.Resolutions), len(markets))
	}
	return nil
}

func (s *State) applyGroupResolve(op *domain.GroupResolveOp) {
	group := s.mustGroup(op.GroupID)

	labels := make(map[domain.ObjectID]domain.ResolutionLabel, len(op.Resolutions))
	for _, res := range op.Resolutions {
		labels[res.MarketID] = res.Label
	}

	for _, marketID := range s.store.MarketsOfGroup(group.ID) {
		s.settleMarket(marketID, labels[marketID])
	}

	s.store.Remove(group.ID)
	s.emit(domain.Event{Type: domain.EventGroupResolved, Subject: group.ID})
}

// settleMarket finalises one market: refunds its open bets, credits every
// matched position per the resolution label, and deletes the market.
func (s *State) settleMarket(marketID domain.ObjectID, label domain.ResolutionLabel) {
	market := s.mustMarket(marketID)
	group := s.mustGroup(market.GroupID)

	s.cancelOpenBets(marketID)

	for _, posID := range s.store.PositionsOfMarket(marketID) {
		obj, ok := s.store.Get(posID)
		if !ok {
			continue
		}
		pos := obj.(*domain.Position)

		var payout int64
		switch label {
		case domain.ResolutionWin:
			payout = pos.PayIfWin
		case domain.ResolutionNotWin:
			payout = pos.PayIfNotWin
		case domain.ResolutionCancel:
			payout = pos.PayIfCanceled
		}

		if payout > 0 {
			credit := domain.AssetAmount{AssetID: group.AssetID, Amount: payout}
			s.ledger.AdjustBalance(pos.BettorID, credit)
			s.emit(domain.Event{
				Type:    domain.EventMarketSettled,
				Subject: marketID,
				Account: pos.BettorID,
				Amount:  credit,
				Label:   label,
			})
		}
		s.store.Remove(posID)
	}

	s.store.Remove(marketID)
}

// cancelOpenBets refunds and deletes every open bet of a market, delayed
// bets included.
func (s *State) cancelOpenBets(marketID domain.ObjectID) {
	for _, betID := range s.store.BetsOfMarket(marketID) {
		bet, err := s.findBet(betID)
		if err != nil {
			continue
		}
		s.cancelBet(bet)
	}
}

func (s *State) validateGroupCancelUnmatched(ctx *txContext, op *domain.GroupCancelUnmatchedBetsOp) error {
	if err := ctx.requireProposed(op); err != nil {
		return err
	}
	_, err := s.findGroup(op.GroupID)
	return err
}

func (s *State) applyGroupCancelUnmatched(op *domain.GroupCancelUnmatchedBetsOp) {
	group := s.mustGroup(op.GroupID)
	for _, marketID := range s.store.MarketsOfGroup(group.ID) {
		s.cancelOpenBets(marketID)
	}
}
