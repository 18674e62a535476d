package chain

import "github.com/alanyoungcy/chainbook/internal/domain"

func (s *State) validateMarketCreate(ctx *txContext, op *domain.MarketCreateOp) error {
	if err := ctx.requireProposed(op); err != nil {
		return err
	}

	groupID, err := ctx.resolveID(op.GroupID, domain.TypeGroup)
	if err != nil {
		return err
	}
	if _, err := s.findGroup(groupID); err != nil {
		return err
	}
	return nil
}

func (s *State) applyMarketCreate(ctx *txContext, op *domain.MarketCreateOp) domain.ObjectID {
	groupID := mustResolve(ctx, op.GroupID, domain.TypeGroup)

	id := s.store.AllocateID(domain.TypeMarket)
	s.store.Insert(&domain.BettingMarket{
		ID:              id,
		GroupID:         groupID,
		Description:     op.Description,
		PayoutCondition: op.PayoutCondition,
	})
	s.emit(domain.Event{Type: domain.EventMarketCreated, Subject: id})
	return id
}

func (s *State) validateMarketUpdate(ctx *txContext, op *domain.MarketUpdateOp) error {
	if err := ctx.requireProposed(op); err != nil {
		return err
	}

	if _, err := s.findMarket(op.MarketID); err != nil {
		return err
	}

	if op.NewGroupID == nil && op.NewDescription == nil && op.NewPayoutCondition == nil {
		return domain.NewOpError(domain.ReasonNothingToUpdate, "market update changes nothing")
	}

	if op.NewGroupID != nil {
		groupID, err := ctx.resolveID(*op.NewGroupID, domain.TypeGroup)
		if err != nil {
			return err
		}
		newGroup, err := s.findGroup(groupID)
		if err != nil {
			return err
		}

		// Moving a market between groups with different settlement assets
		// would strand its open bets and positions in the wrong asset.
		market := s.mustMarket(op.MarketID)
		oldGroup, err := s.findGroup(market.GroupID)
		if err == nil && oldGroup.AssetID != newGroup.AssetID {
			if len(s.store.BetsOfMarket(market.ID)) > 0 || len(s.store.PositionsOfMarket(market.ID)) > 0 {
				return domain.NewOpError(domain.ReasonAssetMismatch,
					"market %s has open bets in %s and cannot move to a %s group",
					market.ID, oldGroup.AssetID, newGroup.AssetID)
			}
		}
	}
	return nil
}

func (s *State) applyMarketUpdate(ctx *txContext, op *domain.MarketUpdateOp) {
	market := s.mustMarket(op.MarketID)

	if op.NewGroupID != nil {
		market.GroupID = mustResolve(ctx, *op.NewGroupID, domain.TypeGroup)
	}
	if op.NewDescription != nil {
		market.Description = *op.NewDescription
	}
	if op.NewPayoutCondition != nil {
		market.PayoutCondition = *op.NewPayoutCondition
	}
	s.store.Update(market)
	s.emit(domain.Event{Type: domain.EventMarketUpdated, Subject: market.ID})
}

// mustMarket re-reads an object the validator already admitted.
func (s *State) mustMarket(id domain.ObjectID) *domain.BettingMarket {
	market, err := s.findMarket(id)
	if err != nil {
		panic(err)
	}
	return market
}
