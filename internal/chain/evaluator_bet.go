package chain

import "github.com/alanyoungcy/chainbook/internal/domain"

func (s *State) validateBetPlace(ctx *txContext, op *domain.BetPlaceOp) error {
	market, err := s.findMarket(op.MarketID)
	if err != nil {
		return err
	}
	group, err := s.findGroup(market.GroupID)
	if err != nil {
		return err
	}

	if op.Amount.AssetID != group.AssetID {
		return domain.NewOpError(domain.ReasonAssetMismatch,
			"bet asset %s does not match the market's asset %s", op.Amount.AssetID, group.AssetID)
	}

	asset, err := s.findAsset(group.AssetID)
	if err != nil {
		return err
	}
	if _, err := s.findAccount(op.BettorID); err != nil {
		return err
	}
	if !s.ledger.IsAuthorizedAsset(op.BettorID, asset) {
		return domain.NewOpError(domain.ReasonUnauthorizedAsset,
			"account %s is not authorized to transact %s", op.BettorID, asset.Symbol)
	}

	if group.Frozen {
		return domain.NewOpError(domain.ReasonMarketFrozen,
			"unable to place bets while group %s is frozen", group.ID)
	}

	if !op.Side.Valid() {
		return domain.NewOpError(domain.ReasonWrongReferenceType,
			"unknown bet side %q", op.Side)
	}

	if op.BackerMultiplier < s.params.MinBetMultiplier || op.BackerMultiplier > s.params.MaxBetMultiplier {
		return domain.NewOpError(domain.ReasonOddsOutOfRange,
			"multiplier %d is outside [%d, %d]",
			op.BackerMultiplier, s.params.MinBetMultiplier, s.params.MaxBetMultiplier)
	}
	if incr := s.params.Increment(op.BackerMultiplier); incr > 0 && op.BackerMultiplier%incr != 0 {
		return domain.NewOpError(domain.ReasonOddsNotOnIncrement,
			"multiplier %d is not a multiple of %d", op.BackerMultiplier, incr)
	}

	if op.Amount.Amount <= 0 {
		return domain.NewOpError(domain.ReasonNonPositiveAmount,
			"cannot place a bet of %d", op.Amount.Amount)
	}

	if s.ledger.GetBalance(op.BettorID, group.AssetID) < op.Amount.Amount {
		return domain.NewOpError(domain.ReasonInsufficientBalance,
			"balance %d is below the bet amount %d",
			s.ledger.GetBalance(op.BettorID, group.AssetID), op.Amount.Amount)
	}
	return nil
}

func (s *State) applyBetPlace(op *domain.BetPlaceOp) domain.ObjectID {
	market := s.mustMarket(op.MarketID)
	group := s.mustGroup(market.GroupID)

	bet := &domain.Bet{
		ID:               s.store.AllocateID(domain.TypeBet),
		BettorID:         op.BettorID,
		MarketID:         op.MarketID,
		Amount:           op.Amount,
		BackerMultiplier: op.BackerMultiplier,
		Side:             op.Side,
		Seq:              s.store.NextBetSeq(),
	}

	delay := s.params.LiveBettingDelay
	if group.DelayBets && delay > 0 {
		deadline := s.headTime.Add(delay)
		bet.EndOfDelay = &deadline
	}

	s.store.Insert(bet)
	s.ledger.AdjustBalance(op.BettorID, op.Amount.Negated())
	s.emit(domain.Event{
		Type:    domain.EventBetPlaced,
		Subject: bet.ID,
		Market:  op.MarketID,
		Account: op.BettorID,
		Amount:  op.Amount.Negated(),
		Price:   op.BackerMultiplier,
	})

	// A zero delay skips the quarantine even on delay_bets groups.
	if !group.DelayBets || delay <= 0 {
		s.matchBet(bet.ID)
	}
	return bet.ID
}

func (s *State) validateBetCancel(ctx *txContext, op *domain.BetCancelOp) error {
	bet, err := s.findBet(op.BetID)
	if err != nil {
		return err
	}
	if bet.BettorID != op.BettorID {
		return domain.NewOpError(domain.ReasonCancelForeignBet,
			"account %s can only cancel its own bets", op.BettorID)
	}
	return nil
}

func (s *State) applyBetCancel(op *domain.BetCancelOp) {
	bet, err := s.findBet(op.BetID)
	if err != nil {
		panic(err)
	}
	s.cancelBet(bet)
}

func (s *State) validateTransfer(ctx *txContext, op *domain.TransferOp) error {
	if _, err := s.findAccount(op.From); err != nil {
		return err
	}
	if _, err := s.findAccount(op.To); err != nil {
		return err
	}
	asset, err := s.findAsset(op.Amount.AssetID)
	if err != nil {
		return err
	}
	if !s.ledger.IsAuthorizedAsset(op.To, asset) {
		return domain.NewOpError(domain.ReasonUnauthorizedAsset,
			"account %s is not authorized to receive %s", op.To, asset.Symbol)
	}
	if op.Amount.Amount <= 0 {
		return domain.NewOpError(domain.ReasonNonPositiveAmount,
			"cannot transfer %d", op.Amount.Amount)
	}
	if s.ledger.GetBalance(op.From, op.Amount.AssetID) < op.Amount.Amount {
		return domain.NewOpError(domain.ReasonInsufficientBalance,
			"balance %d is below the transfer amount %d",
			s.ledger.GetBalance(op.From, op.Amount.AssetID), op.Amount.Amount)
	}
	return nil
}

func (s *State) applyTransfer(op *domain.TransferOp) {
	s.ledger.AdjustBalance(op.From, op.Amount.Negated())
	s.ledger.AdjustBalance(op.To, op.Amount)
	s.emit(domain.Event{
		Type:    domain.EventTransferDone,
		Subject: op.From,
		Account: op.To,
		Amount:  op.Amount,
	})
}
