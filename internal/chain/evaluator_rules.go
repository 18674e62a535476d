package chain

import "github.com/alanyoungcy/chainbook/internal/domain"

func (s *State) validateRulesCreate(ctx *txContext, op *domain.RulesCreateOp) error {
	return ctx.requireProposed(op)
}

func (s *State) applyRulesCreate(op *domain.RulesCreateOp) domain.ObjectID {
	id := s.store.AllocateID(domain.TypeRules)
	s.store.Insert(&domain.BettingMarketRules{
		ID:          id,
		Name:        op.Name,
		Description: op.Description,
	})
	s.emit(domain.Event{Type: domain.EventRulesCreated, Subject: id})
	return id
}

func (s *State) validateRulesUpdate(ctx *txContext, op *domain.RulesUpdateOp) error {
	if err := ctx.requireProposed(op); err != nil {
		return err
	}
	if _, err := s.findRules(op.RulesID); err != nil {
		return err
	}
	if op.NewName == nil && op.NewDescription == nil {
		return domain.NewOpError(domain.ReasonNothingToUpdate, "rules update changes nothing")
	}
	return nil
}

func (s *State) applyRulesUpdate(op *domain.RulesUpdateOp) {
	rules := s.mustRules(op.RulesID)
	if op.NewName != nil {
		rules.Name = *op.NewName
	}
	if op.NewDescription != nil {
		rules.Description = *op.NewDescription
	}
	s.store.Update(rules)
	s.emit(domain.Event{Type: domain.EventRulesUpdated, Subject: rules.ID})
}

// mustRules re-reads an object the validator already admitted.
func (s *State) mustRules(id domain.ObjectID) *domain.BettingMarketRules {
	rules, err := s.findRules(id)
	if err != nil {
		panic(err)
	}
	return rules
}
