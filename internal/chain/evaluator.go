package chain

import (
	"fmt"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// txContext carries per-transaction evaluation state: the enclosing
// transaction and the ids of objects created so far, which relative ids
// resolve against.
type txContext struct {
	tx      *domain.Transaction
	created []domain.ObjectID
}

// requireProposed rejects proposed-only operations outside a proposal.
func (ctx *txContext) requireProposed(op domain.Operation) error {
	if !ctx.tx.IsProposed {
		return domain.NewOpError(domain.ReasonNotAProposal,
			"%s may only be used in a proposed transaction", op.Kind())
	}
	return nil
}

// resolveID resolves a possibly-relative id and asserts its type tag. A
// relative id refers to the N-th object created earlier in this transaction.
func (ctx *txContext) resolveID(id domain.ObjectID, want domain.ObjectType) (domain.ObjectID, error) {
	if id.IsRelative() {
		if id.Serial >= uint64(len(ctx.created)) {
			return domain.ObjectID{}, domain.NewOpError(domain.ReasonReferenceNotFound,
				"relative id %s refers past the %d objects created so far", id, len(ctx.created))
		}
		id = ctx.created[id.Serial]
	}
	if !id.IsType(want) {
		return domain.ObjectID{}, domain.NewOpError(domain.ReasonWrongReferenceType,
			"%s must refer to a %s", id, want)
	}
	return id, nil
}

// validateOperation runs the read-only validate phase for one operation.
func (s *State) validateOperation(ctx *txContext, op domain.Operation) error {
	switch op := op.(type) {
	case *domain.RulesCreateOp:
		return s.validateRulesCreate(ctx, op)
	case *domain.RulesUpdateOp:
		return s.validateRulesUpdate(ctx, op)
	case *domain.GroupCreateOp:
		return s.validateGroupCreate(ctx, op)
	case *domain.GroupUpdateOp:
		return s.validateGroupUpdate(ctx, op)
	case *domain.MarketCreateOp:
		return s.validateMarketCreate(ctx, op)
	case *domain.MarketUpdateOp:
		return s.validateMarketUpdate(ctx, op)
	case *domain.BetPlaceOp:
		return s.validateBetPlace(ctx, op)
	case *domain.BetCancelOp:
		return s.validateBetCancel(ctx, op)
	case *domain.GroupResolveOp:
		return s.validateGroupResolve(ctx, op)
	case *domain.GroupCancelUnmatchedBetsOp:
		return s.validateGroupCancelUnmatched(ctx, op)
	case *domain.TransferOp:
		return s.validateTransfer(ctx, op)
	case *domain.ProposalCreateOp:
		return s.validateProposalCreate(ctx, op)
	default:
		return domain.NewOpError(domain.ReasonWrongReferenceType,
			"unknown operation kind %q", op.Kind())
	}
}

// applyOperation runs the apply phase for one validated operation and
// returns the id of the object it created, if any. Appliers must not fail:
// validation has already admitted the operation, so any inconsistency found
// here is a programming error and panics.
func (s *State) applyOperation(ctx *txContext, op domain.Operation) domain.ObjectID {
	switch op := op.(type) {
	case *domain.RulesCreateOp:
		return s.applyRulesCreate(op)
	case *domain.RulesUpdateOp:
		s.applyRulesUpdate(op)
	case *domain.GroupCreateOp:
		return s.applyGroupCreate(ctx, op)
	case *domain.GroupUpdateOp:
		s.applyGroupUpdate(ctx, op)
	case *domain.MarketCreateOp:
		return s.applyMarketCreate(ctx, op)
	case *domain.MarketUpdateOp:
		s.applyMarketUpdate(ctx, op)
	case *domain.BetPlaceOp:
		return s.applyBetPlace(op)
	case *domain.BetCancelOp:
		s.applyBetCancel(op)
	case *domain.GroupResolveOp:
		s.applyGroupResolve(op)
	case *domain.GroupCancelUnmatchedBetsOp:
		s.applyGroupCancelUnmatched(op)
	case *domain.TransferOp:
		s.applyTransfer(op)
	case *domain.ProposalCreateOp:
		return s.applyProposalCreate(op)
	default:
		panic(fmt.Sprintf("chain: apply of unknown operation kind %q", op.Kind()))
	}
	return domain.ObjectID{}
}

// ---------------------------------------------------------------------------
// Typed store lookups shared by the validators.
// ---------------------------------------------------------------------------

func (s *State) findRules(id domain.ObjectID) (*domain.BettingMarketRules, error) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonReferenceNotFound, "rules %s does not exist", id)
	}
	rules, ok := obj.(*domain.BettingMarketRules)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonWrongReferenceType, "%s is not a rules object", id)
	}
	return rules, nil
}

func (s *State) findGroup(id domain.ObjectID) (*domain.BettingMarketGroup, error) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonReferenceNotFound, "group %s does not exist", id)
	}
	group, ok := obj.(*domain.BettingMarketGroup)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonWrongReferenceType, "%s is not a group object", id)
	}
	return group, nil
}

func (s *State) findMarket(id domain.ObjectID) (*domain.BettingMarket, error) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonReferenceNotFound, "market %s does not exist", id)
	}
	market, ok := obj.(*domain.BettingMarket)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonWrongReferenceType, "%s is not a market object", id)
	}
	return market, nil
}

func (s *State) findBet(id domain.ObjectID) (*domain.Bet, error) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonReferenceNotFound, "bet %s does not exist", id)
	}
	bet, ok := obj.(*domain.Bet)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonWrongReferenceType, "%s is not a bet object", id)
	}
	return bet, nil
}

func (s *State) findAsset(id domain.ObjectID) (*domain.Asset, error) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonReferenceNotFound, "asset %s does not exist", id)
	}
	asset, ok := obj.(*domain.Asset)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonWrongReferenceType, "%s is not an asset object", id)
	}
	return asset, nil
}

func (s *State) findAccount(id domain.ObjectID) (*domain.Account, error) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonReferenceNotFound, "account %s does not exist", id)
	}
	account, ok := obj.(*domain.Account)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonWrongReferenceType, "%s is not an account object", id)
	}
	return account, nil
}

func (s *State) findEvent(id domain.ObjectID) (*domain.SportEvent, error) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonReferenceNotFound, "event %s does not exist", id)
	}
	event, ok := obj.(*domain.SportEvent)
	if !ok {
		return nil, domain.NewOpError(domain.ReasonWrongReferenceType, "%s is not an event object", id)
	}
	return event, nil
}
