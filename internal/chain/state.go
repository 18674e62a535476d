package chain

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// State is the betting-market chain state: the object store, the balance
// ledger, the chain parameters, and the head block time. It is the single
// entry point for applying transactions and advancing time.
//
// State is not safe for concurrent use; the node layer serializes access.
type State struct {
	store    *Store
	ledger   *Ledger
	params   domain.Parameters
	headTime time.Time

	// events accumulates applied events for the transaction in flight.
	events []domain.Event
}

// NewState returns an empty state with the given parameters and an initial
// head block time.
func NewState(params domain.Parameters, genesisTime time.Time) *State {
	store := NewStore()
	return &State{
		store:    store,
		ledger:   NewLedger(store),
		params:   params,
		headTime: genesisTime,
	}
}

// Params returns the chain parameters.
func (s *State) Params() domain.Parameters { return s.params }

// HeadTime returns the current head block time.
func (s *State) HeadTime() time.Time { return s.headTime }

// Store exposes read-only access to the object store for the query layer.
func (s *State) Store() *Store { return s.store }

// Ledger exposes read-only access to the balance ledger.
func (s *State) Ledger() *Ledger { return s.ledger }

// ---------------------------------------------------------------------------
// Genesis registration. Accounts, assets, and events are external entities
// managed outside this subsystem; the host registers them before the first
// transaction.
// ---------------------------------------------------------------------------

// RegisterAccount creates an account object and returns its id.
func (s *State) RegisterAccount(name string) domain.ObjectID {
	id := s.store.AllocateID(domain.TypeAccount)
	s.store.Insert(&domain.Account{ID: id, Name: name})
	return id
}

// RegisterAsset creates an asset object. An empty authorized list leaves the
// asset open to all accounts.
func (s *State) RegisterAsset(symbol string, precision uint8, authorized ...domain.ObjectID) domain.ObjectID {
	id := s.store.AllocateID(domain.TypeAsset)
	s.store.Insert(&domain.Asset{
		ID:                 id,
		Symbol:             symbol,
		Precision:          precision,
		AuthorizedAccounts: authorized,
	})
	return id
}

// RegisterEvent creates a sporting-event object.
func (s *State) RegisterEvent(description string) domain.ObjectID {
	id := s.store.AllocateID(domain.TypeEvent)
	s.store.Insert(&domain.SportEvent{ID: id, Description: description})
	return id
}

// Fund credits an account balance outside of any transaction. Genesis only.
func (s *State) Fund(account domain.ObjectID, amount domain.AssetAmount) {
	s.ledger.AdjustBalance(account, amount)
}

// ---------------------------------------------------------------------------
// Transaction application
// ---------------------------------------------------------------------------

// ApplyTransaction validates and applies every operation of the transaction
// in order. Either the whole transaction applies and a receipt is returned,
// or the state is left untouched and the validation error is returned.
func (s *State) ApplyTransaction(tx *domain.Transaction) (*domain.TxReceipt, error) {
	if err := s.CheckTransactionForDuplicatedOperations(tx); err != nil {
		return nil, err
	}

	s.store.Begin()
	s.events = s.events[:0]

	ctx := &txContext{tx: tx}
	for i, op := range tx.Operations {
		if err := s.validateOperation(ctx, op); err != nil {
			s.store.Rollback()
			return nil, fmt.Errorf("chain: operation %d (%s): %w", i, op.Kind(), err)
		}
		created := s.applyOperation(ctx, op)
		if !created.IsZero() {
			ctx.created = append(ctx.created, created)
		}
	}

	s.store.Commit()

	receipt := &domain.TxReceipt{
		CreatedIDs: ctx.created,
		Events:     append([]domain.Event(nil), s.events...),
	}
	s.events = s.events[:0]
	return receipt, nil
}

// AdvanceTime moves the head block time forward and flushes every delayed
// bet whose deadline has passed. The external block driver calls this once
// per block.
func (s *State) AdvanceTime(t time.Time) []domain.Event {
	if t.Before(s.headTime) {
		panic(fmt.Sprintf("chain: head block time moving backwards (%s -> %s)", s.headTime, t))
	}
	s.headTime = t

	s.store.Begin()
	s.events = s.events[:0]
	s.flushExpiredDelays()
	s.store.Commit()

	events := append([]domain.Event(nil), s.events...)
	s.events = s.events[:0]
	return events
}

// emit appends an applied event stamped with the head block time.
func (s *State) emit(ev domain.Event) {
	ev.BlockTime = s.headTime
	s.events = append(s.events, ev)
}

// ---------------------------------------------------------------------------
// Typed lookups used by the node layer. All return clones.
// ---------------------------------------------------------------------------

// Rules returns a rule set by id.
func (s *State) Rules(id domain.ObjectID) (*domain.BettingMarketRules, bool) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, false
	}
	rules, ok := obj.(*domain.BettingMarketRules)
	return rules, ok
}

// Group returns a group by id.
func (s *State) Group(id domain.ObjectID) (*domain.BettingMarketGroup, bool) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, false
	}
	group, ok := obj.(*domain.BettingMarketGroup)
	return group, ok
}

// Market returns a market by id.
func (s *State) Market(id domain.ObjectID) (*domain.BettingMarket, bool) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, false
	}
	market, ok := obj.(*domain.BettingMarket)
	return market, ok
}

// Bet returns an open bet by id.
func (s *State) Bet(id domain.ObjectID) (*domain.Bet, bool) {
	obj, ok := s.store.Get(id)
	if !ok {
		return nil, false
	}
	bet, ok := obj.(*domain.Bet)
	return bet, ok
}

// Groups returns every live group in serial order.
func (s *State) Groups() []*domain.BettingMarketGroup {
	var groups []*domain.BettingMarketGroup
	serials := s.store.nextSerial[domain.TypeGroup]
	for serial := uint64(0); serial < serials; serial++ {
		if g, ok := s.Group(domain.NewID(domain.TypeGroup, serial)); ok {
			groups = append(groups, g)
		}
	}
	return groups
}

// MarketsOf returns the live markets of a group in serial order.
func (s *State) MarketsOf(groupID domain.ObjectID) []*domain.BettingMarket {
	var markets []*domain.BettingMarket
	for _, id := range s.store.MarketsOfGroup(groupID) {
		if m, ok := s.Market(id); ok {
			markets = append(markets, m)
		}
	}
	return markets
}

// OpenBetsOf returns the open bets of a market, delayed included, in
// insertion order.
func (s *State) OpenBetsOf(marketID domain.ObjectID) []*domain.Bet {
	var bets []*domain.Bet
	for _, id := range s.store.BetsOfMarket(marketID) {
		if b, ok := s.Bet(id); ok {
			bets = append(bets, b)
		}
	}
	return bets
}

// PositionsOf returns the matched positions of a market in bettor order.
func (s *State) PositionsOf(marketID domain.ObjectID) []*domain.Position {
	var positions []*domain.Position
	for _, id := range s.store.PositionsOfMarket(marketID) {
		obj, ok := s.store.Get(id)
		if !ok {
			continue
		}
		positions = append(positions, obj.(*domain.Position))
	}
	return positions
}
