// Package chain implements the deterministic betting-market core: the typed
// object store, the balance ledger, the operation evaluators, the matching
// engine, the delay controller, and the resolution engine. Nothing in this
// package reads the wall clock, spawns goroutines, or iterates a map to
// drive a mutation; given identical inputs it produces identical state and
// identical event lists on every node.
package chain

import (
	"fmt"

	"github.com/google/btree"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// Store is the typed object store plus its secondary indices. All access
// hands out clones, never live references; mutations go through Insert,
// Update, and Remove so the indices and the undo log stay consistent.
type Store struct {
	objects    map[domain.ObjectID]domain.Object
	nextSerial map[domain.ObjectType]uint64

	// byOdds orders every open bet: the delayed region first, then active
	// bets in price-time priority (see index.go).
	byOdds *btree.BTreeG[oddsItem]

	// marketsByGroup: (group serial, market serial) -> market id.
	marketsByGroup *btree.BTreeG[refItem]

	// betsByMarket: (market serial, bet seq) -> bet id. Unlike byOdds this
	// covers delayed and active bets uniformly, which the mass-cancel and
	// resolution paths need.
	betsByMarket *btree.BTreeG[refItem]

	// betsByBettor: (bettor serial, bet seq) -> bet id.
	betsByBettor *btree.BTreeG[refItem]

	// positionsByMarket: (market serial, bettor serial) -> position id.
	positionsByMarket *btree.BTreeG[refItem]

	nextBetSeq uint64

	undo *undoLog
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		objects:           make(map[domain.ObjectID]domain.Object),
		nextSerial:        make(map[domain.ObjectType]uint64),
		byOdds:            newOddsIndex(),
		marketsByGroup:    newRefIndex(),
		betsByMarket:      newRefIndex(),
		betsByBettor:      newRefIndex(),
		positionsByMarket: newRefIndex(),
	}
}

// ---------------------------------------------------------------------------
// Undo sessions
//
// A transaction either applies whole or not at all. The session snapshots
// the indices copy-on-write and records inverse closures for the flat maps;
// Rollback restores the exact pre-transaction state.
// ---------------------------------------------------------------------------

type undoLog struct {
	ops []func()

	prevByOdds            *btree.BTreeG[oddsItem]
	prevMarketsByGroup    *btree.BTreeG[refItem]
	prevBetsByMarket      *btree.BTreeG[refItem]
	prevBetsByBettor      *btree.BTreeG[refItem]
	prevPositionsByMarket *btree.BTreeG[refItem]
}

// record registers an inverse closure to run on rollback.
func (u *undoLog) record(fn func()) {
	if u == nil {
		return
	}
	u.ops = append(u.ops, fn)
}

// Begin opens an undo session. Panics if a session is already open; the
// engine is single-threaded and transactions never nest.
func (s *Store) Begin() {
	if s.undo != nil {
		panic("chain: nested store session")
	}
	s.undo = &undoLog{
		prevByOdds:            s.byOdds.Clone(),
		prevMarketsByGroup:    s.marketsByGroup.Clone(),
		prevBetsByMarket:      s.betsByMarket.Clone(),
		prevBetsByBettor:      s.betsByBettor.Clone(),
		prevPositionsByMarket: s.positionsByMarket.Clone(),
	}
}

// Commit discards the undo session, keeping all mutations.
func (s *Store) Commit() {
	s.undo = nil
}

// Rollback restores the store to its state at Begin.
func (s *Store) Rollback() {
	u := s.undo
	if u == nil {
		return
	}
	for i := len(u.ops) - 1; i >= 0; i-- {
		u.ops[i]()
	}
	s.byOdds = u.prevByOdds
	s.marketsByGroup = u.prevMarketsByGroup
	s.betsByMarket = u.prevBetsByMarket
	s.betsByBettor = u.prevBetsByBettor
	s.positionsByMarket = u.prevPositionsByMarket
	s.undo = nil
}

// onUndo exposes undo recording to the ledger, which shares the store's
// transaction boundary.
func (s *Store) onUndo(fn func()) {
	s.undo.record(fn)
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

// AllocateID reserves the next serial of the given type.
func (s *Store) AllocateID(t domain.ObjectType) domain.ObjectID {
	serial := s.nextSerial[t]
	s.nextSerial[t] = serial + 1
	s.undo.record(func() { s.nextSerial[t] = serial })
	return domain.NewID(t, serial)
}

// NextBetSeq reserves the next global bet insertion sequence.
func (s *Store) NextBetSeq() uint64 {
	seq := s.nextBetSeq
	s.nextBetSeq = seq + 1
	s.undo.record(func() { s.nextBetSeq = seq })
	return seq
}

// Insert stores a clone of obj and threads it into the secondary indices.
// The object's id must be unused.
func (s *Store) Insert(obj domain.Object) {
	id := obj.ObjectID()
	if _, exists := s.objects[id]; exists {
		panic(fmt.Sprintf("chain: duplicate object %s", id))
	}
	stored := obj.Clone()
	s.objects[id] = stored
	s.undo.record(func() { delete(s.objects, id) })
	s.indexInsert(stored)
}

// Get returns a clone of the object, if present.
func (s *Store) Get(id domain.ObjectID) (domain.Object, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return nil, false
	}
	return obj.Clone(), true
}

// Update replaces the stored object with a clone of obj, re-threading the
// secondary indices. The object must exist.
func (s *Store) Update(obj domain.Object) {
	id := obj.ObjectID()
	prior, ok := s.objects[id]
	if !ok {
		panic(fmt.Sprintf("chain: update of missing object %s", id))
	}
	s.indexRemove(prior)
	stored := obj.Clone()
	s.objects[id] = stored
	s.undo.record(func() { s.objects[id] = prior })
	s.indexInsert(stored)
}

// Remove deletes the object and its index entries. The object must exist.
func (s *Store) Remove(id domain.ObjectID) {
	prior, ok := s.objects[id]
	if !ok {
		panic(fmt.Sprintf("chain: remove of missing object %s", id))
	}
	s.indexRemove(prior)
	delete(s.objects, id)
	s.undo.record(func() { s.objects[id] = prior })
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	return len(s.objects)
}

// indexInsert threads an object into whichever secondary indices cover its
// type. Index trees are never mutated outside a session, and the session
// snapshot restores them wholesale, so no per-entry undo is recorded.
func (s *Store) indexInsert(obj domain.Object) {
	switch o := obj.(type) {
	case *domain.Bet:
		s.byOdds.ReplaceOrInsert(oddsItemFor(o))
		s.betsByMarket.ReplaceOrInsert(refItem{primary: o.MarketID.Serial, secondary: o.Seq, id: o.ID})
		s.betsByBettor.ReplaceOrInsert(refItem{primary: o.BettorID.Serial, secondary: o.Seq, id: o.ID})
	case *domain.BettingMarket:
		s.marketsByGroup.ReplaceOrInsert(refItem{primary: o.GroupID.Serial, secondary: o.ID.Serial, id: o.ID})
	case *domain.Position:
		s.positionsByMarket.ReplaceOrInsert(refItem{primary: o.MarketID.Serial, secondary: o.BettorID.Serial, id: o.ID})
	}
}

func (s *Store) indexRemove(obj domain.Object) {
	switch o := obj.(type) {
	case *domain.Bet:
		s.byOdds.Delete(oddsItemFor(o))
		s.betsByMarket.Delete(refItem{primary: o.MarketID.Serial, secondary: o.Seq})
		s.betsByBettor.Delete(refItem{primary: o.BettorID.Serial, secondary: o.Seq})
	case *domain.BettingMarket:
		s.marketsByGroup.Delete(refItem{primary: o.GroupID.Serial, secondary: o.ID.Serial})
	case *domain.Position:
		s.positionsByMarket.Delete(refItem{primary: o.MarketID.Serial, secondary: o.BettorID.Serial})
	}
}

// ---------------------------------------------------------------------------
// Index scans. All scans run over the ordered indices, never over the
// object map, so iteration order is deterministic.
// ---------------------------------------------------------------------------

// AscendOdds walks the whole by_odds index in order.
func (s *Store) AscendOdds(fn func(item oddsItem) bool) {
	s.byOdds.Ascend(fn)
}

// AscendOddsFrom walks the by_odds index starting at pivot.
func (s *Store) AscendOddsFrom(pivot oddsItem, fn func(item oddsItem) bool) {
	s.byOdds.AscendGreaterOrEqual(pivot, fn)
}

// ascendRefs walks one primary bucket of a ref index in secondary order.
func ascendRefs(t *btree.BTreeG[refItem], primary uint64, fn func(id domain.ObjectID) bool) {
	t.AscendGreaterOrEqual(refItem{primary: primary}, func(item refItem) bool {
		if item.primary != primary {
			return false
		}
		return fn(item.id)
	})
}

// MarketsOfGroup returns the ids of the group's markets in serial order.
func (s *Store) MarketsOfGroup(groupID domain.ObjectID) []domain.ObjectID {
	var ids []domain.ObjectID
	ascendRefs(s.marketsByGroup, groupID.Serial, func(id domain.ObjectID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// BetsOfMarket returns the ids of every open bet on the market, delayed
// included, in insertion order.
func (s *Store) BetsOfMarket(marketID domain.ObjectID) []domain.ObjectID {
	var ids []domain.ObjectID
	ascendRefs(s.betsByMarket, marketID.Serial, func(id domain.ObjectID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// BetsOfBettor returns the ids of the bettor's open bets in insertion order.
func (s *Store) BetsOfBettor(bettorID domain.ObjectID) []domain.ObjectID {
	var ids []domain.ObjectID
	ascendRefs(s.betsByBettor, bettorID.Serial, func(id domain.ObjectID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// PositionsOfMarket returns the ids of the market's positions in bettor
// order.
func (s *Store) PositionsOfMarket(marketID domain.ObjectID) []domain.ObjectID {
	var ids []domain.ObjectID
	ascendRefs(s.positionsByMarket, marketID.Serial, func(id domain.ObjectID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// PositionOf returns the position of one bettor on one market, if any.
func (s *Store) PositionOf(marketID, bettorID domain.ObjectID) (*domain.Position, bool) {
	item, ok := s.positionsByMarket.Get(refItem{primary: marketID.Serial, secondary: bettorID.Serial})
	if !ok {
		return nil, false
	}
	obj, ok := s.Get(item.id)
	if !ok {
		return nil, false
	}
	return obj.(*domain.Position), true
}

// EachProposal walks every staged proposal in serial order.
func (s *Store) EachProposal(fn func(p *domain.Proposal) bool) {
	serials := s.nextSerial[domain.TypeProposal]
	for serial := uint64(0); serial < serials; serial++ {
		obj, ok := s.objects[domain.NewID(domain.TypeProposal, serial)]
		if !ok {
			continue
		}
		if !fn(obj.Clone().(*domain.Proposal)) {
			return
		}
	}
}
