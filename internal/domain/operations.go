package domain

import (
	"fmt"

	"github.com/google/orderedcode"
)

// OpKind tags an operation variant.
type OpKind string

const (
	OpRulesCreate              OpKind = "rules_create"
	OpRulesUpdate              OpKind = "rules_update"
	OpGroupCreate              OpKind = "group_create"
	OpGroupUpdate              OpKind = "group_update"
	OpMarketCreate             OpKind = "market_create"
	OpMarketUpdate             OpKind = "market_update"
	OpBetPlace                 OpKind = "bet_place"
	OpBetCancel                OpKind = "bet_cancel"
	OpGroupResolve             OpKind = "group_resolve"
	OpGroupCancelUnmatchedBets OpKind = "group_cancel_unmatched_bets"
	OpTransfer                 OpKind = "transfer"
	OpProposalCreate           OpKind = "proposal_create"
)

// Operation is the tagged variant every chain operation implements.
//
// CanonicalBytes is the deterministic byte encoding of the full operation
// tuple. Two operations are structurally equal exactly when their canonical
// encodings are byte-identical; the proposal duplication guard relies on
// this.
type Operation interface {
	Kind() OpKind
	CanonicalBytes() []byte
}

// Transaction is an ordered list of operations applied atomically. Proposed
// transactions (IsProposed) may carry the proposed-only lifecycle
// operations; regular transactions may not.
type Transaction struct {
	Operations []Operation
	IsProposed bool
}

// TxReceipt reports the outcome of a successfully applied transaction.
type TxReceipt struct {
	// CreatedIDs lists the ids of objects created by the transaction's
	// operations, in creation order. Relative ids resolve against this list.
	CreatedIDs []ObjectID

	// Events are the deterministic applied events, in emission order.
	Events []Event
}

// ResolutionLabel is the outcome assigned to a single market at group
// resolution.
type ResolutionLabel string

const (
	ResolutionWin    ResolutionLabel = "win"
	ResolutionNotWin ResolutionLabel = "not_win"
	ResolutionCancel ResolutionLabel = "cancel"
)

// Valid reports whether the label is drawn from the legal set.
func (l ResolutionLabel) Valid() bool {
	switch l {
	case ResolutionWin, ResolutionNotWin, ResolutionCancel:
		return true
	}
	return false
}

// MarketResolution assigns a resolution label to one market of a group.
type MarketResolution struct {
	MarketID ObjectID        `json:"market_id"`
	Label    ResolutionLabel `json:"label"`
}

// ---------------------------------------------------------------------------
// Operation variants
// ---------------------------------------------------------------------------

// RulesCreateOp creates a betting market rule set. Proposed-only.
type RulesCreateOp struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RulesUpdateOp amends a rule set. At least one of the new fields must be
// present. Proposed-only.
type RulesUpdateOp struct {
	RulesID        ObjectID `json:"rules_id"`
	NewName        *string  `json:"new_name,omitempty"`
	NewDescription *string  `json:"new_description,omitempty"`
}

// GroupCreateOp creates a betting market group. EventID and RulesID may be
// relative. Proposed-only.
type GroupCreateOp struct {
	EventID     ObjectID `json:"event_id"`
	RulesID     ObjectID `json:"rules_id"`
	AssetID     ObjectID `json:"asset_id"`
	Description string   `json:"description"`
}

// GroupUpdateOp amends a group. At least one field must be present; Freeze
// and DelayBets must change the current value. NewRulesID may be relative.
// Proposed-only.
type GroupUpdateOp struct {
	GroupID        ObjectID  `json:"group_id"`
	NewDescription *string   `json:"new_description,omitempty"`
	NewRulesID     *ObjectID `json:"new_rules_id,omitempty"`
	Freeze         *bool     `json:"freeze,omitempty"`
	DelayBets      *bool     `json:"delay_bets,omitempty"`
}

// MarketCreateOp creates a betting market inside a group. GroupID may be
// relative. Proposed-only.
type MarketCreateOp struct {
	GroupID         ObjectID `json:"group_id"`
	Description     string   `json:"description"`
	PayoutCondition string   `json:"payout_condition"`
}

// MarketUpdateOp amends a market. At least one field must be present.
// NewGroupID may be relative. Proposed-only.
type MarketUpdateOp struct {
	MarketID           ObjectID  `json:"market_id"`
	NewGroupID         *ObjectID `json:"new_group_id,omitempty"`
	NewDescription     *string   `json:"new_description,omitempty"`
	NewPayoutCondition *string   `json:"new_payout_condition,omitempty"`
}

// BetPlaceOp places a back or lay bet on a market.
type BetPlaceOp struct {
	BettorID         ObjectID    `json:"bettor_id"`
	MarketID         ObjectID    `json:"market_id"`
	Amount           AssetAmount `json:"amount_to_bet"`
	BackerMultiplier int64       `json:"backer_multiplier"`
	Side             BetSide     `json:"back_or_lay"`
}

// BetCancelOp cancels the caller's own unmatched bet.
type BetCancelOp struct {
	BettorID ObjectID `json:"bettor_id"`
	BetID    ObjectID `json:"bet_id"`
}

// GroupResolveOp settles every market of a group. Proposed-only.
type GroupResolveOp struct {
	GroupID     ObjectID           `json:"group_id"`
	Resolutions []MarketResolution `json:"resolutions"`
}

// GroupCancelUnmatchedBetsOp refunds every open bet of a group, leaving
// matched positions intact. Proposed-only.
type GroupCancelUnmatchedBetsOp struct {
	GroupID ObjectID `json:"group_id"`
}

// TransferOp moves balance between accounts. Carried here because proposals
// routinely stage transfers alongside lifecycle operations.
type TransferOp struct {
	From   ObjectID    `json:"from"`
	To     ObjectID    `json:"to"`
	Amount AssetAmount `json:"amount"`
}

// ProposalCreateOp stages a list of operations for later approval. The
// staged operations are not executed; they are recorded as a proposal
// object and screened by the duplication guard.
type ProposalCreateOp struct {
	Operations []Operation `json:"operations"`
}

// Kind implementations.

func (*RulesCreateOp) Kind() OpKind              { return OpRulesCreate }
func (*RulesUpdateOp) Kind() OpKind              { return OpRulesUpdate }
func (*GroupCreateOp) Kind() OpKind              { return OpGroupCreate }
func (*GroupUpdateOp) Kind() OpKind              { return OpGroupUpdate }
func (*MarketCreateOp) Kind() OpKind             { return OpMarketCreate }
func (*MarketUpdateOp) Kind() OpKind             { return OpMarketUpdate }
func (*BetPlaceOp) Kind() OpKind                 { return OpBetPlace }
func (*BetCancelOp) Kind() OpKind                { return OpBetCancel }
func (*GroupResolveOp) Kind() OpKind             { return OpGroupResolve }
func (*GroupCancelUnmatchedBetsOp) Kind() OpKind { return OpGroupCancelUnmatchedBets }
func (*TransferOp) Kind() OpKind                 { return OpTransfer }
func (*ProposalCreateOp) Kind() OpKind           { return OpProposalCreate }

// ---------------------------------------------------------------------------
// Canonical encoding
//
// Encoding uses orderedcode appends of the kind tag followed by every field
// in declared order. Optional fields encode a presence flag before the
// value. The encoding is injective per kind, which is all the duplication
// guard needs.
// ---------------------------------------------------------------------------

type canonicalEnc struct {
	buf []byte
}

func newCanonicalEnc(kind OpKind) *canonicalEnc {
	e := &canonicalEnc{}
	e.str(string(kind))
	return e
}

func (e *canonicalEnc) append(items ...any) {
	buf, err := orderedcode.Append(e.buf, items...)
	if err != nil {
		// Only unsupported item types can fail here; all call sites pass
		// supported types.
		panic(fmt.Sprintf("domain: canonical encode: %v", err))
	}
	e.buf = buf
}

func (e *canonicalEnc) str(s string)   { e.append(s) }
func (e *canonicalEnc) i64(n int64)    { e.append(n) }
func (e *canonicalEnc) u64(n uint64)   { e.append(n) }
func (e *canonicalEnc) id(id ObjectID) { e.append(uint64(id.Space), uint64(id.Type), id.Serial) }

func (e *canonicalEnc) amount(a AssetAmount) {
	e.id(a.AssetID)
	e.i64(a.Amount)
}

func (e *canonicalEnc) optStr(s *string) {
	if s == nil {
		e.u64(0)
		return
	}
	e.u64(1)
	e.str(*s)
}

func (e *canonicalEnc) optID(id *ObjectID) {
	if id == nil {
		e.u64(0)
		return
	}
	e.u64(1)
	e.id(*id)
}

func (e *canonicalEnc) optBool(b *bool) {
	if b == nil {
		e.u64(0)
		return
	}
	if *b {
		e.u64(2)
	} else {
		e.u64(1)
	}
}

func (op *RulesCreateOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.str(op.Name)
	e.str(op.Description)
	return e.buf
}

func (op *RulesUpdateOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.RulesID)
	e.optStr(op.NewName)
	e.optStr(op.NewDescription)
	return e.buf
}

func (op *GroupCreateOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.EventID)
	e.id(op.RulesID)
	e.id(op.AssetID)
	e.str(op.Description)
	return e.buf
}

func (op *GroupUpdateOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.GroupID)
	e.optStr(op.NewDescription)
	e.optID(op.NewRulesID)
	e.optBool(op.Freeze)
	e.optBool(op.DelayBets)
	return e.buf
}

func (op *MarketCreateOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.GroupID)
	e.str(op.Description)
	e.str(op.PayoutCondition)
	return e.buf
}

func (op *MarketUpdateOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.MarketID)
	e.optID(op.NewGroupID)
	e.optStr(op.NewDescription)
	e.optStr(op.NewPayoutCondition)
	return e.buf
}

func (op *BetPlaceOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.BettorID)
	e.id(op.MarketID)
	e.amount(op.Amount)
	e.i64(op.BackerMultiplier)
	e.str(string(op.Side))
	return e.buf
}

func (op *BetCancelOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.BettorID)
	e.id(op.BetID)
	return e.buf
}

func (op *GroupResolveOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.GroupID)
	e.u64(uint64(len(op.Resolutions)))
	for _, res := range op.Resolutions {
		e.id(res.MarketID)
		e.str(string(res.Label))
	}
	return e.buf
}

func (op *GroupCancelUnmatchedBetsOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.GroupID)
	return e.buf
}

func (op *TransferOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.id(op.From)
	e.id(op.To)
	e.amount(op.Amount)
	return e.buf
}

func (op *ProposalCreateOp) CanonicalBytes() []byte {
	e := newCanonicalEnc(op.Kind())
	e.u64(uint64(len(op.Operations)))
	for _, inner := range op.Operations {
		e.str(string(inner.CanonicalBytes()))
	}
	return e.buf
}
