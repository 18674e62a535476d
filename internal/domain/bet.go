package domain

import "time"

// OddsPrecision is the fixed-point scale of backer multipliers: decimal odds
// of 2.00 are encoded as 200.
const OddsPrecision int64 = 100

// BetSide is the side of a bet: backing an outcome to happen, or laying it
// not to.
type BetSide string

const (
	SideBack BetSide = "back"
	SideLay  BetSide = "lay"
)

// Valid reports whether the side is one of the two known values.
func (s BetSide) Valid() bool {
	return s == SideBack || s == SideLay
}

// Opposite returns the other side.
func (s BetSide) Opposite() BetSide {
	if s == SideBack {
		return SideLay
	}
	return SideBack
}

// Bet is an open (unmatched or partially matched) bet resting in, or
// quarantined before, the order book. Amount is the residual stake still
// escrowed for this bet; matched portions live on as Position records.
//
// EndOfDelay is set while the bet is held by the delay controller. A bet
// with EndOfDelay set sorts ahead of all active bets in the by_odds index
// and is invisible to the matching engine.
type Bet struct {
	ID               ObjectID
	BettorID         ObjectID
	MarketID         ObjectID
	Amount           AssetAmount
	BackerMultiplier int64
	Side             BetSide
	EndOfDelay       *time.Time

	// Seq is the global insertion sequence assigned at placement; it breaks
	// price ties in favor of the earlier bet and never changes.
	Seq uint64
}

// ObjectID implements Object.
func (b *Bet) ObjectID() ObjectID { return b.ID }

// Clone implements Object.
func (b *Bet) Clone() Object {
	dup := *b
	if b.EndOfDelay != nil {
		t := *b.EndOfDelay
		dup.EndOfDelay = &t
	}
	return &dup
}

// Delayed reports whether the bet is currently quarantined by the delay
// controller.
func (b *Bet) Delayed() bool {
	return b.EndOfDelay != nil
}

// Position accumulates the matched exposure of one bettor on one market.
// Each successful cross adds the combined stakes to the winning-side payout
// and the bettor's own contribution to the cancellation refund.
type Position struct {
	ID       ObjectID
	MarketID ObjectID
	BettorID ObjectID

	// PayIfWin is credited when the market resolves "win".
	PayIfWin int64
	// PayIfNotWin is credited when the market resolves "not_win".
	PayIfNotWin int64
	// PayIfCanceled is credited when the market resolves "cancel"; it equals
	// the bettor's own matched stake.
	PayIfCanceled int64
}

// ObjectID implements Object.
func (p *Position) ObjectID() ObjectID { return p.ID }

// Clone implements Object.
func (p *Position) Clone() Object {
	dup := *p
	return &dup
}
