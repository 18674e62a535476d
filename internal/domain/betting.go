package domain

// BettingMarketRules is a named, free-text rule set that betting market
// groups refer to. Rules are created and amended through proposals and are
// never destroyed.
type BettingMarketRules struct {
	ID          ObjectID
	Name        string
	Description string
}

// ObjectID implements Object.
func (r *BettingMarketRules) ObjectID() ObjectID { return r.ID }

// Clone implements Object.
func (r *BettingMarketRules) Clone() Object {
	dup := *r
	return &dup
}

// BettingMarketGroup is the book of related betting markets sharing an
// event, a rule set, and a settlement asset.
//
// Frozen groups accept no new bets. Groups with DelayBets route freshly
// placed bets through the delay controller before they reach the book.
type BettingMarketGroup struct {
	ID          ObjectID
	EventID     ObjectID
	RulesID     ObjectID
	AssetID     ObjectID
	Description string
	Frozen      bool
	DelayBets   bool
}

// ObjectID implements Object.
func (g *BettingMarketGroup) ObjectID() ObjectID { return g.ID }

// Clone implements Object.
func (g *BettingMarketGroup) Clone() Object {
	dup := *g
	return &dup
}

// BettingMarket is a single outcome market inside a group. PayoutCondition
// is an opaque governance-chosen descriptor evaluated at resolution time.
type BettingMarket struct {
	ID              ObjectID
	GroupID         ObjectID
	Description     string
	PayoutCondition string
}

// ObjectID implements Object.
func (m *BettingMarket) ObjectID() ObjectID { return m.ID }

// Clone implements Object.
func (m *BettingMarket) Clone() Object {
	dup := *m
	return &dup
}
