package domain

import "time"

// BookLevel is one aggregated price level of a market's order book.
type BookLevel struct {
	Price int64 `json:"price"` // backer multiplier, OddsPrecision-scaled
	Stake int64 `json:"stake"` // summed residual stakes at this price
	Bets  int   `json:"bets"`  // number of resting bets at this price
}

// BookSnapshot is a point-in-time projection of one market's active book.
// Both sides are ordered best price first: backs by ascending multiplier,
// lays by descending multiplier. Delayed bets are excluded.
type BookSnapshot struct {
	MarketID ObjectID    `json:"market_id"`
	Backs    []BookLevel `json:"backs"`
	Lays     []BookLevel `json:"lays"`
	AsOf     time.Time   `json:"as_of"`
}
