package domain

import "time"

// OddsIncrement is one entry of the permitted-odds-increment schedule. Every
// multiplier below Boundary (and at or above the previous boundary) must be an
// integer multiple of Increment.
type OddsIncrement struct {
	Boundary  int64 `toml:"boundary" json:"boundary"`
	Increment int64 `toml:"increment" json:"increment"`
}

// Parameters are the governance-controlled chain parameters the evaluators
// read. They are fixed for the lifetime of a State instance; parameter
// changes arrive as a new State at a block boundary, outside this subsystem.
type Parameters struct {
	// MinBetMultiplier and MaxBetMultiplier bound backer multipliers,
	// inclusive on both ends.
	MinBetMultiplier int64
	MaxBetMultiplier int64

	// OddsIncrements is the ordered boundary -> increment schedule. The
	// applicable increment for a multiplier m is the first entry whose
	// boundary is strictly greater than m, or the last entry when none is.
	// An empty schedule disables the increment check.
	OddsIncrements []OddsIncrement

	// LiveBettingDelay quarantines freshly placed bets on delay_bets groups
	// for this long. Zero disables the quarantine even on delay_bets groups.
	LiveBettingDelay time.Duration
}

// DefaultParameters returns the stock parameter set: odds from 1.01 to
// 1000.00 on the familiar ladder of coarsening tick sizes.
func DefaultParameters() Parameters {
	return Parameters{
		MinBetMultiplier: 101,    // 1.01
		MaxBetMultiplier: 100000, // 1000.00
		OddsIncrements: []OddsIncrement{
			{Boundary: 200, Increment: 1},      // up to 2.00: 0.01
			{Boundary: 300, Increment: 2},      // up to 3.00: 0.02
			{Boundary: 400, Increment: 5},      // up to 4.00: 0.05
			{Boundary: 600, Increment: 10},     // up to 6.00: 0.10
			{Boundary: 1000, Increment: 20},    // up to 10.00: 0.20
			{Boundary: 2000, Increment: 50},    // up to 20.00: 0.50
			{Boundary: 3000, Increment: 100},   // up to 30.00: 1.00
			{Boundary: 5000, Increment: 200},   // up to 50.00: 2.00
			{Boundary: 10000, Increment: 500},  // up to 100.00: 5.00
			{Boundary: 100000, Increment: 1000}, // above: 10.00
		},
		LiveBettingDelay: 5 * time.Second,
	}
}

// Increment returns the tick size applicable to multiplier m, or zero when
// the schedule is empty and any multiplier is permitted.
func (p Parameters) Increment(m int64) int64 {
	if len(p.OddsIncrements) == 0 {
		return 0
	}
	for _, entry := range p.OddsIncrements {
		if entry.Boundary > m {
			return entry.Increment
		}
	}
	return p.OddsIncrements[len(p.OddsIncrements)-1].Increment
}
