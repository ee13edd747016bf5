package engine

// IncrementBand is one slab of the increment table: bids whose current
// price falls in [From, To] must rise by at least Increment.
type IncrementBand struct {
	From      int64 `json:"from"`
	To        int64 `json:"to"`
	Increment int64 `json:"increment"`
}

const defaultFixedIncrement = 100

// Rules are the per-tournament auction rules, fixed once the session is
// seeded.
type Rules struct {
	TimerSeconds          int             `json:"timer_seconds"`
	PerSlotMinimumReserve int64           `json:"per_slot_minimum_reserve"`
	FixedIncrement        int64           `json:"fixed_increment"`
	Bands                 []IncrementBand `json:"bands,omitempty"`
	// TimerExpiryOutcome decides what a lot with no bids becomes when
	// its timer runs out: OutcomeUnsold or OutcomePending.
	TimerExpiryOutcome OutcomeKind `json:"timer_expiry_outcome"`
}

func DefaultRules() Rules {
	return Rules{
		TimerSeconds:       30,
		FixedIncrement:     defaultFixedIncrement,
		TimerExpiryOutcome: OutcomeUnsold,
	}
}

// IncrementAt returns the minimum raise over a current price. The first
// matching band wins; outside all bands the fixed increment applies.
func (r Rules) IncrementAt(price int64) int64 {
	for _, band := range r.Bands {
		if band.Increment <= 0 {
			continue
		}
		if price >= band.From && price <= band.To {
			return band.Increment
		}
	}
	if r.FixedIncrement > 0 {
		return r.FixedIncrement
	}
	return defaultFixedIncrement
}

// MinimumNextBid is the lowest amount the arbitrator will accept for a
// lot. Opening bids enter at base price; after that the banded
// increment applies on top of the standing bid.
func (r Rules) MinimumNextBid(lot *Lot) int64 {
	if lot.CurrentBid == 0 {
		return lot.BasePrice
	}
	return lot.CurrentBid + r.IncrementAt(lot.CurrentBid)
}
