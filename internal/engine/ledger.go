package engine

import "time"

// BudgetSnapshot is the ledger's public view of one team's purse.
type BudgetSnapshot struct {
	TeamID         string `json:"team_id"`
	TeamName       string `json:"team_name"`
	Budget         int64  `json:"budget"`
	CurrentBalance int64  `json:"current_balance"`
	Reserve        int64  `json:"reserve"`
	MaxPossibleBid int64  `json:"max_possible_bid"`
	PurchasedCount int    `json:"purchased_count"`
	SlotsRemaining int    `json:"slots_remaining"`
}

// LedgerEntry is one durable balance delta, recorded with its cause so
// the store keeps an auditable spend trail.
type LedgerEntry struct {
	ID      string    `json:"id"`
	TeamID  string    `json:"team_id"`
	Delta   int64     `json:"delta"`
	Balance int64     `json:"balance"`
	Cause   string    `json:"cause"`
	LotID   string    `json:"lot_id,omitempty"`
	At      time.Time `json:"at"`
}

// reserveFor withholds enough balance to still fill the minimum roster.
// The -1 accounts for the slot the bid under consideration would fill.
func reserveFor(t *Team, perSlotMin int64) int64 {
	missing := t.MinimumRosterSize - len(t.PurchasedLots) - 1
	if missing < 0 {
		missing = 0
	}
	return int64(missing) * perSlotMin
}

// MaxPossibleBid is the hard ceiling for a team's next bid: its balance
// minus the roster reserve. Never negative.
func MaxPossibleBid(t *Team, rules Rules) int64 {
	maxBid := t.CurrentBalance - reserveFor(t, rules.PerSlotMinimumReserve)
	if maxBid < 0 {
		return 0
	}
	return maxBid
}

// BudgetSnapshotFor recomputes the full snapshot for a team. Called
// after every Sold finalize touching the team and on demand for
// getLiveSnapshot.
func BudgetSnapshotFor(t *Team, rules Rules) BudgetSnapshot {
	slotsRemaining := t.MinimumRosterSize - len(t.PurchasedLots)
	if slotsRemaining < 0 {
		slotsRemaining = 0
	}
	return BudgetSnapshot{
		TeamID:         t.ID,
		TeamName:       t.Name,
		Budget:         t.Budget,
		CurrentBalance: t.CurrentBalance,
		Reserve:        reserveFor(t, rules.PerSlotMinimumReserve),
		MaxPossibleBid: MaxPossibleBid(t, rules),
		PurchasedCount: len(t.PurchasedLots),
		SlotsRemaining: slotsRemaining,
	}
}
