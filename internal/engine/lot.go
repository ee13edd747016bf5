package engine

import "time"

// BidEntry is one accepted bid. Entries are append-only: nothing ever
// mutates or removes one once it is in a lot's history.
type BidEntry struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"team_id"`
	TeamName string    `json:"team_name"`
	Amount   int64     `json:"amount"`
	SeatID   string    `json:"seat_id,omitempty"`
	At       time.Time `json:"at"`
}

// Lot is a player up for auction.
type Lot struct {
	ID             string     `json:"id"`
	PlayerName     string     `json:"player_name"`
	Role           string     `json:"role,omitempty"`
	Status         LotStatus  `json:"status"`
	BasePrice      int64      `json:"base_price"`
	CurrentBid     int64      `json:"current_bid"`
	CurrentBidder  string     `json:"current_bidder,omitempty"`
	BidHistory     []BidEntry `json:"bid_history"`
	SoldTo         string     `json:"sold_to,omitempty"`
	SoldPrice      int64      `json:"sold_price,omitempty"`
	WithdrawReason string     `json:"withdraw_reason,omitempty"`
	FinalizedAt    time.Time  `json:"finalized_at,omitzero"`
}

// RecentBids returns a copy of the newest n history entries, oldest
// first. Event payloads carry a bounded slice; the full history stays
// on the lot.
func (l *Lot) RecentBids(n int) []BidEntry {
	start := len(l.BidHistory) - n
	if start < 0 {
		start = 0
	}
	return append([]BidEntry(nil), l.BidHistory[start:]...)
}

// Clone returns a deep copy. Payloads and snapshots that leave the
// session goroutine carry clones, never pointers into live state.
func (l *Lot) Clone() *Lot {
	if l == nil {
		return nil
	}
	cp := *l
	cp.BidHistory = append([]BidEntry(nil), l.BidHistory...)
	return &cp
}

type OutcomeKind string

const (
	OutcomeSold      OutcomeKind = "sold"
	OutcomeUnsold    OutcomeKind = "unsold"
	OutcomePending   OutcomeKind = "pending"
	OutcomeWithdrawn OutcomeKind = "withdrawn"
)

// Outcome describes how a lot leaves the block. TeamID and Price are
// only meaningful for OutcomeSold, Reason only for OutcomeWithdrawn.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	TeamID string      `json:"team_id,omitempty"`
	Price  int64       `json:"price,omitempty"`
	Reason string      `json:"reason,omitempty"`
}
