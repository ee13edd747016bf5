package engine

import (
	"sort"
	"time"
)

// BidIntent is one voter seat's ephemeral agreement to bid. An intent
// is only valid against the exact current bid the seat observed when
// casting it; once the live price moves the intent is stale.
type BidIntent struct {
	SeatID             string    `json:"seat_id"`
	Amount             int64     `json:"amount"`
	ObservedCurrentBid int64     `json:"observed_current_bid"`
	At                 time.Time `json:"at"`
}

func intentKey(teamID, lotID string) string {
	return teamID + ":" + lotID
}

// freshIntents drops every intent formed against a price that is no
// longer the lot's live current bid. Returns the surviving intents.
func freshIntents(intents []BidIntent, currentBid int64) []BidIntent {
	fresh := intents[:0]
	for _, in := range intents {
		if in.ObservedCurrentBid == currentBid {
			fresh = append(fresh, in)
		}
	}
	return fresh
}

// upsertIntent replaces any prior intent from the same seat. A seat
// holds at most one live intent per lot.
func upsertIntent(intents []BidIntent, in BidIntent) []BidIntent {
	for i := range intents {
		if intents[i].SeatID == in.SeatID {
			intents[i] = in
			return intents
		}
	}
	return append(intents, in)
}

// quorumAmount finds the highest amount supported by at least required
// distinct seats, i.e. the required-th highest proposed amount. Every
// seat whose intent is at or above that amount has agreed to it. Returns
// 0 when the quorum is not met.
func quorumAmount(intents []BidIntent, required int) int64 {
	if required < 1 {
		required = 1
	}
	if len(intents) < required {
		return 0
	}
	amounts := make([]int64, len(intents))
	for i, in := range intents {
		amounts[i] = in.Amount
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] > amounts[j] })
	return amounts[required-1]
}
