package engine

import "time"

// EventType values are the wire names clients subscribe to. One ordered
// stream per tournament; subscribers all observe the same relative
// order.
type EventType string

const (
	EvtAuctionStart  EventType = "auction:start"
	EvtAuctionPause  EventType = "auction:pause"
	EvtAuctionResume EventType = "auction:resume"
	// EvtAuctionStop marks bidding frozen (session Locked) while the
	// session stays open for administrative review.
	EvtAuctionStop     EventType = "auction:stop"
	EvtPlayerNext      EventType = "player:next"
	EvtBidUpdate       EventType = "bid:update"
	EvtPlayerSold      EventType = "player:sold"
	EvtPlayerUnsold    EventType = "player:unsold"
	EvtPlayerPending   EventType = "player:pending"
	EvtPlayerWithdrawn EventType = "player:withdrawn"
	EvtBalanceUpdate   EventType = "auction:update-balance"
	EvtAuctionEnd      EventType = "auction:end"
)

type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// How much bid history rides along on a bid:update. Full history is
// served by the bid-history query, not the push channel.
const bidHistoryWindow = 20

type NextPayload struct {
	Lot          *Lot `json:"lot"`
	TimerSeconds int  `json:"timer_seconds"`
}

type BidUpdatePayload struct {
	LotID        string     `json:"lot_id"`
	Amount       int64      `json:"amount"`
	TeamID       string     `json:"team_id"`
	TeamName     string     `json:"team_name"`
	BidHistory   []BidEntry `json:"bid_history"`
	TimerSeconds int        `json:"timer_seconds"`
}

type FinalizedPayload struct {
	Lot      *Lot   `json:"lot"`
	TeamID   string `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`
	Price    int64  `json:"price,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type BalancePayload struct {
	TeamID         string `json:"team_id"`
	CurrentBalance int64  `json:"current_balance"`
	MaxPossibleBid int64  `json:"max_possible_bid"`
	Delta          int64  `json:"delta"`
	Cause          string `json:"cause"`
	LotID          string `json:"lot_id,omitempty"`
}

type StatusPayload struct {
	Status AuctionStatus `json:"status"`
}

type EndPayload struct {
	Summary     *Summary  `json:"summary"`
	CompletedAt time.Time `json:"completed_at"`
}
