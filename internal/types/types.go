package types

import (
	"errors"

	"github.com/tourneyhq/auction-backend/internal/engine"
	"github.com/tourneyhq/auction-backend/internal/session"
)

// ClientMessage is what a connected seat/team sends over the websocket.
type ClientMessage struct {
	Type   string `json:"type"` // "SubmitBid" | "CastIntent" | "Ping"
	TeamID string `json:"team_id,omitempty"`
	SeatID string `json:"seat_id,omitempty"`
	LotID  string `json:"lot_id,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

// ServerMessage wraps everything the server pushes: stream envelopes to
// all subscribers, errors only to the requester.
type ServerMessage struct {
	Type     string            `json:"type"` // "Envelope" | "Error"
	Envelope *session.Envelope `json:"envelope,omitempty"`
	Code     string            `json:"code,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ErrorCode maps engine errors onto the wire taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrBidTooLow):
		return "BidTooLow"
	case errors.Is(err, engine.ErrBudgetExceeded):
		return "BudgetExceeded"
	case errors.Is(err, engine.ErrSelfOutbid):
		return "SelfOutbid"
	case errors.Is(err, engine.ErrConcurrencyConflict):
		return "ConcurrencyConflict"
	case errors.Is(err, engine.ErrAuctionState):
		return "AuctionStateError"
	case errors.Is(err, engine.ErrLotNotFound),
		errors.Is(err, engine.ErrTeamNotFound),
		errors.Is(err, engine.ErrSeatNotFound):
		return "NotFound"
	case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrUnsupportedCommand):
		return "ValidationError"
	default:
		return "InternalError"
	}
}
