package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tourneyhq/auction-backend/internal/engine"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: engine.ErrBidTooLow, want: "BidTooLow"},
		{err: fmt.Errorf("%w: minimum next bid is 1300", engine.ErrBidTooLow), want: "BidTooLow"},
		{err: engine.ErrBudgetExceeded, want: "BudgetExceeded"},
		{err: engine.ErrSelfOutbid, want: "SelfOutbid"},
		{err: engine.ErrConcurrencyConflict, want: "ConcurrencyConflict"},
		{err: engine.ErrAuctionState, want: "AuctionStateError"},
		{err: engine.ErrLotNotFound, want: "NotFound"},
		{err: engine.ErrTeamNotFound, want: "NotFound"},
		{err: engine.ErrSeatNotFound, want: "NotFound"},
		{err: engine.ErrValidation, want: "ValidationError"},
		{err: errors.New("boom"), want: "InternalError"},
	}
	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Errorf("ErrorCode(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
