package engine

import "errors"

var ErrValidation = errors.New("invalid request")
var ErrAuctionState = errors.New("operation not allowed in current auction state")
var ErrBidTooLow = errors.New("bid below required increment")
var ErrBudgetExceeded = errors.New("bid exceeds maximum possible bid")
var ErrSelfOutbid = errors.New("team already holds the leading bid")
var ErrConcurrencyConflict = errors.New("lot already finalized")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrLotNotFound = errors.New("lot not found")
var ErrTeamNotFound = errors.New("team not found")
var ErrSeatNotFound = errors.New("seat not found")
