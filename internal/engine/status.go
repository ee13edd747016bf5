package engine

type AuctionStatus string

const (
	AuctionNotStarted AuctionStatus = "NotStarted"
	AuctionRunning    AuctionStatus = "Running"
	AuctionPaused     AuctionStatus = "Paused"
	AuctionLocked     AuctionStatus = "Locked"
	AuctionCompleted  AuctionStatus = "Completed"
)

// auctionTransitions is the full lifecycle table. Completed has no exits;
// every non-Completed state may jump straight to Completed via CmdEndAuction.
var auctionTransitions = map[AuctionStatus][]AuctionStatus{
	AuctionNotStarted: {AuctionRunning, AuctionCompleted},
	AuctionRunning:    {AuctionPaused, AuctionLocked, AuctionCompleted},
	AuctionPaused:     {AuctionRunning, AuctionLocked, AuctionCompleted},
	AuctionLocked:     {AuctionRunning, AuctionCompleted},
	AuctionCompleted:  {},
}

func (s AuctionStatus) canTransitionTo(next AuctionStatus) bool {
	for _, allowed := range auctionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type LotStatus string

const (
	LotAvailable LotStatus = "Available"
	LotInAuction LotStatus = "InAuction"
	LotPending   LotStatus = "Pending"
	LotSold      LotStatus = "Sold"
	LotUnsold    LotStatus = "Unsold"
	LotWithdrawn LotStatus = "Withdrawn"
)

// Terminal lot states are immutable except through CmdReauctionLot, which
// is the administrative-correction path back to Available.
func (s LotStatus) Terminal() bool {
	switch s {
	case LotSold, LotUnsold, LotWithdrawn:
		return true
	}
	return false
}

// Finalizable reports whether a finalize command may touch this lot.
// Anything else answers ErrConcurrencyConflict: the caller lost a race
// and has to refetch.
func (s LotStatus) Finalizable() bool {
	return s == LotInAuction || s == LotPending
}
