package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CommandType string

const (
	CmdStartAuction  CommandType = "StartAuction"
	CmdPauseAuction  CommandType = "PauseAuction"
	CmdResumeAuction CommandType = "ResumeAuction"
	CmdLockAuction   CommandType = "LockAuction"
	CmdEndAuction    CommandType = "EndAuction"
	CmdAdvanceLot    CommandType = "AdvanceLot"
	CmdSubmitBid     CommandType = "SubmitBid"
	CmdCastIntent    CommandType = "CastIntent"
	CmdFinalizeLot   CommandType = "FinalizeLot"
	CmdTimerExpired  CommandType = "TimerExpired"
	CmdReauctionLot  CommandType = "ReauctionLot"
	CmdShuffleLots   CommandType = "ShuffleLots"
)

type Command struct {
	Type    CommandType
	TeamID  string
	SeatID  string
	LotID   string
	Amount  int64
	Outcome Outcome
	Now     time.Time
}

// newID is swapped out in tests for deterministic IDs.
var newID = func() string { return uuid.NewString() }

// Apply runs one command against the state. All-or-nothing: on any
// error the state is untouched and no events are produced. The caller
// (the session goroutine) is the single writer, so no two commands for
// the same tournament ever interleave.
func Apply(s *State, cmd Command) ([]Event, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	switch cmd.Type {
	case CmdStartAuction:
		return s.start(now)
	case CmdPauseAuction:
		return s.setStatus(AuctionPaused, EvtAuctionPause, now)
	case CmdResumeAuction:
		return s.setStatus(AuctionRunning, EvtAuctionResume, now)
	case CmdLockAuction:
		return s.setStatus(AuctionLocked, EvtAuctionStop, now)
	case CmdEndAuction:
		return s.end(now)
	case CmdAdvanceLot:
		return s.advance(now)
	case CmdSubmitBid:
		return s.submitBid(cmd.LotID, cmd.TeamID, cmd.SeatID, cmd.Amount, now)
	case CmdCastIntent:
		return s.castIntent(cmd.TeamID, cmd.SeatID, cmd.LotID, cmd.Amount, now)
	case CmdFinalizeLot:
		return s.finalize(cmd.LotID, cmd.Outcome, now)
	case CmdTimerExpired:
		return s.timerExpired(now)
	case CmdReauctionLot:
		return s.reauction(cmd.LotID, now)
	case CmdShuffleLots:
		return s.shuffle(now)
	default:
		return nil, ErrUnsupportedCommand
	}
}

func (s *State) start(now time.Time) ([]Event, error) {
	if s.Status != AuctionNotStarted {
		return nil, fmt.Errorf("%w: cannot start from %s", ErrAuctionState, s.Status)
	}
	if s.availableCount() == 0 {
		return nil, fmt.Errorf("%w: no available lots", ErrAuctionState)
	}
	s.Status = AuctionRunning
	s.appendLog(now, "lifecycle", "auction started")
	return []Event{{Type: EvtAuctionStart, Payload: StatusPayload{Status: s.Status}}}, nil
}

func (s *State) setStatus(next AuctionStatus, evt EventType, now time.Time) ([]Event, error) {
	if !s.Status.canTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrAuctionState, s.Status, next)
	}
	s.Status = next
	s.appendLog(now, "lifecycle", fmt.Sprintf("auction %s", next))
	return []Event{{Type: evt, Payload: StatusPayload{Status: next}}}, nil
}

// end completes the session from any non-Completed state. InAuction and
// Pending lots are finalized as Unsold first, then the summary is
// computed over everything.
func (s *State) end(now time.Time) ([]Event, error) {
	if s.Status == AuctionCompleted {
		return nil, fmt.Errorf("%w: auction already completed", ErrAuctionState)
	}

	var events []Event
	pendingConverted := 0
	for _, id := range s.LotOrder {
		lot := s.Lots[id]
		if lot == nil || !lot.Status.Finalizable() {
			continue
		}
		if lot.Status == LotPending {
			pendingConverted++
		}
		evs, err := s.finalize(lot.ID, Outcome{Kind: OutcomeUnsold}, now)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}

	s.Status = AuctionCompleted
	s.CompletedAt = now
	s.Summary = s.computeSummary()
	s.Summary.PendingConvertedToUnsold = pendingConverted
	s.appendLog(now, "lifecycle", "auction completed")
	events = append(events, Event{Type: EvtAuctionEnd, Payload: EndPayload{Summary: s.Summary, CompletedAt: now}})
	return events, nil
}

func (s *State) advance(now time.Time) ([]Event, error) {
	if s.Status != AuctionRunning {
		return nil, fmt.Errorf("%w: session is %s", ErrAuctionState, s.Status)
	}
	if s.ActiveLotID != "" {
		return nil, fmt.Errorf("%w: lot %s already in auction", ErrAuctionState, s.ActiveLotID)
	}
	lot := s.nextAvailableLot()
	if lot == nil {
		return nil, fmt.Errorf("%w: no available lots remain", ErrAuctionState)
	}

	lot.Status = LotInAuction
	lot.CurrentBid = 0
	lot.CurrentBidder = ""
	s.ActiveLotID = lot.ID
	s.appendLog(now, "lot", fmt.Sprintf("%s up for auction at base %d", lot.PlayerName, lot.BasePrice))
	return []Event{{Type: EvtPlayerNext, Payload: NextPayload{Lot: lot.Clone(), TimerSeconds: s.Rules.TimerSeconds}}}, nil
}

// submitBid is the single-writer arbitration path. Validation order is
// fixed and short-circuits: lifecycle, increment, budget, self-outbid.
func (s *State) submitBid(lotID, teamID, seatID string, amount int64, now time.Time) ([]Event, error) {
	if s.Status != AuctionRunning {
		return nil, fmt.Errorf("%w: session is %s", ErrAuctionState, s.Status)
	}
	lot := s.Lots[lotID]
	if lot == nil {
		return nil, fmt.Errorf("%w: %s", ErrLotNotFound, lotID)
	}
	if lot.Status != LotInAuction || s.ActiveLotID != lot.ID {
		return nil, fmt.Errorf("%w: lot %s is not in auction", ErrAuctionState, lotID)
	}
	team := s.Teams[teamID]
	if team == nil {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}

	if min := s.Rules.MinimumNextBid(lot); amount < min {
		return nil, fmt.Errorf("%w: minimum next bid is %d", ErrBidTooLow, min)
	}
	if max := MaxPossibleBid(team, s.Rules); amount > max {
		return nil, fmt.Errorf("%w: maximum possible bid is %d", ErrBudgetExceeded, max)
	}
	if lot.CurrentBidder == teamID {
		return nil, ErrSelfOutbid
	}

	entry := BidEntry{
		ID:       newID(),
		TeamID:   team.ID,
		TeamName: team.Name,
		Amount:   amount,
		SeatID:   seatID,
		At:       now,
	}
	lot.CurrentBid = amount
	lot.CurrentBidder = team.ID
	lot.BidHistory = append(lot.BidHistory, entry)
	s.resetIntentsOnBid(lot.ID)
	s.appendLog(now, "bid", fmt.Sprintf("%s bid %d for %s", team.Name, amount, lot.PlayerName))

	return []Event{{Type: EvtBidUpdate, Payload: BidUpdatePayload{
		LotID:        lot.ID,
		Amount:       amount,
		TeamID:       team.ID,
		TeamName:     team.Name,
		BidHistory:   lot.RecentBids(bidHistoryWindow),
		TimerSeconds: s.Rules.TimerSeconds,
	}}}, nil
}

// resetIntentsOnBid drops prior intents for a lot once its price has
// moved: they were formed against an outdated price. Teams that opted
// out of autoResetOnBid keep theirs; the staleness filter discards them
// at evaluation anyway.
func (s *State) resetIntentsOnBid(lotID string) {
	for teamID, team := range s.Teams {
		if team.Policy.AutoResetOnBid {
			delete(s.Intents, intentKey(teamID, lotID))
		}
	}
}

// clearIntentsForLot removes every team's intents against a lot,
// whatever the policy. Used when the lot leaves the block entirely.
func (s *State) clearIntentsForLot(lotID string) {
	for key := range s.Intents {
		if strings.HasSuffix(key, ":"+lotID) {
			delete(s.Intents, key)
		}
	}
}

func (s *State) castIntent(teamID, seatID, lotID string, amount int64, now time.Time) ([]Event, error) {
	team := s.Teams[teamID]
	if team == nil {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	seat, ok := team.Seat(seatID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, seatID)
	}
	if seat.Status != SeatActive {
		return nil, fmt.Errorf("%w: seat %s is %s", ErrValidation, seat.Label, seat.Status)
	}
	if !seat.IsVoter && !seat.IsLead {
		return nil, fmt.Errorf("%w: seat %s cannot bid", ErrValidation, seat.Label)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if s.Status != AuctionRunning {
		return nil, fmt.Errorf("%w: session is %s", ErrAuctionState, s.Status)
	}
	lot := s.Lots[lotID]
	if lot == nil {
		return nil, fmt.Errorf("%w: %s", ErrLotNotFound, lotID)
	}
	if lot.Status != LotInAuction || s.ActiveLotID != lot.ID {
		return nil, fmt.Errorf("%w: lot %s is not in auction", ErrAuctionState, lotID)
	}

	// Single mode bypasses the quorum engine: any voter or lead seat
	// submits on the team's behalf directly.
	if team.Policy.Mode != SeatModeQuorum {
		return s.submitBid(lotID, teamID, seatID, amount, now)
	}

	if seat.IsLead && team.Policy.AllowLeadOverride {
		events, err := s.submitBid(lotID, teamID, seatID, amount, now)
		if err != nil {
			return nil, err
		}
		delete(s.Intents, intentKey(teamID, lotID))
		return events, nil
	}

	if !seat.IsVoter {
		return nil, fmt.Errorf("%w: seat %s is not a voter", ErrValidation, seat.Label)
	}

	key := intentKey(teamID, lotID)
	intents := freshIntents(s.Intents[key], lot.CurrentBid)
	intents = upsertIntent(intents, BidIntent{
		SeatID:             seatID,
		Amount:             amount,
		ObservedCurrentBid: lot.CurrentBid,
		At:                 now,
	})
	s.Intents[key] = intents

	agreed := quorumAmount(intents, team.VotersRequired())
	if agreed == 0 {
		// Quorum not met yet; the intent is parked until enough seats
		// agree or the price moves.
		return nil, nil
	}

	events, err := s.submitBid(lotID, teamID, seatID, agreed, now)
	if err != nil {
		return nil, err
	}
	delete(s.Intents, key)
	return events, nil
}

func (s *State) finalize(lotID string, outcome Outcome, now time.Time) ([]Event, error) {
	if s.Status == AuctionCompleted {
		return nil, fmt.Errorf("%w: auction already completed", ErrAuctionState)
	}
	lot := s.Lots[lotID]
	if lot == nil {
		return nil, fmt.Errorf("%w: %s", ErrLotNotFound, lotID)
	}
	if !lot.Status.Finalizable() {
		// Second finalize on a settled lot loses the race. The first
		// outcome stands untouched.
		return nil, fmt.Errorf("%w: lot %s is %s", ErrConcurrencyConflict, lotID, lot.Status)
	}

	evtType := EvtPlayerUnsold
	payload := FinalizedPayload{}
	var balance *BalancePayload
	switch outcome.Kind {
	case OutcomeSold:
		team := s.Teams[outcome.TeamID]
		if team == nil {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, outcome.TeamID)
		}
		if outcome.Price <= 0 {
			return nil, fmt.Errorf("%w: sold price must be positive", ErrValidation)
		}
		if outcome.Price > team.CurrentBalance {
			return nil, fmt.Errorf("%w: price %d exceeds balance %d", ErrBudgetExceeded, outcome.Price, team.CurrentBalance)
		}

		lot.Status = LotSold
		lot.SoldTo = team.ID
		lot.SoldPrice = outcome.Price
		team.PurchasedLots = append(team.PurchasedLots, lot.ID)
		team.CurrentBalance -= outcome.Price
		s.appendLog(now, "sold", fmt.Sprintf("%s sold to %s for %d", lot.PlayerName, team.Name, outcome.Price))

		evtType = EvtPlayerSold
		payload = FinalizedPayload{TeamID: team.ID, TeamName: team.Name, Price: outcome.Price}
		balance = &BalancePayload{
			TeamID:         team.ID,
			CurrentBalance: team.CurrentBalance,
			MaxPossibleBid: MaxPossibleBid(team, s.Rules),
			Delta:          -outcome.Price,
			Cause:          "lot:sold",
			LotID:          lot.ID,
		}

	case OutcomeUnsold:
		lot.Status = LotUnsold
		s.appendLog(now, "unsold", fmt.Sprintf("%s unsold", lot.PlayerName))
		evtType = EvtPlayerUnsold

	case OutcomePending:
		if lot.Status == LotPending {
			return nil, fmt.Errorf("%w: lot %s is already pending", ErrConcurrencyConflict, lotID)
		}
		lot.Status = LotPending
		s.appendLog(now, "pending", fmt.Sprintf("%s moved to pending", lot.PlayerName))
		evtType = EvtPlayerPending

	case OutcomeWithdrawn:
		lot.Status = LotWithdrawn
		lot.WithdrawReason = outcome.Reason
		s.appendLog(now, "withdrawn", fmt.Sprintf("%s withdrawn: %s", lot.PlayerName, outcome.Reason))
		evtType = EvtPlayerWithdrawn
		payload = FinalizedPayload{Reason: outcome.Reason}

	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrValidation, outcome.Kind)
	}

	lot.CurrentBid = 0
	lot.CurrentBidder = ""
	lot.FinalizedAt = now
	if s.ActiveLotID == lot.ID {
		s.ActiveLotID = ""
	}
	s.clearIntentsForLot(lot.ID)

	// Payloads carry a clone of the settled lot; live state never leaves
	// the session goroutine.
	payload.Lot = lot.Clone()
	events := []Event{{Type: evtType, Payload: payload}}
	if balance != nil {
		events = append(events, Event{Type: EvtBalanceUpdate, Payload: *balance})
	}
	return events, nil
}

// timerExpired is posted by the session when the lot countdown runs
// out. A lot nobody bid on settles per tournament policy; a lot with a
// standing bid waits for the admin's hammer. Stale fires (after a
// pause, or after the lot already settled) are no-ops.
func (s *State) timerExpired(now time.Time) ([]Event, error) {
	if s.Status != AuctionRunning || s.ActiveLotID == "" {
		return nil, nil
	}
	lot := s.Lots[s.ActiveLotID]
	if lot == nil || lot.Status != LotInAuction {
		return nil, nil
	}
	if lot.CurrentBid != 0 || len(lot.BidHistory) > 0 {
		return nil, nil
	}
	return s.finalize(lot.ID, Outcome{Kind: s.Rules.TimerExpiryOutcome}, now)
}

// reauction returns a settled lot to the pool, at the back of the
// order. Bid history from the earlier round is retained; price and
// outcome fields are cleared.
func (s *State) reauction(lotID string, now time.Time) ([]Event, error) {
	if s.Status == AuctionCompleted {
		return nil, fmt.Errorf("%w: auction already completed", ErrAuctionState)
	}
	lot := s.Lots[lotID]
	if lot == nil {
		return nil, fmt.Errorf("%w: %s", ErrLotNotFound, lotID)
	}
	switch lot.Status {
	case LotUnsold, LotWithdrawn, LotPending:
		// fine
	case LotSold:
		return nil, fmt.Errorf("%w: sold lots cannot be re-auctioned directly", ErrAuctionState)
	default:
		return nil, fmt.Errorf("%w: lot %s is %s", ErrAuctionState, lotID, lot.Status)
	}

	lot.Status = LotAvailable
	lot.CurrentBid = 0
	lot.CurrentBidder = ""
	lot.SoldTo = ""
	lot.SoldPrice = 0
	lot.WithdrawReason = ""
	lot.FinalizedAt = time.Time{}

	for i, id := range s.LotOrder {
		if id == lot.ID {
			s.LotOrder = append(s.LotOrder[:i], s.LotOrder[i+1:]...)
			s.LotOrder = append(s.LotOrder, lot.ID)
			break
		}
	}
	s.appendLog(now, "reauction", fmt.Sprintf("%s returned to pool", lot.PlayerName))
	return nil, nil
}

// shuffle randomizes the order of the remaining Available lots. Settled
// lots keep their positions.
func (s *State) shuffle(now time.Time) ([]Event, error) {
	if s.Status == AuctionCompleted {
		return nil, fmt.Errorf("%w: auction already completed", ErrAuctionState)
	}
	var idx []int
	for i, id := range s.LotOrder {
		if lot := s.Lots[id]; lot != nil && lot.Status == LotAvailable {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return nil, nil
	}
	available := make([]string, len(idx))
	for i, pos := range idx {
		available[i] = s.LotOrder[pos]
	}
	perm := shuffleOrder(len(available))
	for i, pos := range idx {
		s.LotOrder[pos] = available[perm[i]]
	}
	s.appendLog(now, "shuffle", "remaining lots shuffled")
	return nil, nil
}
