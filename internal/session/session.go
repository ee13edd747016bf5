package session

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourneyhq/auction-backend/internal/engine"
)

type Msg interface{ isSessionMsg() }

// Do carries one engine command in for serialized execution and replies
// with the outcome. This is the only way auction state is ever touched.
type Do struct {
	Cmd   engine.Command
	Reply chan Result
}

func (Do) isSessionMsg() {}

type Result struct {
	Events []engine.Event
	Err    error
}

type Join struct {
	ClientID string
	Outbox   chan Envelope // where this client wants to receive the stream
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type GetSnapshot struct {
	Reply chan Snapshot
}

func (GetSnapshot) isSessionMsg() {}

type GetBidHistory struct {
	LotID string
	Reply chan HistoryResult
}

func (GetBidHistory) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// timerExpired is posted by the countdown goroutine. The generation
// guards against fires from a timer that was already reset or stopped.
type timerExpired struct{ gen int }

func (timerExpired) isSessionMsg() {}

type HistoryResult struct {
	LotID   string
	History []engine.BidEntry
	Err     error
}

// Envelope is one element of a client's ordered stream: the join-time
// snapshot first, then every event in mutation order.
type Envelope struct {
	Seq      int           `json:"seq"`
	Event    *engine.Event `json:"event,omitempty"`
	Snapshot *Snapshot     `json:"snapshot,omitempty"`
}

// Snapshot is the full reconstructible view: push and poll are two
// views of this one source of truth.
type Snapshot struct {
	Seq            int                     `json:"seq"`
	TournamentID   string                  `json:"tournament_id"`
	Status         engine.AuctionStatus    `json:"status"`
	ActiveLot      *engine.Lot             `json:"active_lot,omitempty"`
	TimerRemaining int                     `json:"timer_remaining"`
	TimerDeadline  time.Time               `json:"timer_deadline,omitzero"`
	Teams          []engine.BudgetSnapshot `json:"teams"`
	Summary        *engine.Summary         `json:"summary,omitempty"`
	CompletedAt    time.Time               `json:"completed_at,omitzero"`
	Log            []engine.LogEntry       `json:"log"`
}

// Store is the durable-record collaborator. Implementations must be
// safe for use from the session goroutine only.
type Store interface {
	SaveSessionStatus(ctx context.Context, tournamentID string, status engine.AuctionStatus, at time.Time) error
	SaveLot(ctx context.Context, tournamentID string, lot engine.Lot) error
	AppendBid(ctx context.Context, tournamentID, lotID string, entry engine.BidEntry) error
	AppendLedgerEntry(ctx context.Context, tournamentID string, entry engine.LedgerEntry) error
}

type Session struct {
	inbox    chan Msg
	state    *engine.State
	seq      int
	clients  map[string]chan Envelope
	store    Store
	log      *zap.Logger
	timer    *time.Timer
	timerGen int
	deadline time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

// New starts the session goroutine. store may be nil (in-memory only,
// used by tests); logger must not be.
func New(parent context.Context, state *engine.State, store Store, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:   make(chan Msg, 64),
		state:   state,
		clients: make(map[string]chan Envelope),
		store:   store,
		log:     logger.With(zap.String("tournament", state.TournamentID)),
		ctx:     ctx,
		cancel:  cancel,
	}
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Execute is the synchronous convenience wrapper around Do used by the
// HTTP layer.
func (s *Session) Execute(ctx context.Context, cmd engine.Command) Result {
	reply := make(chan Result, 1)
	select {
	case s.inbox <- Do{Cmd: cmd, Reply: reply}:
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-s.ctx.Done():
		return Result{Err: s.ctx.Err()}
	}
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-s.ctx.Done():
		return Result{Err: s.ctx.Err()}
	}
}

// BidHistory fetches a lot's full append-only bid history.
func (s *Session) BidHistory(ctx context.Context, lotID string) ([]engine.BidEntry, error) {
	reply := make(chan HistoryResult, 1)
	select {
	case s.inbox <- GetBidHistory{LotID: lotID, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
	select {
	case res := <-reply:
		return res.History, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

// Snapshot fetches the live snapshot synchronously.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case s.inbox <- GetSnapshot{Reply: reply}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-s.ctx.Done():
		return Snapshot{}, s.ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-s.ctx.Done():
		return Snapshot{}, s.ctx.Err()
	}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				snap := s.snapshot()
				msg.Outbox <- Envelope{Seq: s.seq, Snapshot: &snap}

			case Leave:
				// Closing the outbox ends the client's writer goroutine.
				// The slow-client drop path may have closed it already,
				// in which case the client is no longer in the map.
				if ch, ok := s.clients[msg.ClientID]; ok {
					close(ch)
					delete(s.clients, msg.ClientID)
				}

			case Do:
				events, err := engine.Apply(s.state, msg.Cmd)
				if err != nil {
					// Rejections go only to the requester. Shared state
					// is untouched and nothing is broadcast.
					s.log.Debug("command rejected",
						zap.String("command", string(msg.Cmd.Type)),
						zap.Error(err))
					msg.Reply <- Result{Err: err}
					break
				}
				s.afterEvents(events)
				msg.Reply <- Result{Events: events}

			case GetSnapshot:
				msg.Reply <- s.snapshot()

			case GetBidHistory:
				lot, ok := s.state.Lots[msg.LotID]
				if !ok {
					msg.Reply <- HistoryResult{LotID: msg.LotID, Err: engine.ErrLotNotFound}
					break
				}
				history := make([]engine.BidEntry, len(lot.BidHistory))
				copy(history, lot.BidHistory)
				msg.Reply <- HistoryResult{LotID: msg.LotID, History: history}

			case timerExpired:
				if msg.gen != s.timerGen {
					break // stale fire from a timer that was reset
				}
				events, err := engine.Apply(s.state, engine.Command{Type: engine.CmdTimerExpired, Now: time.Now()})
				if err != nil {
					s.log.Warn("timer expiry rejected", zap.Error(err))
					break
				}
				s.afterEvents(events)

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

// afterEvents persists, re-arms or stops the lot timer, and broadcasts,
// in that order, for each accepted event.
func (s *Session) afterEvents(events []engine.Event) {
	for i := range events {
		ev := events[i]
		s.persist(ev)

		switch ev.Type {
		case engine.EvtPlayerNext, engine.EvtBidUpdate:
			s.resetTimer()
		case engine.EvtAuctionResume:
			if s.state.ActiveLotID != "" {
				s.resetTimer()
			}
		case engine.EvtAuctionPause, engine.EvtAuctionStop, engine.EvtAuctionEnd,
			engine.EvtPlayerSold, engine.EvtPlayerUnsold, engine.EvtPlayerPending, engine.EvtPlayerWithdrawn:
			s.stopTimer()
		}

		s.seq++
		s.broadcast(Envelope{Seq: s.seq, Event: &ev})
		s.log.Info("event", zap.String("type", string(ev.Type)), zap.Int("seq", s.seq))
	}
}

// persist hands accepted transitions to the durable store. Failures are
// logged, not propagated: clients reconcile through snapshot refetch,
// and the recovery routine repairs on restart.
func (s *Session) persist(ev engine.Event) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch ev.Type {
	case engine.EvtAuctionStart, engine.EvtAuctionPause, engine.EvtAuctionResume, engine.EvtAuctionStop, engine.EvtAuctionEnd:
		err = s.store.SaveSessionStatus(ctx, s.state.TournamentID, s.state.Status, time.Now())

	case engine.EvtPlayerNext:
		if p, ok := ev.Payload.(engine.NextPayload); ok {
			err = s.store.SaveLot(ctx, s.state.TournamentID, *p.Lot)
		}

	case engine.EvtBidUpdate:
		if p, ok := ev.Payload.(engine.BidUpdatePayload); ok && len(p.BidHistory) > 0 {
			err = s.store.AppendBid(ctx, s.state.TournamentID, p.LotID, p.BidHistory[len(p.BidHistory)-1])
		}

	case engine.EvtPlayerSold, engine.EvtPlayerUnsold, engine.EvtPlayerPending, engine.EvtPlayerWithdrawn:
		if p, ok := ev.Payload.(engine.FinalizedPayload); ok {
			err = s.store.SaveLot(ctx, s.state.TournamentID, *p.Lot)
		}

	case engine.EvtBalanceUpdate:
		if p, ok := ev.Payload.(engine.BalancePayload); ok {
			err = s.store.AppendLedgerEntry(ctx, s.state.TournamentID, engine.LedgerEntry{
				ID:      uuid.NewString(),
				TeamID:  p.TeamID,
				Delta:   p.Delta,
				Balance: p.CurrentBalance,
				Cause:   p.Cause,
				LotID:   p.LotID,
				At:      time.Now(),
			})
		}
	}
	if err != nil {
		s.log.Error("persist failed", zap.String("event", string(ev.Type)), zap.Error(err))
	}
}

func (s *Session) resetTimer() {
	s.timerGen++
	gen := s.timerGen
	dur := time.Duration(s.state.Rules.TimerSeconds) * time.Second
	s.deadline = time.Now().Add(dur)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(dur, func() {
		select {
		case s.inbox <- timerExpired{gen: gen}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) stopTimer() {
	s.timerGen++
	s.deadline = time.Time{}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshot() Snapshot {
	// Snapshots leave this goroutine, so everything mutable is copied:
	// the active lot is cloned and the log slice duplicated. Summary is
	// written once at completion and never touched again.
	snap := Snapshot{
		Seq:          s.seq,
		TournamentID: s.state.TournamentID,
		Status:       s.state.Status,
		Summary:      s.state.Summary,
		CompletedAt:  s.state.CompletedAt,
		Log:          append([]engine.LogEntry(nil), s.state.RecentLog(100)...),
	}
	if s.state.ActiveLotID != "" {
		snap.ActiveLot = s.state.Lots[s.state.ActiveLotID].Clone()
	}
	if !s.deadline.IsZero() {
		if remaining := time.Until(s.deadline); remaining > 0 {
			snap.TimerRemaining = int(remaining.Round(time.Second).Seconds())
			snap.TimerDeadline = s.deadline
		}
	}
	snap.Teams = make([]engine.BudgetSnapshot, 0, len(s.state.Teams))
	for _, id := range sortedTeamIDs(s.state.Teams) {
		snap.Teams = append(snap.Teams, engine.BudgetSnapshotFor(s.state.Teams[id], s.state.Rules))
	}
	return snap
}

func (s *Session) shutdown() {
	s.stopTimer()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(env Envelope) {
	for id, ch := range s.clients {
		select {
		case ch <- env:
			// delivered
		default:
			// Client is slow/full - drop them. They reconcile with a
			// snapshot refetch on reconnect.
			close(ch)
			delete(s.clients, id)
		}
	}
}

func sortedTeamIDs(teams map[string]*engine.Team) []string {
	ids := make([]string, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
