package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/tourneyhq/auction-backend/internal/engine"
	"github.com/tourneyhq/auction-backend/internal/session"
)

type HubMsg interface{ isHubMsg() }

// CreateSession registers a freshly seeded tournament. If a session
// already exists for the ID, the existing one is returned.
type CreateSession struct {
	Seed  engine.Seed
	Reply chan *session.Session
}

type GetSession struct {
	TournamentID string
	Reply        chan *session.Session
}

// ResumeSession registers a session over recovered state instead of a
// fresh seed. Used by the boot-time recovery path.
type ResumeSession struct {
	State *engine.State
	Reply chan *session.Session
}

type RemoveSession struct {
	TournamentID string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (ResumeSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub is the per-tournament session registry. All access goes through
// its inbox; there is no shared mutable "current auction" anywhere.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	store    session.Store
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, store session.Store, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		store:    store,
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Get is the synchronous lookup used by HTTP and WS handlers. Returns
// nil when no session exists for the tournament.
func (h *Hub) Get(ctx context.Context, tournamentID string) *session.Session {
	reply := make(chan *session.Session, 1)
	select {
	case h.inbox <- GetSession{TournamentID: tournamentID, Reply: reply}:
	case <-ctx.Done():
		return nil
	}
	select {
	case sess := <-reply:
		return sess
	case <-ctx.Done():
		return nil
	}
}

// Create seeds and registers a session synchronously.
func (h *Hub) Create(ctx context.Context, seed engine.Seed) *session.Session {
	reply := make(chan *session.Session, 1)
	select {
	case h.inbox <- CreateSession{Seed: seed, Reply: reply}:
	case <-ctx.Done():
		return nil
	}
	select {
	case sess := <-reply:
		return sess
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if sess := h.sessions[msg.Seed.TournamentID]; sess != nil {
					msg.Reply <- sess
					break
				}
				sess := session.New(h.ctx, engine.NewState(msg.Seed), h.store, h.log)
				h.sessions[msg.Seed.TournamentID] = sess
				h.log.Info("session created", zap.String("tournament", msg.Seed.TournamentID))
				msg.Reply <- sess

			case ResumeSession:
				if sess := h.sessions[msg.State.TournamentID]; sess != nil {
					msg.Reply <- sess
					break
				}
				sess := session.New(h.ctx, msg.State, h.store, h.log)
				h.sessions[msg.State.TournamentID] = sess
				h.log.Info("session resumed", zap.String("tournament", msg.State.TournamentID))
				msg.Reply <- sess

			case GetSession:
				msg.Reply <- h.sessions[msg.TournamentID] // may be nil

			case RemoveSession:
				delete(h.sessions, msg.TournamentID)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, sess := range h.sessions {
		sess.Inbox() <- session.Shutdown{}
	}
	clear(h.sessions)
	h.cancel()
}
