package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tourneyhq/auction-backend/internal/engine"
	"github.com/tourneyhq/auction-backend/internal/hub"
	"github.com/tourneyhq/auction-backend/internal/ws"
)

// SetupRoutes builds the router. lotTimerSeconds is the default lot
// countdown applied to seeds that carry no rules of their own.
func SetupRoutes(h *hub.Hub, lotTimerSeconds int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h))
	r.Post("/tournaments", CreateTournament(h, lotTimerSeconds))

	r.Route("/tournaments/{tournamentID}/auction", func(r chi.Router) {
		r.Post("/start", Lifecycle(h, engine.CmdStartAuction))
		r.Post("/pause", Lifecycle(h, engine.CmdPauseAuction))
		r.Post("/resume", Lifecycle(h, engine.CmdResumeAuction))
		r.Post("/lock", Lifecycle(h, engine.CmdLockAuction))
		r.Post("/end", Lifecycle(h, engine.CmdEndAuction))
		r.Post("/next", Lifecycle(h, engine.CmdAdvanceLot))
		r.Post("/shuffle", Lifecycle(h, engine.CmdShuffleLots))
		r.Post("/bid", SubmitBid(h))
		r.Post("/intents", CastIntent(h))
		r.Post("/finalize", FinalizeLot(h))
		r.Post("/reauction", ReauctionLot(h))
		r.Get("/snapshot", GetSnapshot(h))
		r.Get("/lots/{lotID}/bids", GetBidHistory(h))
	})
	return r
}
