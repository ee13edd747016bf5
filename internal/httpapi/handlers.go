package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tourneyhq/auction-backend/internal/engine"
	"github.com/tourneyhq/auction-backend/internal/hub"
	"github.com/tourneyhq/auction-backend/internal/session"
	"github.com/tourneyhq/auction-backend/internal/types"
)

type bidRequest struct {
	LotID  string `json:"lot_id"`
	TeamID string `json:"team_id"`
	Amount int64  `json:"amount"`
}

type intentRequest struct {
	TeamID string `json:"team_id"`
	SeatID string `json:"seat_id"`
	LotID  string `json:"lot_id"`
	Amount int64  `json:"amount"`
}

type finalizeRequest struct {
	LotID   string `json:"lot_id"`
	Outcome string `json:"outcome"` // sold | unsold | pending | withdrawn
	TeamID  string `json:"team_id,omitempty"`
	Price   int64  `json:"price,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type reauctionRequest struct {
	LotID string `json:"lot_id"`
}

type commandResponse struct {
	Success bool           `json:"success"`
	Events  []engine.Event `json:"events,omitempty"`
}

// CreateTournament seeds a session from the registration collaborator's
// payload: lots in registration order, teams with budgets and seats,
// auction rules. Seeds without rules get the service-wide default lot
// timer.
func CreateTournament(h *hub.Hub, lotTimerSeconds int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var seed engine.Seed
		if err := json.NewDecoder(r.Body).Decode(&seed); err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "bad json")
			return
		}
		if seed.TournamentID == "" {
			writeError(w, http.StatusBadRequest, "ValidationError", "tournament_id is required")
			return
		}
		if seed.Rules == nil {
			rules := engine.DefaultRules()
			rules.TimerSeconds = lotTimerSeconds
			seed.Rules = &rules
		} else if seed.Rules.TimerSeconds <= 0 {
			seed.Rules.TimerSeconds = lotTimerSeconds
		}
		if h.Create(r.Context(), seed) == nil {
			writeError(w, http.StatusInternalServerError, "InternalError", "failed to create session")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "tournament_id": seed.TournamentID})
	}
}

// Lifecycle returns a handler for the argument-free admin commands:
// start, pause, resume, lock, end, next, shuffle.
func Lifecycle(h *hub.Hub, cmdType engine.CommandType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolve(w, r, h)
		if !ok {
			return
		}
		respond(w, sess.Execute(r.Context(), engine.Command{Type: cmdType, Now: time.Now()}))
	}
}

func SubmitBid(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolve(w, r, h)
		if !ok {
			return
		}
		var req bidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "bad json")
			return
		}
		respond(w, sess.Execute(r.Context(), engine.Command{
			Type:   engine.CmdSubmitBid,
			LotID:  req.LotID,
			TeamID: req.TeamID,
			Amount: req.Amount,
			Now:    time.Now(),
		}))
	}
}

func CastIntent(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolve(w, r, h)
		if !ok {
			return
		}
		var req intentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "bad json")
			return
		}
		res := sess.Execute(r.Context(), engine.Command{
			Type:   engine.CmdCastIntent,
			TeamID: req.TeamID,
			SeatID: req.SeatID,
			LotID:  req.LotID,
			Amount: req.Amount,
			Now:    time.Now(),
		})
		if res.Err != nil {
			respond(w, res)
			return
		}
		// bid_triggered tells the seat UI whether quorum was reached or
		// the intent is still parked.
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"bid_triggered": len(res.Events) > 0,
			"events":        res.Events,
		})
	}
}

func FinalizeLot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolve(w, r, h)
		if !ok {
			return
		}
		var req finalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "bad json")
			return
		}
		respond(w, sess.Execute(r.Context(), engine.Command{
			Type:  engine.CmdFinalizeLot,
			LotID: req.LotID,
			Outcome: engine.Outcome{
				Kind:   engine.OutcomeKind(req.Outcome),
				TeamID: req.TeamID,
				Price:  req.Price,
				Reason: req.Reason,
			},
			Now: time.Now(),
		}))
	}
}

func ReauctionLot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolve(w, r, h)
		if !ok {
			return
		}
		var req reauctionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", "bad json")
			return
		}
		respond(w, sess.Execute(r.Context(), engine.Command{
			Type:  engine.CmdReauctionLot,
			LotID: req.LotID,
			Now:   time.Now(),
		}))
	}
}

func GetSnapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolve(w, r, h)
		if !ok {
			return
		}
		snap, err := sess.Snapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func GetBidHistory(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := resolve(w, r, h)
		if !ok {
			return
		}
		lotID := chi.URLParam(r, "lotID")
		history, err := sess.BidHistory(r.Context(), lotID)
		if err != nil {
			writeError(w, statusFor(err), types.ErrorCode(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lot_id": lotID, "bid_history": history})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func resolve(w http.ResponseWriter, r *http.Request, h *hub.Hub) (*session.Session, bool) {
	code := chi.URLParam(r, "tournamentID")
	sess := h.Get(r.Context(), code)
	if sess == nil {
		writeError(w, http.StatusNotFound, "NotFound", "tournament not found")
		return nil, false
	}
	return sess, true
}

func respond(w http.ResponseWriter, res session.Result) {
	if res.Err != nil {
		writeError(w, statusFor(res.Err), types.ErrorCode(res.Err), res.Err.Error())
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Success: true, Events: res.Events})
}

func statusFor(err error) int {
	switch types.ErrorCode(err) {
	case "NotFound":
		return http.StatusNotFound
	case "ConcurrencyConflict", "AuctionStateError":
		return http.StatusConflict
	case "InternalError":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "code": code, "message": msg})
}
