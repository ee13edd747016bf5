package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/tourneyhq/auction-backend/internal/engine"
	"github.com/tourneyhq/auction-backend/internal/hub"
	"github.com/tourneyhq/auction-backend/internal/session"
	"github.com/tourneyhq/auction-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 120 * time.Second
)

// Handler attaches a client to a tournament's ordered event stream. The
// client receives a full snapshot first, then live events; it never
// misses state from before it connected.
func Handler(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		sess := h.Get(r.Context(), code)
		if sess == nil {
			http.Error(w, "tournament not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Envelope, 32)
		clientID := uuid.NewString()

		sess.Inbox() <- session.Join{ClientID: clientID, Outbox: out}
		defer func() { sess.Inbox() <- session.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for env := range out {
				env := env
				msg := types.ServerMessage{Type: "Envelope", Envelope: &env}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "ValidationError", "bad json")
				continue
			}
			if cm.Type == "Ping" {
				continue
			}

			cmd, ok := toCommand(cm)
			if !ok {
				writeError(r.Context(), conn, "ValidationError", "unknown message type")
				continue
			}

			if res := sess.Execute(r.Context(), cmd); res.Err != nil {
				// Rejection goes only to this client; the stream stays
				// clean.
				writeError(r.Context(), conn, types.ErrorCode(res.Err), res.Err.Error())
			}
		}
	}
}

func toCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case "SubmitBid":
		return engine.Command{
			Type:   engine.CmdSubmitBid,
			LotID:  m.LotID,
			TeamID: m.TeamID,
			SeatID: m.SeatID,
			Amount: m.Amount,
			Now:    time.Now(),
		}, true
	case "CastIntent":
		return engine.Command{
			Type:   engine.CmdCastIntent,
			LotID:  m.LotID,
			TeamID: m.TeamID,
			SeatID: m.SeatID,
			Amount: m.Amount,
			Now:    time.Now(),
		}, true
	default:
		return engine.Command{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, code, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Code: code, Error: msg})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
