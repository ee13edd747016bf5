package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tourneyhq/auction-backend/internal/engine"
	"github.com/tourneyhq/auction-backend/internal/session"
)

func testSeed(tournamentID string) engine.Seed {
	return engine.Seed{
		TournamentID: tournamentID,
		Lots:         []engine.Lot{{ID: "lot-1", PlayerName: "Arun", BasePrice: 1000}},
		Teams:        []engine.Team{{ID: "team-a", Name: "ALPHA", Budget: 5000, MinimumRosterSize: 1}},
	}
}

func TestCreateAndGet(t *testing.T) {
	h := New(context.Background(), nil, zap.NewNop())
	t.Cleanup(func() { h.Inbox() <- ShutdownHub{} })
	ctx := context.Background()

	if got := h.Get(ctx, "KPL2026"); got != nil {
		t.Fatalf("expected no session before create")
	}

	sess := h.Create(ctx, testSeed("KPL2026"))
	if sess == nil {
		t.Fatalf("Create returned nil")
	}
	if got := h.Get(ctx, "KPL2026"); got != sess {
		t.Fatalf("Get returned a different session")
	}
}

func TestCreateIsIdempotentPerTournament(t *testing.T) {
	h := New(context.Background(), nil, zap.NewNop())
	t.Cleanup(func() { h.Inbox() <- ShutdownHub{} })
	ctx := context.Background()

	first := h.Create(ctx, testSeed("KPL2026"))
	second := h.Create(ctx, testSeed("KPL2026"))
	if first != second {
		t.Fatalf("duplicate create spawned a second session")
	}
}

func TestResumeRegistersRecoveredState(t *testing.T) {
	h := New(context.Background(), nil, zap.NewNop())
	t.Cleanup(func() { h.Inbox() <- ShutdownHub{} })
	ctx := context.Background()

	state := engine.NewState(testSeed("KPL2026"))
	state.Status = engine.AuctionPaused

	reply := make(chan *session.Session, 1)
	h.Inbox() <- ResumeSession{State: state, Reply: reply}
	sess := <-reply
	if sess == nil {
		t.Fatalf("ResumeSession returned nil")
	}

	snap, err := sess.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Status != engine.AuctionPaused {
		t.Fatalf("resumed status = %s, want Paused", snap.Status)
	}
}

func TestRemoveForgetsSession(t *testing.T) {
	h := New(context.Background(), nil, zap.NewNop())
	t.Cleanup(func() { h.Inbox() <- ShutdownHub{} })
	ctx := context.Background()

	h.Create(ctx, testSeed("KPL2026"))
	h.Inbox() <- RemoveSession{TournamentID: "KPL2026"}

	deadline := time.Now().Add(2 * time.Second)
	for h.Get(ctx, "KPL2026") != nil {
		if time.Now().After(deadline) {
			t.Fatalf("session still registered after remove")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownStopsSessions(t *testing.T) {
	h := New(context.Background(), nil, zap.NewNop())
	ctx := context.Background()

	sess := h.Create(ctx, testSeed("KPL2026"))
	h.Inbox() <- ShutdownHub{}

	deadline := time.Now().Add(2 * time.Second)
	for {
		res := sess.Execute(ctx, engine.Command{Type: engine.CmdPauseAuction})
		if errors.Is(res.Err, context.Canceled) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session still accepting commands after hub shutdown")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
