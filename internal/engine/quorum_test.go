package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuorumState() *State {
	return NewState(Seed{
		TournamentID: "KPL2026",
		Lots: []Lot{
			{ID: "lot-1", PlayerName: "Arun", BasePrice: 1000},
		},
		Teams: []Team{
			{ID: "team-a", Name: "ALPHA", Budget: 5000, MinimumRosterSize: 1},
			{ID: "team-b", Name: "BRAVO", Budget: 5000, MinimumRosterSize: 1},
			{
				ID: "team-c", Name: "CHARLIE", Budget: 5000, MinimumRosterSize: 1,
				Seats: []Seat{
					{ID: "seat-1", Label: "Owner", IsVoter: true, Status: SeatActive},
					{ID: "seat-2", Label: "Coach", IsVoter: true, Status: SeatActive},
					{ID: "seat-3", Label: "Captain", IsVoter: true, Status: SeatActive},
					{ID: "seat-lead", Label: "Lead", IsLead: true, Status: SeatActive},
				},
				Policy: SeatPolicy{
					Mode:              SeatModeQuorum,
					VotersRequired:    2,
					AllowLeadOverride: true,
					AutoResetOnBid:    true,
				},
			},
		},
		Rules: &Rules{TimerSeconds: 30, FixedIncrement: 100},
	})
}

// Two voter seats agree on the same amount against the same observed
// price: exactly one bid goes out, at the agreed amount.
func TestQuorumSubmitsOnceWhenMet(t *testing.T) {
	s := newQuorumState()
	lot := startAndAdvance(t, s)
	mustApply(t, s, Command{Type: CmdSubmitBid, LotID: lot.ID, TeamID: "team-a", Amount: 1200})

	events := mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-1", LotID: lot.ID, Amount: 1500})
	assert.Empty(t, events, "first intent alone must not bid")
	assert.Equal(t, int64(1200), lot.CurrentBid)

	events = mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-2", LotID: lot.ID, Amount: 1500})
	require.Len(t, events, 1)
	assert.Equal(t, EvtBidUpdate, events[0].Type)
	assert.Equal(t, int64(1500), lot.CurrentBid)
	assert.Equal(t, "team-c", lot.CurrentBidder)
	require.Len(t, lot.BidHistory, 2)

	// Consumed on submission: a third seat agreeing later starts over.
	assert.Empty(t, s.Intents[intentKey("team-c", lot.ID)])
}

// A rival bid between two casts invalidates the first seat's intent:
// it observed a price that no longer exists. AutoResetOnBid is off here
// so the parked intent survives to the staleness filter.
func TestQuorumStaleIntentDiscardedAfterRivalBid(t *testing.T) {
	s := newQuorumState()
	s.Teams["team-c"].Policy.AutoResetOnBid = false
	lot := startAndAdvance(t, s)
	mustApply(t, s, Command{Type: CmdSubmitBid, LotID: lot.ID, TeamID: "team-b", Amount: 1200})

	mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-1", LotID: lot.ID, Amount: 1500})

	mustApply(t, s, Command{Type: CmdSubmitBid, LotID: lot.ID, TeamID: "team-a", Amount: 1600})

	events := mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-2", LotID: lot.ID, Amount: 1700})
	assert.Empty(t, events, "quorum must not count the stale seat-1 intent")
	assert.Equal(t, int64(1600), lot.CurrentBid)
}

// Quorum agrees on the second-highest proposal: every agreeing seat is
// at or above it.
func TestQuorumAgreedAmountIsRequiredthHighest(t *testing.T) {
	s := newQuorumState()
	lot := startAndAdvance(t, s)

	mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-1", LotID: lot.ID, Amount: 1800})
	events := mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-2", LotID: lot.ID, Amount: 1400})
	require.Len(t, events, 1)
	assert.Equal(t, int64(1400), lot.CurrentBid, "agreed amount is the lower of the two")
}

func TestQuorumLeadOverrideBidsImmediately(t *testing.T) {
	s := newQuorumState()
	lot := startAndAdvance(t, s)

	mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-1", LotID: lot.ID, Amount: 1500})
	events := mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-lead", LotID: lot.ID, Amount: 2000})
	require.Len(t, events, 1)
	assert.Equal(t, int64(2000), lot.CurrentBid)
	assert.Empty(t, s.Intents[intentKey("team-c", lot.ID)], "override clears parked intents")
}

func TestQuorumLeadOverrideDisabled(t *testing.T) {
	s := newQuorumState()
	team := s.Teams["team-c"]
	team.Policy.AllowLeadOverride = false
	lot := startAndAdvance(t, s)

	_, err := Apply(s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-lead", LotID: lot.ID, Amount: 2000, Now: testNow})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	assert.Equal(t, int64(0), lot.CurrentBid)
}

func TestQuorumSeatChecks(t *testing.T) {
	s := newQuorumState()
	team := s.Teams["team-c"]
	team.Seats[2].Status = SeatDisabled
	lot := startAndAdvance(t, s)

	cases := []struct {
		name    string
		seatID  string
		wantErr error
	}{
		{name: "unknown seat", seatID: "seat-x", wantErr: ErrSeatNotFound},
		{name: "disabled seat", seatID: "seat-3", wantErr: ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Apply(s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: tc.seatID, LotID: lot.ID, Amount: 1200, Now: testNow})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// With dynamic quorum a declared requirement above the live voter count
// clamps down instead of deadlocking the team.
func TestDynamicQuorumClampsToActiveVoters(t *testing.T) {
	s := newQuorumState()
	team := s.Teams["team-c"]
	team.Policy.VotersRequired = 3
	team.Policy.AllowDynamicQuorum = true
	team.Seats[1].Status = SeatDisabled
	team.Seats[2].Status = SeatDisabled
	lot := startAndAdvance(t, s)

	require.Equal(t, 1, team.VotersRequired())

	events := mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-1", LotID: lot.ID, Amount: 1200})
	require.Len(t, events, 1)
	assert.Equal(t, int64(1200), lot.CurrentBid)
}

func TestSingleModeSeatBidsDirectly(t *testing.T) {
	s := newQuorumState()
	team := s.Teams["team-c"]
	team.Policy.Mode = SeatModeSingle
	lot := startAndAdvance(t, s)

	events := mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-1", LotID: lot.ID, Amount: 1100})
	require.Len(t, events, 1)
	assert.Equal(t, "team-c", lot.CurrentBidder)
}

// An accepted bid wipes parked intents for teams running autoResetOnBid.
func TestIntentsResetOnAcceptedBid(t *testing.T) {
	s := newQuorumState()
	lot := startAndAdvance(t, s)

	mustApply(t, s, Command{Type: CmdCastIntent, TeamID: "team-c", SeatID: "seat-1", LotID: lot.ID, Amount: 1500})
	require.Len(t, s.Intents[intentKey("team-c", lot.ID)], 1)

	mustApply(t, s, Command{Type: CmdSubmitBid, LotID: lot.ID, TeamID: "team-a", Amount: 1000})
	assert.Empty(t, s.Intents[intentKey("team-c", lot.ID)])
}

func TestUpsertIntentOneLiveIntentPerSeat(t *testing.T) {
	intents := upsertIntent(nil, BidIntent{SeatID: "s1", Amount: 1000})
	intents = upsertIntent(intents, BidIntent{SeatID: "s2", Amount: 1100})
	intents = upsertIntent(intents, BidIntent{SeatID: "s1", Amount: 1300})

	require.Len(t, intents, 2)
	assert.Equal(t, int64(1300), intents[0].Amount)
}

func TestQuorumAmount(t *testing.T) {
	intents := []BidIntent{
		{SeatID: "s1", Amount: 1800},
		{SeatID: "s2", Amount: 1400},
		{SeatID: "s3", Amount: 1600},
	}
	assert.Equal(t, int64(1800), quorumAmount(intents, 1))
	assert.Equal(t, int64(1600), quorumAmount(intents, 2))
	assert.Equal(t, int64(1400), quorumAmount(intents, 3))
	assert.Equal(t, int64(0), quorumAmount(intents, 4), "not enough seats")
	assert.Equal(t, int64(0), quorumAmount(nil, 1))
}
