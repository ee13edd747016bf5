package engine

import "testing"

func TestMaxPossibleBid(t *testing.T) {
	rules := Rules{PerSlotMinimumReserve: 500}

	cases := []struct {
		name string
		team Team
		want int64
	}{
		{
			name: "full roster still to fill",
			team: Team{CurrentBalance: 10000, MinimumRosterSize: 5},
			// 4 slots reserved beyond the one this bid fills
			want: 8000,
		},
		{
			name: "partially filled roster",
			team: Team{CurrentBalance: 6000, MinimumRosterSize: 5, PurchasedLots: []string{"a", "b"}},
			want: 5000,
		},
		{
			name: "roster complete",
			team: Team{CurrentBalance: 3000, MinimumRosterSize: 2, PurchasedLots: []string{"a", "b"}},
			want: 3000,
		},
		{
			name: "reserve exceeds balance",
			team: Team{CurrentBalance: 1000, MinimumRosterSize: 5},
			want: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaxPossibleBid(&tc.team, rules); got != tc.want {
				t.Fatalf("MaxPossibleBid = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMaxPossibleBidNoReserveRule(t *testing.T) {
	team := Team{CurrentBalance: 3000, MinimumRosterSize: 11}
	if got := MaxPossibleBid(&team, Rules{}); got != 3000 {
		t.Fatalf("MaxPossibleBid = %d, want full balance", got)
	}
}

func TestBudgetSnapshotFor(t *testing.T) {
	rules := Rules{PerSlotMinimumReserve: 500}
	team := Team{
		ID:                "team-a",
		Name:              "ALPHA",
		Budget:            10000,
		CurrentBalance:    6000,
		MinimumRosterSize: 5,
		PurchasedLots:     []string{"lot-1", "lot-2"},
	}

	snap := BudgetSnapshotFor(&team, rules)
	if snap.Reserve != 1000 {
		t.Fatalf("reserve = %d, want 1000", snap.Reserve)
	}
	if snap.MaxPossibleBid != 5000 {
		t.Fatalf("max possible bid = %d, want 5000", snap.MaxPossibleBid)
	}
	if snap.PurchasedCount != 2 || snap.SlotsRemaining != 3 {
		t.Fatalf("purchased=%d remaining=%d", snap.PurchasedCount, snap.SlotsRemaining)
	}
	if snap.Budget != 10000 || snap.CurrentBalance != 6000 {
		t.Fatalf("snapshot purse mismatch: %+v", snap)
	}
}
