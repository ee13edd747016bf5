package engine

import "testing"

func TestIncrementAt(t *testing.T) {
	rules := Rules{
		FixedIncrement: 50,
		Bands: []IncrementBand{
			{From: 0, To: 1999, Increment: 100},
			{From: 2000, To: 4999, Increment: 200},
			{From: 5000, To: 9999, Increment: 500},
		},
	}

	cases := []struct {
		price int64
		want  int64
	}{
		{price: 0, want: 100},
		{price: 1999, want: 100},
		{price: 2000, want: 200},
		{price: 4999, want: 200},
		{price: 5000, want: 500},
		{price: 10000, want: 50}, // outside all bands, fixed applies
	}
	for _, tc := range cases {
		if got := rules.IncrementAt(tc.price); got != tc.want {
			t.Errorf("IncrementAt(%d) = %d, want %d", tc.price, got, tc.want)
		}
	}
}

func TestIncrementAtFallsBackWithoutConfig(t *testing.T) {
	var rules Rules
	if got := rules.IncrementAt(1500); got != defaultFixedIncrement {
		t.Fatalf("IncrementAt = %d, want %d", got, defaultFixedIncrement)
	}
}

func TestIncrementAtSkipsMalformedBand(t *testing.T) {
	rules := Rules{
		FixedIncrement: 50,
		Bands: []IncrementBand{
			{From: 0, To: 9999, Increment: 0}, // ignored
			{From: 0, To: 9999, Increment: 200},
		},
	}
	if got := rules.IncrementAt(1000); got != 200 {
		t.Fatalf("IncrementAt = %d, want 200", got)
	}
}

func TestMinimumNextBid(t *testing.T) {
	rules := Rules{
		FixedIncrement: 100,
		Bands:          []IncrementBand{{From: 2000, To: 4999, Increment: 200}},
	}

	lot := &Lot{BasePrice: 1000}
	if got := rules.MinimumNextBid(lot); got != 1000 {
		t.Fatalf("opening bid = %d, want base price 1000", got)
	}

	lot.CurrentBid = 1000
	if got := rules.MinimumNextBid(lot); got != 1100 {
		t.Fatalf("next bid = %d, want 1100", got)
	}

	lot.CurrentBid = 2500
	if got := rules.MinimumNextBid(lot); got != 2700 {
		t.Fatalf("banded next bid = %d, want 2700", got)
	}
}
