package engine

import (
	"math/rand"
	"time"
)

// State is the complete auction state for one tournament. It is only
// ever touched by that tournament's session goroutine, so none of it
// is locked.
type State struct {
	TournamentID string
	Status       AuctionStatus
	ActiveLotID  string
	Lots         map[string]*Lot
	LotOrder     []string
	Teams        map[string]*Team
	Rules        Rules
	Intents      map[string][]BidIntent
	Log          []LogEntry
	Summary      *Summary
	CompletedAt  time.Time
}

// LogEntry is one line of the human-readable auction log kept alongside
// the event stream.
type LogEntry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// Summary is computed once, when the session completes.
type Summary struct {
	TotalLots                int              `json:"total_lots"`
	Sold                     int              `json:"sold"`
	Unsold                   int              `json:"unsold"`
	Withdrawn                int              `json:"withdrawn"`
	PendingConvertedToUnsold int              `json:"pending_converted_to_unsold"`
	TotalTeams               int              `json:"total_teams"`
	TeamSpend                map[string]int64 `json:"team_spend"`
}

// Seed describes a freshly registered tournament: its lots in
// registration order, its teams, and the auction rules.
type Seed struct {
	TournamentID string `json:"tournament_id"`
	Lots         []Lot  `json:"lots"`
	Teams        []Team `json:"teams"`
	Rules        *Rules `json:"rules,omitempty"`
}

func NewState(seed Seed) *State {
	rules := DefaultRules()
	if seed.Rules != nil {
		rules = *seed.Rules
		if rules.TimerSeconds <= 0 {
			rules.TimerSeconds = DefaultRules().TimerSeconds
		}
		if rules.TimerExpiryOutcome != OutcomePending {
			rules.TimerExpiryOutcome = OutcomeUnsold
		}
	}

	s := &State{
		TournamentID: seed.TournamentID,
		Status:       AuctionNotStarted,
		Lots:         make(map[string]*Lot, len(seed.Lots)),
		LotOrder:     make([]string, 0, len(seed.Lots)),
		Teams:        make(map[string]*Team, len(seed.Teams)),
		Rules:        rules,
		Intents:      make(map[string][]BidIntent),
	}

	for i := range seed.Lots {
		lot := seed.Lots[i]
		if lot.Status == "" {
			lot.Status = LotAvailable
		}
		s.Lots[lot.ID] = &lot
		s.LotOrder = append(s.LotOrder, lot.ID)
	}
	for i := range seed.Teams {
		team := seed.Teams[i]
		if team.CurrentBalance == 0 {
			team.CurrentBalance = team.Budget
		}
		if team.Policy.Mode == "" {
			team.Policy = DefaultSeatPolicy()
		}
		s.Teams[team.ID] = &team
	}
	return s
}

// nextAvailableLot walks the lot order and returns the first Available
// lot, honoring registration order or whatever order the admin set.
func (s *State) nextAvailableLot() *Lot {
	for _, id := range s.LotOrder {
		if lot := s.Lots[id]; lot != nil && lot.Status == LotAvailable {
			return lot
		}
	}
	return nil
}

func (s *State) availableCount() int {
	n := 0
	for _, lot := range s.Lots {
		if lot.Status == LotAvailable {
			n++
		}
	}
	return n
}

func (s *State) appendLog(now time.Time, kind, message string) {
	s.Log = append(s.Log, LogEntry{At: now, Kind: kind, Message: message})
}

// RecentLog returns the newest n log entries, oldest first.
func (s *State) RecentLog(n int) []LogEntry {
	if len(s.Log) <= n {
		return s.Log
	}
	return s.Log[len(s.Log)-n:]
}

func (s *State) computeSummary() *Summary {
	sum := &Summary{
		TotalLots:  len(s.Lots),
		TotalTeams: len(s.Teams),
		TeamSpend:  make(map[string]int64, len(s.Teams)),
	}
	for _, lot := range s.Lots {
		switch lot.Status {
		case LotSold:
			sum.Sold++
			sum.TeamSpend[lot.SoldTo] += lot.SoldPrice
		case LotUnsold:
			sum.Unsold++
		case LotWithdrawn:
			sum.Withdrawn++
		}
	}
	for id := range s.Teams {
		if _, ok := sum.TeamSpend[id]; !ok {
			sum.TeamSpend[id] = 0
		}
	}
	return sum
}

// shuffleOrder is swapped out in tests for a deterministic permutation.
var shuffleOrder = func(n int) []int { return rand.Perm(n) }
