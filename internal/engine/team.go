package engine

type SeatStatus string

const (
	SeatInvited  SeatStatus = "Invited"
	SeatActive   SeatStatus = "Active"
	SeatDisabled SeatStatus = "Disabled"
)

type SeatMode string

const (
	SeatModeSingle SeatMode = "single"
	SeatModeQuorum SeatMode = "quorum"
)

// Seat is a bidding identity within a team. Seats never own budget; the
// team does.
type Seat struct {
	ID      string     `json:"id"`
	Label   string     `json:"label"`
	IsVoter bool       `json:"is_voter"`
	IsLead  bool       `json:"is_lead"`
	Status  SeatStatus `json:"status"`
}

type SeatPolicy struct {
	Mode               SeatMode `json:"mode"`
	VotersRequired     int      `json:"voters_required"`
	AllowDynamicQuorum bool     `json:"allow_dynamic_quorum"`
	AllowLeadOverride  bool     `json:"allow_lead_override"`
	AutoResetOnBid     bool     `json:"auto_reset_on_bid"`
}

func DefaultSeatPolicy() SeatPolicy {
	return SeatPolicy{
		Mode:               SeatModeSingle,
		VotersRequired:     1,
		AllowDynamicQuorum: true,
		AllowLeadOverride:  true,
		AutoResetOnBid:     true,
	}
}

type Team struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Budget            int64      `json:"budget"`
	CurrentBalance    int64      `json:"current_balance"`
	PurchasedLots     []string   `json:"purchased_lots"`
	MinimumRosterSize int        `json:"minimum_roster_size"`
	Seats             []Seat     `json:"seats,omitempty"`
	Policy            SeatPolicy `json:"seat_policy"`
}

func (t *Team) Seat(seatID string) (Seat, bool) {
	for _, s := range t.Seats {
		if s.ID == seatID {
			return s, true
		}
	}
	return Seat{}, false
}

// ActiveVoterCount is the number of seats eligible to count toward a
// quorum right now. Disabled and invited-but-never-activated seats do
// not count.
func (t *Team) ActiveVoterCount() int {
	n := 0
	for _, s := range t.Seats {
		if s.IsVoter && s.Status == SeatActive {
			n++
		}
	}
	return n
}

// VotersRequired resolves the policy's declared quorum against the
// seats that can actually vote. With AllowDynamicQuorum the declared
// number is clamped so a team with absent seats is not deadlocked.
func (t *Team) VotersRequired() int {
	required := t.Policy.VotersRequired
	if required < 1 {
		required = 1
	}
	if t.Policy.AllowDynamicQuorum {
		if eligible := t.ActiveVoterCount(); eligible > 0 && required > eligible {
			required = eligible
		}
	}
	return required
}
