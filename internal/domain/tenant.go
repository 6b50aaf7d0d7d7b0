package domain

// PanelRef points at a live leaderboard panel maintained by the
// presentation collaborator (an opaque channel/message pair).
type PanelRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id,omitempty"`
}

// TenantState is the root aggregate persisted per tenant. All mutations go
// through the store, which clones, applies, persists, then swaps the cache.
type TenantState struct {
	Candidates map[string]*Candidate   `json:"candidates"`
	Ledger     Ledger                  `json:"ledger"`
	Archives   map[string]ArchiveEntry `json:"archives"`
	Voters     map[string]*VoterStats  `json:"voters"`

	PublishChannelID string    `json:"publish_channel_id,omitempty"`
	Panel            *PanelRef `json:"panel,omitempty"`

	// Last period keys observed by maintenance, kept for idempotence checks.
	LastWeekKey  string `json:"last_week_key,omitempty"`
	LastMonthKey string `json:"last_month_key,omitempty"`
	LastYearKey  string `json:"last_year_key,omitempty"`
}

// NewTenantState default-initializes an aggregate for a fresh tenant.
func NewTenantState(weekKey string) *TenantState {
	return &TenantState{
		Candidates: make(map[string]*Candidate),
		Ledger:     NewLedger(weekKey),
		Archives:   make(map[string]ArchiveEntry),
		Voters:     make(map[string]*VoterStats),
	}
}

// Normalize replaces nil maps after deserialization so callers never need
// nil checks.
func (s *TenantState) Normalize() {
	if s.Candidates == nil {
		s.Candidates = make(map[string]*Candidate)
	}
	if s.Archives == nil {
		s.Archives = make(map[string]ArchiveEntry)
	}
	if s.Voters == nil {
		s.Voters = make(map[string]*VoterStats)
	}
	if s.Ledger.Points == nil {
		s.Ledger.Points = make(map[string]int)
	}
	if s.Ledger.Ballots == nil {
		s.Ledger.Ballots = make(map[string]Ballot)
	}
	if s.Ledger.VoteCounts == nil {
		s.Ledger.VoteCounts = make(map[string]int)
	}
	for _, c := range s.Candidates {
		if c.MonthlyPoints == nil {
			c.MonthlyPoints = make(map[string]int)
		}
		if c.AnnualPoints == nil {
			c.AnnualPoints = make(map[string]int)
		}
	}
}

// Clone returns a deep copy of the aggregate.
func (s *TenantState) Clone() *TenantState {
	cp := &TenantState{
		Candidates:       make(map[string]*Candidate, len(s.Candidates)),
		Ledger:           s.Ledger.Clone(),
		Archives:         make(map[string]ArchiveEntry, len(s.Archives)),
		Voters:           make(map[string]*VoterStats, len(s.Voters)),
		PublishChannelID: s.PublishChannelID,
		LastWeekKey:      s.LastWeekKey,
		LastMonthKey:     s.LastMonthKey,
		LastYearKey:      s.LastYearKey,
	}
	for id, c := range s.Candidates {
		cp.Candidates[id] = c.Clone()
	}
	for key, e := range s.Archives {
		cp.Archives[key] = e.Clone()
	}
	for id, v := range s.Voters {
		vc := *v
		cp.Voters[id] = &vc
	}
	if s.Panel != nil {
		p := *s.Panel
		cp.Panel = &p
	}
	return cp
}
