package domain

import "time"

// Ballot is one voter's recorded ranked vote for a single period.
type Ballot struct {
	Picks   []string  `json:"picks"`
	Weights []int     `json:"weights"`
	CastAt  time.Time `json:"cast_at"`
}

// Ledger accumulates votes for the current scoring period of one tenant.
// Each voter appears at most once per period key.
type Ledger struct {
	PeriodKey  string            `json:"period_key"`
	Points     map[string]int    `json:"points"`
	Ballots    map[string]Ballot `json:"ballots"`
	VoteCounts map[string]int    `json:"vote_counts"`
}

// NewLedger returns an empty ledger stamped with the given period key.
func NewLedger(periodKey string) Ledger {
	return Ledger{
		PeriodKey:  periodKey,
		Points:     make(map[string]int),
		Ballots:    make(map[string]Ballot),
		VoteCounts: make(map[string]int),
	}
}

// Clone returns a deep copy.
func (l Ledger) Clone() Ledger {
	cp := NewLedger(l.PeriodKey)
	for k, v := range l.Points {
		cp.Points[k] = v
	}
	for k, v := range l.VoteCounts {
		cp.VoteCounts[k] = v
	}
	for k, b := range l.Ballots {
		bc := b
		bc.Picks = append([]string(nil), b.Picks...)
		bc.Weights = append([]int(nil), b.Weights...)
		cp.Ballots[k] = bc
	}
	return cp
}

// HasPositiveTotals reports whether any candidate scored points this period.
func (l Ledger) HasPositiveTotals() bool {
	for _, pts := range l.Points {
		if pts > 0 {
			return true
		}
	}
	return false
}

// Standing is one leaderboard row. Tied scores share a rank and the next
// distinct score resumes at its positional index (competition ranking).
type Standing struct {
	CandidateID string `json:"candidate_id"`
	Points      int    `json:"points"`
	Rank        int    `json:"rank"`
}

// ArchiveEntry is the immutable snapshot of one closed period.
type ArchiveEntry struct {
	PeriodKey  string         `json:"period_key"`
	Totals     map[string]int `json:"totals"`
	Standings  []Standing     `json:"standings"`
	ArchivedAt time.Time      `json:"archived_at"`
}

// Clone returns a deep copy.
func (e ArchiveEntry) Clone() ArchiveEntry {
	cp := e
	cp.Totals = copyIntMap(e.Totals)
	cp.Standings = append([]Standing(nil), e.Standings...)
	return cp
}

// VoterStats tracks one voter's lifetime activity within a tenant.
type VoterStats struct {
	TotalVotes int       `json:"total_votes"`
	LastVoteAt time.Time `json:"last_vote_at"`
}
