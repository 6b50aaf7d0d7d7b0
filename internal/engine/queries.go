package engine

import (
	"context"
	"sort"
	"time"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/period"
	"github.com/yannouuuu/hotaru/internal/ranking"
	"github.com/yannouuuu/hotaru/internal/store"
)

const defaultHistoryLimit = 10

// CandidateScore is one row of a monthly or annual leaderboard. Ranks are
// not assigned at this layer; callers may re-rank the sorted list.
type CandidateScore struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Points      int    `json:"points"`
}

// HistoryItem is one archived appearance of a candidate.
type HistoryItem struct {
	PeriodKey  string    `json:"period_key"`
	Points     int       `json:"points"`
	Rank       int       `json:"rank"`
	ArchivedAt time.Time `json:"archived_at"`
}

// VoterRank is one row of the top-voters listing.
type VoterRank struct {
	VoterID    string    `json:"voter_id"`
	TotalVotes int       `json:"total_votes"`
	LastVoteAt time.Time `json:"last_vote_at"`
}

// CurrentStandings returns the live period's leaderboard, rotating the
// ledger forward first if it went stale past a period boundary. This is the
// only query with a (visible, named) side effect.
func (e *Engine) CurrentStandings(ctx context.Context, tenantID string) (string, []domain.Standing, error) {
	var (
		periodKey string
		standings []domain.Standing
	)
	err := e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		changed := e.ensureCurrentPeriod(state, e.clock.Now())
		periodKey = state.Ledger.PeriodKey
		standings = ranking.Rank(state.Ledger.Points)
		if !changed {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return periodKey, standings, nil
}

// MonthlyLeaderboard lists candidates that are active or scored in the given
// month, sorted by that month's points descending.
func (e *Engine) MonthlyLeaderboard(ctx context.Context, tenantID, monthKey string) ([]CandidateScore, error) {
	return e.accumulatorLeaderboard(ctx, tenantID, func(c *domain.Candidate) int {
		return c.MonthlyPoints[monthKey]
	})
}

// AnnualLeaderboard lists candidates that are active or scored in the given
// year, sorted by that year's points descending.
func (e *Engine) AnnualLeaderboard(ctx context.Context, tenantID, yearKey string) ([]CandidateScore, error) {
	return e.accumulatorLeaderboard(ctx, tenantID, func(c *domain.Candidate) int {
		return c.AnnualPoints[yearKey]
	})
}

func (e *Engine) accumulatorLeaderboard(ctx context.Context, tenantID string, points func(*domain.Candidate) int) ([]CandidateScore, error) {
	var scores []CandidateScore
	err := e.store.View(ctx, tenantID, func(state *domain.TenantState) error {
		for _, c := range state.Candidates {
			pts := points(c)
			if !c.Active && pts == 0 {
				continue
			}
			scores = append(scores, CandidateScore{CandidateID: c.ID, Name: c.Name, Points: pts})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Points != scores[j].Points {
			return scores[i].Points > scores[j].Points
		}
		return scores[i].CandidateID < scores[j].CandidateID
	})
	return scores, nil
}

// CandidateHistory returns the candidate's archived appearances, most recent
// period first, bounded by limit (default 10). Deactivated candidates keep
// their history.
func (e *Engine) CandidateHistory(ctx context.Context, tenantID, candidateID string, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var items []HistoryItem
	err := e.store.View(ctx, tenantID, func(state *domain.TenantState) error {
		for key, entry := range state.Archives {
			pts, ok := entry.Totals[candidateID]
			if !ok || pts <= 0 {
				continue
			}
			item := HistoryItem{PeriodKey: key, Points: pts, ArchivedAt: entry.ArchivedAt}
			for _, standing := range entry.Standings {
				if standing.CandidateID == candidateID {
					item.Rank = standing.Rank
					break
				}
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return period.CompareWeekKeys(items[i].PeriodKey, items[j].PeriodKey) > 0
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// TopVoters returns the most active voters by lifetime vote count.
func (e *Engine) TopVoters(ctx context.Context, tenantID string, limit int) ([]VoterRank, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var voters []VoterRank
	err := e.store.View(ctx, tenantID, func(state *domain.TenantState) error {
		for id, stats := range state.Voters {
			voters = append(voters, VoterRank{VoterID: id, TotalVotes: stats.TotalVotes, LastVoteAt: stats.LastVoteAt})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(voters, func(i, j int) bool {
		if voters[i].TotalVotes != voters[j].TotalVotes {
			return voters[i].TotalVotes > voters[j].TotalVotes
		}
		return voters[i].VoterID < voters[j].VoterID
	})
	if len(voters) > limit {
		voters = voters[:limit]
	}
	return voters, nil
}

// GetArchive returns one archived period, or nil when that period has no
// entry. Absence is normal flow, not an error.
func (e *Engine) GetArchive(ctx context.Context, tenantID, periodKey string) (*domain.ArchiveEntry, error) {
	var entry *domain.ArchiveEntry
	err := e.store.View(ctx, tenantID, func(state *domain.TenantState) error {
		if found, ok := state.Archives[periodKey]; ok {
			cp := found.Clone()
			entry = &cp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListCandidates returns candidate profiles sorted by name. Inactive
// profiles are included only when requested.
func (e *Engine) ListCandidates(ctx context.Context, tenantID string, includeInactive bool) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	err := e.store.View(ctx, tenantID, func(state *domain.TenantState) error {
		for _, c := range state.Candidates {
			if !c.Active && !includeInactive {
				continue
			}
			candidates = append(candidates, *c.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})
	return candidates, nil
}
