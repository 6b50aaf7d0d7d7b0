package engine

import (
	"context"
	"fmt"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/ranking"
)

// voteWeights maps pick position to points: first pick 3, second 2, third 1.
var voteWeights = []int{3, 2, 1}

// SubmitVote records one ranked vote for the current period. Duplicate picks
// are deduplicated keeping the first occurrence; picks beyond the weighted
// positions are ignored. The whole submission is atomic: any validation
// failure leaves tenant state untouched. Returns the period key the vote
// landed in and the resulting totals.
func (e *Engine) SubmitVote(ctx context.Context, tenantID, voterID string, picks []string) (string, map[string]int, error) {
	picks = dedupePicks(picks)
	if len(picks) == 0 {
		e.metrics.VotesProcessed.WithLabelValues("rejected").Inc()
		return "", nil, domain.ErrEmptyBallot
	}
	if len(picks) > len(voteWeights) {
		picks = picks[:len(voteWeights)]
	}

	var (
		periodKey string
		totals    map[string]int
		panel     *domain.PanelRef
		standings []domain.Standing
	)
	err := e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		now := e.clock.Now()
		e.ensureCurrentPeriod(state, now)

		if _, voted := state.Ledger.Ballots[voterID]; voted {
			return fmt.Errorf("%w: period %s", domain.ErrAlreadyVoted, state.Ledger.PeriodKey)
		}
		for _, id := range picks {
			candidate, ok := state.Candidates[id]
			if !ok || !candidate.Active {
				return fmt.Errorf("%w: %s", domain.ErrCandidateNotFound, id)
			}
		}

		weights := make([]int, len(picks))
		for i, id := range picks {
			weights[i] = voteWeights[i]
			state.Ledger.Points[id] += voteWeights[i]
		}
		state.Ledger.Ballots[voterID] = domain.Ballot{Picks: picks, Weights: weights, CastAt: now}
		state.Ledger.VoteCounts[voterID]++

		voter, ok := state.Voters[voterID]
		if !ok {
			voter = &domain.VoterStats{}
			state.Voters[voterID] = voter
		}
		voter.TotalVotes++
		voter.LastVoteAt = now

		periodKey = state.Ledger.PeriodKey
		totals = make(map[string]int, len(state.Ledger.Points))
		for id, pts := range state.Ledger.Points {
			totals[id] = pts
		}
		if state.Panel != nil {
			p := *state.Panel
			panel = &p
			standings = ranking.Rank(state.Ledger.Points)
		}
		return nil
	})
	if err != nil {
		e.metrics.VotesProcessed.WithLabelValues("rejected").Inc()
		return "", nil, err
	}

	e.metrics.VotesProcessed.WithLabelValues("accepted").Inc()
	if panel != nil {
		e.refreshPanel(tenantID, *panel, periodKey, standings)
	}
	return periodKey, totals, nil
}

func dedupePicks(picks []string) []string {
	seen := make(map[string]struct{}, len(picks))
	out := picks[:0:0]
	for _, id := range picks {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
