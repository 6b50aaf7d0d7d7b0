// Package ranking computes competition-style leaderboards from point totals.
package ranking

import (
	"sort"

	"github.com/yannouuuu/hotaru/internal/domain"
)

// Rank turns a point-total mapping into an ordered leaderboard. Non-positive
// totals are dropped. Tied scores share a rank and the next distinct score
// resumes at its positional index, so [10, 10, 5] ranks as [1, 1, 3].
func Rank(totals map[string]int) []domain.Standing {
	standings := make([]domain.Standing, 0, len(totals))
	for id, pts := range totals {
		if pts <= 0 {
			continue
		}
		standings = append(standings, domain.Standing{CandidateID: id, Points: pts})
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].CandidateID < standings[j].CandidateID
	})

	for i := range standings {
		if i > 0 && standings[i].Points == standings[i-1].Points {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
	return standings
}
