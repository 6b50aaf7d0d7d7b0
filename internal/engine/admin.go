package engine

import (
	"context"
	"fmt"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/period"
	"github.com/yannouuuu/hotaru/internal/store"
)

// AddCandidateRequest carries the profile fields for a new candidate.
type AddCandidateRequest struct {
	Name      string
	Bio       string
	Quote     string
	Glyph     string
	CreatedBy string
}

// Reset scopes.
const (
	ScopeWeek  = "week"
	ScopeMonth = "month"
	ScopeYear  = "year"
	ScopeAll   = "all"
)

// AddCandidate registers a scored subject. The identifier derives from the
// name; re-adding an inactive identifier recreates a fresh active profile
// that keeps its historical statistics.
func (e *Engine) AddCandidate(ctx context.Context, tenantID string, req AddCandidateRequest) (*domain.Candidate, error) {
	id, err := domain.CandidateID(req.Name)
	if err != nil {
		return nil, err
	}

	var result *domain.Candidate
	err = e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		e.ensureCurrentPeriod(state, e.clock.Now())

		existing, ok := state.Candidates[id]
		if ok && existing.Active {
			return fmt.Errorf("%w: %s", domain.ErrCandidateExists, id)
		}
		if ok {
			// Fresh profile under the same identifier, statistics retained.
			existing.Name = req.Name
			existing.Bio = req.Bio
			existing.Quote = req.Quote
			existing.Glyph = req.Glyph
			existing.CreatedBy = req.CreatedBy
			existing.CreatedAt = e.clock.Now()
			existing.Active = true
			result = existing.Clone()
			return nil
		}

		candidate := domain.NewCandidate(id, req.Name, req.CreatedBy, e.clock.Now())
		candidate.Bio = req.Bio
		candidate.Quote = req.Quote
		candidate.Glyph = req.Glyph
		state.Candidates[id] = candidate
		result = candidate.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeactivateCandidate soft-deletes a candidate. History and accumulated
// statistics are retained.
func (e *Engine) DeactivateCandidate(ctx context.Context, tenantID, candidateID string) (*domain.Candidate, error) {
	var result *domain.Candidate
	err := e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		candidate, ok := state.Candidates[candidateID]
		if !ok || !candidate.Active {
			return fmt.Errorf("%w: %s", domain.ErrCandidateNotFound, candidateID)
		}
		candidate.Active = false
		result = candidate.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reset clears scoring state. Scope week drops the live ledger; month and
// year zero the current month/year accumulator on every candidate; all
// clears ledger, archives, voter statistics, and every accumulator while
// keeping candidate identities.
func (e *Engine) Reset(ctx context.Context, tenantID, scope string) error {
	return e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		now := e.clock.Now()
		switch scope {
		case ScopeWeek:
			state.Ledger = domain.NewLedger(period.WeekKey(now))
		case ScopeMonth:
			monthKey := period.MonthKey(now)
			for _, c := range state.Candidates {
				delete(c.MonthlyPoints, monthKey)
			}
		case ScopeYear:
			yearKey := period.YearKey(now)
			for _, c := range state.Candidates {
				delete(c.AnnualPoints, yearKey)
			}
		case ScopeAll:
			state.Ledger = domain.NewLedger(period.WeekKey(now))
			state.Archives = make(map[string]domain.ArchiveEntry)
			state.Voters = make(map[string]*domain.VoterStats)
			for _, c := range state.Candidates {
				c.TotalPoints = 0
				c.MonthlyPoints = make(map[string]int)
				c.AnnualPoints = make(map[string]int)
				c.BestWeekPoints = 0
				c.BestWeekKey = ""
			}
		default:
			return fmt.Errorf("%w: %q", domain.ErrUnknownResetScope, scope)
		}
		return nil
	})
}

// SetPublishTarget stores the channel archives are announced to.
func (e *Engine) SetPublishTarget(ctx context.Context, tenantID, channelID string) error {
	return e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		if state.PublishChannelID == channelID {
			return store.ErrNoChange
		}
		state.PublishChannelID = channelID
		return nil
	})
}

// ClearPublishTarget removes the publication target.
func (e *Engine) ClearPublishTarget(ctx context.Context, tenantID string) error {
	return e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		if state.PublishChannelID == "" {
			return store.ErrNoChange
		}
		state.PublishChannelID = ""
		return nil
	})
}

// SetPanel stores the live leaderboard panel reference.
func (e *Engine) SetPanel(ctx context.Context, tenantID string, panel domain.PanelRef) error {
	return e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		p := panel
		state.Panel = &p
		return nil
	})
}

// ClearPanel removes the live panel reference.
func (e *Engine) ClearPanel(ctx context.Context, tenantID string) error {
	return e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		if state.Panel == nil {
			return store.ErrNoChange
		}
		state.Panel = nil
		return nil
	})
}
