// Package engine implements the voting and leaderboard core: vote
// recording, period rotation, archival, and the read-only query surface.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/metrics"
	"github.com/yannouuuu/hotaru/internal/period"
	"github.com/yannouuuu/hotaru/internal/ranking"
	"github.com/yannouuuu/hotaru/internal/store"
)

const publishTimeout = 10 * time.Second

// Engine orchestrates all tenant state mutations through the store. One
// instance serves every tenant; the store serializes per-tenant access.
type Engine struct {
	store     *store.Store
	clock     clockwork.Clock
	publisher domain.Publisher
	metrics   *metrics.Metrics
}

// New creates the engine. publisher may be nil, in which case best-effort
// publication is skipped entirely.
func New(st *store.Store, clock clockwork.Clock, publisher domain.Publisher, m *metrics.Metrics) *Engine {
	return &Engine{store: st, clock: clock, publisher: publisher, metrics: m}
}

// ensureCurrentPeriod rotates the ledger forward when its stored key is
// chronologically behind "now" and refreshes the period bookkeeping. A key
// ahead of "now" is left alone (post-archive grace window). Reports whether
// the aggregate changed.
func (e *Engine) ensureCurrentPeriod(state *domain.TenantState, now time.Time) bool {
	weekKey := period.WeekKey(now)
	monthKey := period.MonthKey(now)
	yearKey := period.YearKey(now)

	changed := false
	if period.CompareWeekKeys(state.Ledger.PeriodKey, weekKey) < 0 {
		state.Ledger = domain.NewLedger(weekKey)
		e.metrics.RotationsTotal.Inc()
		changed = true
	}
	if state.LastWeekKey != weekKey || state.LastMonthKey != monthKey || state.LastYearKey != yearKey {
		state.LastWeekKey = weekKey
		state.LastMonthKey = monthKey
		state.LastYearKey = yearKey
		changed = true
	}
	return changed
}

// EnsureCurrentPeriod applies lazy rotation for one tenant and returns the
// resulting ledger period key. Idempotent.
func (e *Engine) EnsureCurrentPeriod(ctx context.Context, tenantID string) (string, error) {
	var key string
	err := e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		changed := e.ensureCurrentPeriod(state, e.clock.Now())
		key = state.Ledger.PeriodKey
		if !changed {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Rotate replaces the current ledger with an empty one stamped with
// newPeriodKey. A no-op when the ledger already carries that key, unless
// force is set.
func (e *Engine) Rotate(ctx context.Context, tenantID, newPeriodKey string, force bool) error {
	return e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		if state.Ledger.PeriodKey == newPeriodKey && !force {
			return store.ErrNoChange
		}
		state.Ledger = domain.NewLedger(newPeriodKey)
		e.metrics.RotationsTotal.Inc()
		return nil
	})
}

// Archive closes out the current period: it freezes the leaderboard into an
// immutable archive entry, folds the totals into each candidate's lifetime,
// monthly, and annual accumulators, and opens the next period. It refuses to
// act when the ledger's key no longer matches the live period key, which
// makes repeated maintenance ticks safe. Returns nil when nothing was
// archived (stale ledger, or no positive totals).
func (e *Engine) Archive(ctx context.Context, tenantID string) (*domain.ArchiveEntry, error) {
	var (
		entry     *domain.ArchiveEntry
		channelID string
	)
	err := e.store.Update(ctx, tenantID, func(state *domain.TenantState) error {
		now := e.clock.Now()
		liveKey := period.WeekKey(now)

		// A concurrent path already rotated this period away.
		if state.Ledger.PeriodKey != liveKey {
			return store.ErrNoChange
		}

		nextKey := period.NextWeekKey(now)
		if !state.Ledger.HasPositiveTotals() {
			state.Ledger = domain.NewLedger(nextKey)
			e.metrics.RotationsTotal.Inc()
			return nil
		}

		frozen := domain.ArchiveEntry{
			PeriodKey:  liveKey,
			Totals:     make(map[string]int, len(state.Ledger.Points)),
			Standings:  ranking.Rank(state.Ledger.Points),
			ArchivedAt: now,
		}
		for id, pts := range state.Ledger.Points {
			frozen.Totals[id] = pts
		}
		state.Archives[liveKey] = frozen

		monthKey := period.MonthKey(now)
		yearKey := period.YearKey(now)
		for id, pts := range frozen.Totals {
			if pts <= 0 {
				continue
			}
			candidate, ok := state.Candidates[id]
			if !ok {
				continue
			}
			candidate.TotalPoints += pts
			candidate.MonthlyPoints[monthKey] += pts
			candidate.AnnualPoints[yearKey] += pts
			if pts > candidate.BestWeekPoints {
				candidate.BestWeekPoints = pts
				candidate.BestWeekKey = liveKey
			}
		}

		state.Ledger = domain.NewLedger(nextKey)
		state.LastWeekKey = liveKey
		state.LastMonthKey = monthKey
		state.LastYearKey = yearKey

		entry = &frozen
		channelID = state.PublishChannelID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		e.metrics.ArchivesTotal.Inc()
		e.publishArchive(tenantID, channelID, *entry)
	}
	return entry, nil
}

// publishArchive notifies the publication target in the background. Failures
// only surface in logs, never in engine state.
func (e *Engine) publishArchive(tenantID, channelID string, entry domain.ArchiveEntry) {
	if e.publisher == nil || channelID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := e.publisher.PublishArchive(ctx, tenantID, channelID, entry); err != nil {
			e.metrics.PublishFailures.Inc()
			slog.Warn("Archive publication failed", "tenant", tenantID, "period", entry.PeriodKey, "error", err)
		}
	}()
}

// refreshPanel updates the live leaderboard panel in the background.
func (e *Engine) refreshPanel(tenantID string, panel domain.PanelRef, periodKey string, standings []domain.Standing) {
	if e.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := e.publisher.RefreshPanel(ctx, tenantID, panel, periodKey, standings); err != nil {
			e.metrics.PublishFailures.Inc()
			slog.Warn("Panel refresh failed", "tenant", tenantID, "error", err)
		}
	}()
}
