// Package sweeper runs the unattended maintenance loop: for every known
// tenant it keeps the current period fresh and triggers archival when the
// close-of-period window is reached.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yannouuuu/hotaru/internal/correlation"
	"github.com/yannouuuu/hotaru/internal/engine"
	"github.com/yannouuuu/hotaru/internal/metrics"
	"github.com/yannouuuu/hotaru/internal/period"
	"github.com/yannouuuu/hotaru/internal/store"
)

// Config controls the sweep cadence and the close-of-period window. The
// window is a global rule, not per-tenant: "Sunday evening UTC" is a coarse
// proxy for "once per week at the period boundary".
type Config struct {
	Interval     time.Duration
	CloseWeekday time.Weekday
	CloseHourUTC int
}

// Sweeper walks all tenants on a fixed interval. Every pass is idempotent:
// rotation is a no-op on a fresh ledger and Archive refuses to act once the
// period has rotated away.
type Sweeper struct {
	engine  *engine.Engine
	store   *store.Store
	clock   clockwork.Clock
	cfg     Config
	metrics *metrics.Metrics
	stopCh  chan struct{}
}

func New(eng *engine.Engine, st *store.Store, clock clockwork.Clock, cfg Config, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		engine:  eng,
		store:   st,
		clock:   clock,
		cfg:     cfg,
		metrics: m,
		stopCh:  make(chan struct{}),
	}
}

// Run blocks until Stop is called or ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.Info("Maintenance sweeper started", "interval", s.cfg.Interval,
		"close_weekday", s.cfg.CloseWeekday.String(), "close_hour_utc", s.cfg.CloseHourUTC)

	for {
		select {
		case <-ticker.Chan():
			s.Sweep(ctx)
		case <-s.stopCh:
			slog.Info("Maintenance sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("Maintenance sweeper context cancelled")
			return
		}
	}
}

// Stop terminates the loop.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

// Sweep runs one full maintenance pass over all known tenants. A failure in
// one tenant's pass never aborts the sweep for the others.
func (s *Sweeper) Sweep(ctx context.Context) {
	started := s.clock.Now()

	tenants, err := s.store.Tenants(ctx)
	if err != nil {
		s.metrics.SweepErrors.Inc()
		slog.Error("Sweep: listing tenants failed", "error", err)
		return
	}
	s.metrics.TenantsTracked.Set(float64(len(tenants)))

	for _, tenantID := range tenants {
		tenantCtx := correlation.WithID(ctx, correlation.NewID())
		s.sweepTenant(tenantCtx, tenantID)
	}

	s.metrics.SweepDuration.Observe(s.clock.Since(started).Seconds())
}

func (s *Sweeper) sweepTenant(ctx context.Context, tenantID string) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.SweepErrors.Inc()
			slog.Error("Sweep: tenant pass panicked", "tenant", tenantID, "panic", r)
		}
	}()

	ledgerKey, err := s.engine.EnsureCurrentPeriod(ctx, tenantID)
	if err != nil {
		s.metrics.SweepErrors.Inc()
		slog.Error("Sweep: period refresh failed", "tenant", tenantID, "error", err)
		return
	}

	now := s.clock.Now().UTC()
	if !s.inCloseWindow(now) || ledgerKey != period.WeekKey(now) {
		return
	}

	entry, err := s.engine.Archive(ctx, tenantID)
	if err != nil {
		s.metrics.SweepErrors.Inc()
		slog.Error("Sweep: archive failed", "tenant", tenantID, "error", err)
		return
	}
	if entry != nil {
		slog.Info("Sweep: period archived", "tenant", tenantID, "period", entry.PeriodKey, "candidates", len(entry.Standings))
	}
}

func (s *Sweeper) inCloseWindow(now time.Time) bool {
	return now.Weekday() == s.cfg.CloseWeekday && now.Hour() == s.cfg.CloseHourUTC
}
