// Package publish provides presentation collaborators. Publication is
// always best-effort: the engine logs failures and moves on, so nothing in
// this package is allowed to influence engine state.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yannouuuu/hotaru/internal/domain"
)

// LogPublisher renders archive announcements and panel refreshes into the
// structured log. It stands in for a chat-platform sender, which stays
// outside this engine.
type LogPublisher struct{}

var _ domain.Publisher = LogPublisher{}

func (LogPublisher) PublishArchive(ctx context.Context, tenantID, channelID string, entry domain.ArchiveEntry) error {
	slog.InfoContext(ctx, "Archive published",
		"tenant", tenantID, "channel", channelID,
		"period", entry.PeriodKey, "standings", len(entry.Standings))
	return nil
}

func (LogPublisher) RefreshPanel(ctx context.Context, tenantID string, panel domain.PanelRef, periodKey string, standings []domain.Standing) error {
	slog.InfoContext(ctx, "Panel refreshed",
		"tenant", tenantID, "channel", panel.ChannelID, "message", panel.MessageID,
		"period", periodKey, "standings", len(standings))
	return nil
}

// Breaker wraps a Publisher with a circuit breaker so a dead presentation
// backend stops consuming publish goroutines instead of timing each one out.
type Breaker struct {
	inner   domain.Publisher
	breaker *gobreaker.CircuitBreaker
}

var _ domain.Publisher = (*Breaker)(nil)

func NewBreaker(inner domain.Publisher) *Breaker {
	settings := gobreaker.Settings{
		Name:    "publisher",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Publisher circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) PublishArchive(ctx context.Context, tenantID, channelID string, entry domain.ArchiveEntry) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.inner.PublishArchive(ctx, tenantID, channelID, entry)
	})
	if err != nil {
		return fmt.Errorf("publish archive: %w", err)
	}
	return nil
}

func (b *Breaker) RefreshPanel(ctx context.Context, tenantID string, panel domain.PanelRef, periodKey string, standings []domain.Standing) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.inner.RefreshPanel(ctx, tenantID, panel, periodKey, standings)
	})
	if err != nil {
		return fmt.Errorf("refresh panel: %w", err)
	}
	return nil
}
