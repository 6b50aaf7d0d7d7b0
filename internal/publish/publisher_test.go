package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannouuuu/hotaru/internal/domain"
)

type flakyPublisher struct {
	err   error
	calls int
}

func (f *flakyPublisher) PublishArchive(context.Context, string, string, domain.ArchiveEntry) error {
	f.calls++
	return f.err
}

func (f *flakyPublisher) RefreshPanel(context.Context, string, domain.PanelRef, string, []domain.Standing) error {
	f.calls++
	return f.err
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	inner := &flakyPublisher{}
	b := NewBreaker(inner)

	err := b.PublishArchive(context.Background(), "guild-1", "chan", domain.ArchiveEntry{PeriodKey: "2025-W10"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyPublisher{err: errors.New("gateway down")}
	b := NewBreaker(inner)

	for i := 0; i < 5; i++ {
		err := b.RefreshPanel(context.Background(), "guild-1", domain.PanelRef{ChannelID: "chan"}, "2025-W10", nil)
		require.Error(t, err)
	}
	assert.Equal(t, 5, inner.calls)

	// Open breaker short-circuits without reaching the inner publisher.
	err := b.PublishArchive(context.Background(), "guild-1", "chan", domain.ArchiveEntry{})
	require.Error(t, err)
	assert.Equal(t, 5, inner.calls)
}
