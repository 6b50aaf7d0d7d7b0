package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/kv"
)

// failingKV wraps the memory store and fails writes on demand.
type failingKV struct {
	*kv.Memory
	failSet bool
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func newTestStore(t *testing.T) (*Store, *failingKV, *clockwork.FakeClock) {
	t.Helper()
	fakeClock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC))
	backing := &failingKV{Memory: kv.NewMemory()}
	return New(backing, "hotaru", fakeClock), backing, fakeClock
}

func TestStore_DefaultInitializesNewTenant(t *testing.T) {
	store, _, _ := newTestStore(t)

	err := store.View(context.Background(), "guild-1", func(s *domain.TenantState) error {
		assert.Equal(t, "2025-W10", s.Ledger.PeriodKey)
		assert.Empty(t, s.Candidates)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_UpdatePersistsWriteThrough(t *testing.T) {
	ctx := context.Background()
	store, backing, _ := newTestStore(t)

	err := store.Update(ctx, "guild-1", func(s *domain.TenantState) error {
		s.Ledger.Points["miyazaki"] = 3
		return nil
	})
	require.NoError(t, err)

	payload, ok, err := backing.Get(ctx, "hotaru_guild-1")
	require.NoError(t, err)
	require.True(t, ok)

	var persisted domain.TenantState
	require.NoError(t, json.Unmarshal(payload, &persisted))
	assert.Equal(t, 3, persisted.Ledger.Points["miyazaki"])
}

func TestStore_FailedPersistLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	store, backing, _ := newTestStore(t)

	require.NoError(t, store.Update(ctx, "guild-1", func(s *domain.TenantState) error {
		s.Ledger.Points["miyazaki"] = 3
		return nil
	}))

	backing.failSet = true
	err := store.Update(ctx, "guild-1", func(s *domain.TenantState) error {
		s.Ledger.Points["miyazaki"] = 99
		return nil
	})
	require.Error(t, err)

	err = store.View(ctx, "guild-1", func(s *domain.TenantState) error {
		assert.Equal(t, 3, s.Ledger.Points["miyazaki"])
		return nil
	})
	require.NoError(t, err)
}

func TestStore_UpdateFnErrorIsAtomic(t *testing.T) {
	ctx := context.Background()
	store, backing, _ := newTestStore(t)

	sentinel := errors.New("validation failed")
	err := store.Update(ctx, "guild-1", func(s *domain.TenantState) error {
		s.Ledger.Points["miyazaki"] = 42
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// Nothing persisted, nothing cached.
	_, ok, err := backing.Get(ctx, "hotaru_guild-1")
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.View(ctx, "guild-1", func(s *domain.TenantState) error {
		assert.Empty(t, s.Ledger.Points)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_LoadsPersistedState(t *testing.T) {
	ctx := context.Background()
	fakeClock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC))
	backing := kv.NewMemory()

	first := New(backing, "hotaru", fakeClock)
	require.NoError(t, first.Update(ctx, "guild-1", func(s *domain.TenantState) error {
		s.PublishChannelID = "chan-42"
		return nil
	}))

	// Fresh store over the same backing simulates a restart.
	second := New(backing, "hotaru", fakeClock)
	err := second.View(ctx, "guild-1", func(s *domain.TenantState) error {
		assert.Equal(t, "chan-42", s.PublishChannelID)
		assert.NotNil(t, s.Candidates)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_TenantsUnionOfCacheAndPersistence(t *testing.T) {
	ctx := context.Background()
	fakeClock := clockwork.NewFakeClock()
	backing := kv.NewMemory()
	require.NoError(t, backing.Set(ctx, "hotaru_persisted-only", []byte(`{}`)))

	store := New(backing, "hotaru", fakeClock)
	require.NoError(t, store.View(ctx, "cached-only", func(*domain.TenantState) error { return nil }))

	tenants, err := store.Tenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cached-only", "persisted-only"}, tenants)
}

func TestStore_Drop(t *testing.T) {
	ctx := context.Background()
	store, backing, _ := newTestStore(t)

	require.NoError(t, store.Update(ctx, "guild-1", func(s *domain.TenantState) error {
		s.PublishChannelID = "chan"
		return nil
	}))
	require.NoError(t, store.Drop(ctx, "guild-1"))

	_, ok, err := backing.Get(ctx, "hotaru_guild-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Next access default-initializes again.
	err = store.View(ctx, "guild-1", func(s *domain.TenantState) error {
		assert.Empty(t, s.PublishChannelID)
		return nil
	})
	require.NoError(t, err)
}
