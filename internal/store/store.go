// Package store caches tenant aggregates in memory and write-through
// persists them to a key-value collaborator, one key per tenant.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/period"
)

// ErrNoChange can be returned from an Update closure to signal that the
// aggregate was not modified: the update succeeds without persisting.
var ErrNoChange = errors.New("no change")

type tenantEntry struct {
	mu    sync.Mutex
	state *domain.TenantState
}

// Store serializes all operations per tenant: each Update holds that
// tenant's mutex for the whole logical operation, mutates a deep clone, and
// swaps it into the cache only after a successful persist. A failed persist
// therefore leaves the cached state exactly as it was.
type Store struct {
	kv        domain.KVStore
	namespace string
	clock     clockwork.Clock

	mu      sync.Mutex
	tenants map[string]*tenantEntry
	loads   singleflight.Group
}

func New(kv domain.KVStore, namespace string, clock clockwork.Clock) *Store {
	return &Store{
		kv:        kv,
		namespace: namespace,
		clock:     clock,
		tenants:   make(map[string]*tenantEntry),
	}
}

func (s *Store) key(tenantID string) string {
	return s.namespace + "_" + tenantID
}

// Update runs fn against a clone of the tenant's aggregate, persists the
// clone, and swaps it into the cache. If fn or the persist fails, neither
// cache nor persistence change.
func (s *Store) Update(ctx context.Context, tenantID string, fn func(*domain.TenantState) error) error {
	entry, err := s.entry(ctx, tenantID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	next := entry.state.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal tenant %s: %w", tenantID, err)
	}
	if err := s.kv.Set(ctx, s.key(tenantID), payload); err != nil {
		return fmt.Errorf("persist tenant %s: %w", tenantID, err)
	}

	entry.state = next
	return nil
}

// View runs fn against the cached aggregate without persisting. fn must not
// mutate the state; operations that may rotate the period go through Update.
func (s *Store) View(ctx context.Context, tenantID string, fn func(*domain.TenantState) error) error {
	entry, err := s.entry(ctx, tenantID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.state)
}

// Drop removes a tenant from cache and persistence.
func (s *Store) Drop(ctx context.Context, tenantID string) error {
	if err := s.kv.Delete(ctx, s.key(tenantID)); err != nil {
		return fmt.Errorf("delete tenant %s: %w", tenantID, err)
	}
	s.mu.Lock()
	delete(s.tenants, tenantID)
	s.mu.Unlock()
	return nil
}

// Tenants returns every known tenant id: the union of the cache and the
// persisted keyspace.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	s.mu.Lock()
	for id := range s.tenants {
		seen[id] = struct{}{}
	}
	s.mu.Unlock()

	keys, err := s.kv.List(ctx, s.namespace+"_")
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	for _, key := range keys {
		seen[strings.TrimPrefix(key, s.namespace+"_")] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// entry returns the cached entry for a tenant, loading it on first access.
// Concurrent cold loads for the same tenant collapse into one.
func (s *Store) entry(ctx context.Context, tenantID string) (*tenantEntry, error) {
	s.mu.Lock()
	if entry, ok := s.tenants[tenantID]; ok {
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	result, err, _ := s.loads.Do(tenantID, func() (any, error) {
		state, err := s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if entry, ok := s.tenants[tenantID]; ok {
			return entry, nil
		}
		entry := &tenantEntry{state: state}
		s.tenants[tenantID] = entry
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*tenantEntry), nil
}

func (s *Store) load(ctx context.Context, tenantID string) (*domain.TenantState, error) {
	payload, ok, err := s.kv.Get(ctx, s.key(tenantID))
	if err != nil {
		return nil, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	if !ok {
		return domain.NewTenantState(period.WeekKey(s.clock.Now())), nil
	}

	var state domain.TenantState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode tenant %s: %w", tenantID, err)
	}
	state.Normalize()
	return &state, nil
}
