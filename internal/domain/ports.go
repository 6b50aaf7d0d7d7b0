package domain

import "context"

// KVStore is the persistence collaborator contract: an opaque durable
// key-value store with last-writer-wins semantics per key. The engine never
// performs multi-key transactions.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Publisher is the presentation collaborator. Calls are best-effort: the
// engine never lets a publish failure affect committed state.
type Publisher interface {
	PublishArchive(ctx context.Context, tenantID, channelID string, entry ArchiveEntry) error
	RefreshPanel(ctx context.Context, tenantID string, panel PanelRef, periodKey string, standings []Standing) error
}
