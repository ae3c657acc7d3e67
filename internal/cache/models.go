package cache

import (
	"context"
	"time"
)

// DefaultMaxAge is how old sync metadata may get before a refetch is signaled.
const DefaultMaxAge = 60 * time.Second

// Entry is the per-tenant sync metadata. It never holds row content.
//
// Invariant: at most one Entry per tenant.
type Entry struct {
	TenantID     string    `json:"tenant_id"`
	LastSyncedAt time.Time `json:"last_synced_at"`
	LastRowCount int       `json:"last_row_count"`

	// Invalidated forces the next ShouldRefetch to return true.
	// It is cleared by the next RecordSync.
	Invalidated bool `json:"invalidated"`
}

// Stale reports whether e requires a refetch at now.
func (e Entry) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if e.Invalidated || e.LastSyncedAt.IsZero() {
		return true
	}
	return now.Sub(e.LastSyncedAt) > maxAge
}

// Store is the staleness cache contract.
//
// Implementations must isolate tenants from each other: operations on one tenant's
// entry never block on or observe another tenant's entry.
type Store interface {
	// ShouldRefetch is true when no entry exists, the entry was invalidated,
	// or the entry is older than maxAge.
	ShouldRefetch(ctx context.Context, tenantID string, maxAge time.Duration) (bool, error)

	// RecordSync upserts LastSyncedAt=now and LastRowCount=rowCount and clears invalidation.
	RecordSync(ctx context.Context, tenantID string, rowCount int) (Entry, error)

	// Invalidate marks an existing entry stale without deleting it.
	// It reports whether an entry existed; a missing entry is already stale.
	Invalidate(ctx context.Context, tenantID string) (bool, error)

	Get(ctx context.Context, tenantID string) (Entry, bool, error)

	// Delete removes the entry. Only used on tenant deprovisioning.
	Delete(ctx context.Context, tenantID string) error
}
