package cache

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

const defaultShards = 32

var ErrTenantRequired = errors.New("cache: tenant_id required")

// MemoryStore is a process-local Store sharded by tenant hash.
// Each shard has its own lock, so unrelated tenants rarely contend and never
// wait on a global lock.
type MemoryStore struct {
	shards []*shard
	clock  func() time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore(shards int) *MemoryStore {
	if shards <= 0 {
		shards = defaultShards
	}
	s := &MemoryStore{shards: make([]*shard, shards), clock: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{entries: map[string]Entry{}}
	}
	return s
}

// WithClock swaps the time source. Intended for tests.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	s.clock = clock
	return s
}

func (s *MemoryStore) shardFor(tenantID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *MemoryStore) ShouldRefetch(ctx context.Context, tenantID string, maxAge time.Duration) (bool, error) {
	e, ok, err := s.Get(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return e.Stale(s.clock(), maxAge), nil
}

func (s *MemoryStore) RecordSync(ctx context.Context, tenantID string, rowCount int) (Entry, error) {
	if tenantID == "" {
		return Entry{}, ErrTenantRequired
	}
	sh := s.shardFor(tenantID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := Entry{TenantID: tenantID, LastSyncedAt: s.clock().UTC(), LastRowCount: rowCount}
	sh.entries[tenantID] = e
	return e, nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, tenantID string) (bool, error) {
	if tenantID == "" {
		return false, ErrTenantRequired
	}
	sh := s.shardFor(tenantID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[tenantID]
	if !ok {
		return false, nil
	}
	e.Invalidated = true
	sh.entries[tenantID] = e
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, tenantID string) (Entry, bool, error) {
	if tenantID == "" {
		return Entry{}, false, ErrTenantRequired
	}
	sh := s.shardFor(tenantID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.entries[tenantID]
	return e, ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrTenantRequired
	}
	sh := s.shardFor(tenantID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.entries, tenantID)
	return nil
}
