package tenants

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-memory registry for tests and local development.
type MemoryRegistry struct {
	mu      sync.RWMutex
	tenants map[string]TenantContext
}

func NewMemoryRegistry(tenants ...TenantContext) *MemoryRegistry {
	r := &MemoryRegistry{tenants: make(map[string]TenantContext, len(tenants))}
	for _, t := range tenants {
		r.tenants[t.TenantID] = t
	}
	return r
}

func (r *MemoryRegistry) Put(t TenantContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.TenantID] = t
}

func (r *MemoryRegistry) Remove(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, tenantID)
}

func (r *MemoryRegistry) Resolve(ctx context.Context, tenantID string) (TenantContext, error) {
	if tenantID == "" {
		return TenantContext{}, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return TenantContext{}, ErrNotFound
	}
	return t, nil
}
