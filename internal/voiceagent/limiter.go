package voiceagent

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// TenantLimiter keeps one token bucket per tenant so a noisy tenant cannot use up
// the provider quota of the others.
type TenantLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

// NewTenantLimiter returns a limiter allowing r requests per second per tenant.
// r <= 0 disables limiting.
func NewTenantLimiter(r float64, burst int) *TenantLimiter {
	if burst < 1 {
		burst = 1
	}
	lim := rate.Limit(r)
	if r <= 0 {
		lim = rate.Inf
	}
	return &TenantLimiter{rate: lim, burst: burst}
}

func (l *TenantLimiter) get(tenantID string) *rate.Limiter {
	if v, ok := l.limiters.Load(tenantID); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(tenantID, rate.NewLimiter(l.rate, l.burst))
	return v.(*rate.Limiter)
}

// Wait blocks until tenantID may issue one request or ctx ends.
func (l *TenantLimiter) Wait(ctx context.Context, tenantID string) error {
	if l == nil {
		return nil
	}
	return l.get(tenantID).Wait(ctx)
}
