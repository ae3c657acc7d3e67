package aggregator

import (
	"errors"
	"time"

	"calldata-platform/internal/calls"
	"calldata-platform/internal/reporting"
	"calldata-platform/internal/sources"
)

var (
	// ErrPhoneNotInTenant rejects a phone filter outside the tenant's allowlist.
	ErrPhoneNotInTenant = errors.New("aggregator: phone not in tenant")

	// ErrAllSourcesUnavailable means every configured source failed and no fallback was requested.
	ErrAllSourcesUnavailable = errors.New("aggregator: all sources unavailable")
)

type Mode string

const (
	ModeLive              Mode = "live"
	ModeSynthetic         Mode = "synthetic"
	ModeSyntheticFallback Mode = "synthetic_fallback"
)

type Options struct {
	// UseSynthetic wins over configured handles.
	UseSynthetic bool
	// ForceFresh skips the staleness check and always records a sync on success.
	ForceFresh bool
	// FallbackToSynthetic serves synthetic data instead of failing when every configured source fails.
	FallbackToSynthetic bool
}

// Meta describes how a Result was produced.
//
// Partial is set only for configured sources that failed. A source with no handle is
// not a failure.
type Meta struct {
	Mode          Mode                    `json:"mode"`
	Partial       bool                    `json:"partial"`
	FailedSources []sources.Kind          `json:"failed_sources"`
	SourceErrors  map[sources.Kind]string `json:"source_errors,omitempty"`

	// Refreshed is true when this call recorded a new sync in the staleness cache.
	Refreshed    bool       `json:"refreshed"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	LastRowCount int        `json:"last_row_count"`

	RejectedRows int `json:"rejected_rows"`
}

// Result is recomputed on every Fetch and never cached whole.
type Result struct {
	TenantID  string                    `json:"tenant_id"`
	Records   []calls.CallRecord        `json:"records"`
	Events    []calls.CallEvent         `json:"events"`
	KPIs      reporting.KPIs            `json:"kpis"`
	Analytics *calls.AggregateAnalytics `json:"analytics,omitempty"`
	Meta      Meta                      `json:"meta"`
}
