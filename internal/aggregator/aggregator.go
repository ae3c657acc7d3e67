package aggregator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"calldata-platform/internal/cache"
	"calldata-platform/internal/calls"
	"calldata-platform/internal/reporting"
	"calldata-platform/internal/sources"
	"calldata-platform/internal/synthetic"
	"calldata-platform/internal/tenants"
	"calldata-platform/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Aggregator merges a tenant's record and event sources into one Result.
//
// Content is always fetched fresh. The staleness cache only decides whether this
// call refreshes the sync metadata reported back to callers.
type Aggregator struct {
	Records   sources.RecordSource
	Events    sources.EventSource
	Synthetic *synthetic.Generator
	Cache     cache.Store

	Policy      sources.Policy
	MaxAge      time.Duration
	Savings     reporting.SavingsRate
	PhoneRegion string
}

func New(records sources.RecordSource, events sources.EventSource, store cache.Store) *Aggregator {
	return &Aggregator{
		Records:     records,
		Events:      events,
		Synthetic:   synthetic.New(),
		Cache:       store,
		Policy:      sources.DefaultPolicy(),
		MaxAge:      cache.DefaultMaxAge,
		PhoneRegion: tenants.DefaultRegion,
	}
}

// outcome is the tagged result of one source call.
type outcome[T any] struct {
	configured bool
	value      T
	err        error
}

func (o outcome[T]) failed() bool { return o.configured && o.err != nil }

// Fetch aggregates tenant data for f.
//
// Errors: ErrPhoneNotInTenant before any source is called, ErrAllSourcesUnavailable
// when every configured source failed, or the ctx error when the caller went away.
// A canceled fetch never touches the cache.
func (a *Aggregator) Fetch(ctx context.Context, tc tenants.TenantContext, f sources.Filters, opts Options) (Result, error) {
	f, err := a.checkPhone(tc, f)
	if err != nil {
		return Result{}, err
	}

	if opts.UseSynthetic || (!tc.HasRecordSource() && !tc.HasEventSource()) {
		return a.synthetic(tc.TenantID, f, Meta{Mode: ModeSynthetic}), nil
	}
	return a.live(ctx, tc, f, opts)
}

func (a *Aggregator) checkPhone(tc tenants.TenantContext, f sources.Filters) (sources.Filters, error) {
	if f.Phone == "" {
		return f, nil
	}
	norm := tenants.NormalizeE164(f.Phone, a.PhoneRegion)
	if norm == "" {
		return f, fmt.Errorf("%w: %q is not a valid phone number", ErrPhoneNotInTenant, f.Phone)
	}
	if !tc.OwnsPhone(norm) {
		return f, fmt.Errorf("%w: %s", ErrPhoneNotInTenant, norm)
	}
	f.Phone = norm
	return f, nil
}

func (a *Aggregator) live(ctx context.Context, tc tenants.TenantContext, f sources.Filters, opts Options) (Result, error) {
	log := logger.From(ctx).With("tenant_id", tc.TenantID)

	refresh := opts.ForceFresh
	if !refresh {
		stale, err := a.Cache.ShouldRefetch(ctx, tc.TenantID, a.MaxAge)
		if err != nil {
			log.Warn("staleness check failed, treating as stale", "err", err)
			stale = true
		}
		refresh = stale
	}

	recs, evs := a.fanOut(ctx, tc, f)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	meta := Meta{Mode: ModeLive, FailedSources: []sources.Kind{}}
	configured := 0
	for _, o := range []struct {
		kind       sources.Kind
		configured bool
		err        error
	}{
		{sources.KindRecord, recs.configured, recs.err},
		{sources.KindEvent, evs.configured, evs.err},
	} {
		if !o.configured {
			continue
		}
		configured++
		if o.err == nil {
			continue
		}
		log.Warn("source unavailable", "source", string(o.kind), "err", o.err)
		meta.FailedSources = append(meta.FailedSources, o.kind)
		if meta.SourceErrors == nil {
			meta.SourceErrors = map[sources.Kind]string{}
		}
		meta.SourceErrors[o.kind] = o.err.Error()
	}
	meta.Partial = len(meta.FailedSources) > 0

	if configured > 0 && len(meta.FailedSources) == configured {
		if opts.FallbackToSynthetic {
			meta.Mode = ModeSyntheticFallback
			return a.synthetic(tc.TenantID, f, meta), nil
		}
		return Result{}, fmt.Errorf("%w: %w", ErrAllSourcesUnavailable, errors.Join(recs.err, evs.err))
	}

	records, rejectedRecords := ownedRecords(tc, recs.value)
	events, rejectedEvents := ownedEvents(tc, evs.value.Events)
	meta.RejectedRows = rejectedRecords + rejectedEvents
	if meta.RejectedRows > 0 {
		log.Warn("dropped rows outside tenant allowlist", "records", rejectedRecords, "events", rejectedEvents)
	}

	sortRecords(records)
	sortEvents(events)

	res := Result{
		TenantID:  tc.TenantID,
		Records:   records,
		Events:    events,
		KPIs:      reporting.Derive(records, events, a.Savings),
		Analytics: evs.value.Analytics,
	}

	if refresh && !meta.Partial {
		entry, err := a.Cache.RecordSync(ctx, tc.TenantID, len(records)+len(events))
		if err != nil {
			log.Warn("record sync failed", "err", err)
		} else {
			meta.Refreshed = true
			log.Debug("sync recorded", "row_count", entry.LastRowCount)
		}
		setEntry(&meta, entry, err == nil)
	} else {
		entry, ok, err := a.Cache.Get(ctx, tc.TenantID)
		if err != nil {
			log.Warn("cache read failed", "err", err)
		}
		setEntry(&meta, entry, ok && err == nil)
	}

	res.Meta = meta
	return res, nil
}

// fanOut runs both configured sources concurrently and waits for both. A failure in
// one never cancels the other.
func (a *Aggregator) fanOut(ctx context.Context, tc tenants.TenantContext, f sources.Filters) (outcome[[]calls.CallRecord], outcome[sources.EventBatch]) {
	var (
		g    errgroup.Group
		recs outcome[[]calls.CallRecord]
		evs  outcome[sources.EventBatch]
	)

	if tc.HasRecordSource() {
		recs.configured = true
		h := *tc.RecordSource
		g.Go(func() error {
			if a.Records == nil {
				recs.err = sources.Unavailable(sources.KindRecord, sources.ErrNotConfigured)
				return nil
			}
			recs.value, recs.err = sources.Call(ctx, a.Policy, sources.KindRecord, func(ctx context.Context) ([]calls.CallRecord, error) {
				return a.Records.FetchRecords(ctx, tc.TenantID, h, f)
			})
			return nil
		})
	}
	if tc.HasEventSource() {
		evs.configured = true
		h := *tc.EventSource
		g.Go(func() error {
			if a.Events == nil {
				evs.err = sources.Unavailable(sources.KindEvent, sources.ErrNotConfigured)
				return nil
			}
			evs.value, evs.err = sources.Call(ctx, a.Policy, sources.KindEvent, func(ctx context.Context) (sources.EventBatch, error) {
				return a.Events.FetchEvents(ctx, tc.TenantID, h, f)
			})
			return nil
		})
	}
	_ = g.Wait()

	if recs.failed() {
		recs.value = nil
	}
	if evs.failed() {
		evs.value = sources.EventBatch{}
	}
	return recs, evs
}

// synthetic builds a Result from the generator. The staleness cache is not consulted.
func (a *Aggregator) synthetic(tenantID string, f sources.Filters, meta Meta) Result {
	gen := a.Synthetic
	if gen == nil {
		gen = synthetic.New()
	}
	if meta.FailedSources == nil {
		meta.FailedSources = []sources.Kind{}
	}

	records := sources.FilterRecords(gen.Records(tenantID), f)
	events := sources.FilterEvents(gen.Events(tenantID), f)
	sortRecords(records)
	sortEvents(events)

	return Result{
		TenantID:  tenantID,
		Records:   records,
		Events:    events,
		KPIs:      reporting.Derive(records, events, a.Savings),
		Analytics: gen.Analytics(tenantID),
		Meta:      meta,
	}
}

func setEntry(meta *Meta, e cache.Entry, ok bool) {
	if !ok || e.LastSyncedAt.IsZero() {
		return
	}
	t := e.LastSyncedAt
	meta.LastSyncedAt = &t
	meta.LastRowCount = e.LastRowCount
}

func ownedRecords(tc tenants.TenantContext, in []calls.CallRecord) ([]calls.CallRecord, int) {
	out := make([]calls.CallRecord, 0, len(in))
	rejected := 0
	for _, r := range in {
		if (r.TenantID != "" && r.TenantID != tc.TenantID) || !tc.OwnsPhone(r.CustomerPhone) {
			rejected++
			continue
		}
		out = append(out, r)
	}
	return out, rejected
}

func ownedEvents(tc tenants.TenantContext, in []calls.CallEvent) ([]calls.CallEvent, int) {
	out := make([]calls.CallEvent, 0, len(in))
	rejected := 0
	for _, e := range in {
		if (e.TenantID != "" && e.TenantID != tc.TenantID) || !tc.OwnsPhone(e.CustomerPhone) {
			rejected++
			continue
		}
		out = append(out, e)
	}
	return out, rejected
}

// Newest first; ids break ties so output order is stable across calls.
func sortRecords(rs []calls.CallRecord) {
	slices.SortFunc(rs, func(a, b calls.CallRecord) int {
		if c := b.ScheduledAt.Compare(a.ScheduledAt); c != 0 {
			return c
		}
		return cmp.Compare(a.RecordID, b.RecordID)
	})
}

func sortEvents(es []calls.CallEvent) {
	slices.SortFunc(es, func(a, b calls.CallEvent) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.EventID, b.EventID)
	})
}
