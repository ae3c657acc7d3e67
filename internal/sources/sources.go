package sources

import (
	"context"

	"calldata-platform/internal/calls"
	"calldata-platform/internal/tenants"
)

// Kind names a source in result metadata and errors. Keep stable; it is part of the API.
type Kind string

const (
	KindRecord Kind = "record"
	KindEvent  Kind = "event"
)

// RecordSource fetches appointment-like rows for one tenant.
//
// Rules:
//   - All filters are applied before returning.
//   - Zero matching rows is a success, not an error.
//   - Any actual fetch failure is returned as a *SourceError.
//   - Returned records carry tenantID; the source never guesses ownership.
type RecordSource interface {
	FetchRecords(ctx context.Context, tenantID string, h tenants.RecordSourceHandle, f Filters) ([]calls.CallRecord, error)
}

// EventSource fetches call events and provider-computed analytics for one tenant.
// Same rules as RecordSource.
type EventSource interface {
	FetchEvents(ctx context.Context, tenantID string, h tenants.EventSourceHandle, f Filters) (EventBatch, error)
}

type EventBatch struct {
	Events    []calls.CallEvent
	Analytics *calls.AggregateAnalytics
}
