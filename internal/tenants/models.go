package tenants

import (
	"context"
	"errors"
)

// TenantContext is the immutable descriptor of one tenant.
//
// It is produced by the tenant registry and is read-only to the engine.
// Nil handles mean "not configured", which is different from "configured but failing".
type TenantContext struct {
	TenantID string `json:"tenant_id"`

	RecordSource *RecordSourceHandle `json:"record_source,omitempty"`
	EventSource  *EventSourceHandle  `json:"event_source,omitempty"`

	AllowedPhoneNumbers PhoneSet `json:"-"`
}

// RecordSourceHandle locates the spreadsheet backing a tenant's appointment log.
type RecordSourceHandle struct {
	SheetID string `json:"sheet_id"`
	// Range is an A1 range, e.g. "Appointments!A1:J".
	Range string `json:"range"`
}

// EventSourceHandle identifies the tenant's voice-agent workflow.
type EventSourceHandle struct {
	WorkflowID string `json:"workflow_id"`
	// CredentialRef names the provider credential. Empty means the process default.
	CredentialRef string `json:"credential_ref,omitempty"`
}

func (t TenantContext) HasRecordSource() bool {
	return t.RecordSource != nil && t.RecordSource.SheetID != ""
}

func (t TenantContext) HasEventSource() bool {
	return t.EventSource != nil && t.EventSource.WorkflowID != ""
}

// OwnsPhone reports whether phone may appear in this tenant's data.
// An empty allowlist accepts every number; an empty phone is always accepted.
func (t TenantContext) OwnsPhone(phone string) bool {
	if phone == "" || t.AllowedPhoneNumbers.Empty() {
		return true
	}
	return t.AllowedPhoneNumbers.Contains(phone)
}

var ErrNotFound = errors.New("tenants: tenant not found")

// Registry resolves tenants. Implementations must return ErrNotFound for unknown ids
// and must never create tenants implicitly.
type Registry interface {
	Resolve(ctx context.Context, tenantID string) (TenantContext, error)
}
