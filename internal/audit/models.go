package audit

import "time"

// Event is an immutable, append-only audit record of an ingestion outcome.
//
// Invariants:
// - Events are never updated or deleted.
// - tenant_id is always the id the caller claimed, even when it was rejected.
// - remote address capture is best-effort; audit failures never block ingestion.
type Event struct {
	ID       string    `json:"id" db:"id"`
	TenantID string    `json:"tenant_id" db:"tenant_id"`
	Type     EventType `json:"type" db:"type"`

	// RemoteAddr is the resolved client IP of the webhook caller.
	RemoteAddr string `json:"remote_addr,omitempty" db:"remote_addr"`

	// ProviderEvent and CallID come from the parsed payload when it could be parsed.
	ProviderEvent string `json:"provider_event,omitempty" db:"provider_event"`
	CallID        string `json:"call_id,omitempty" db:"call_id"`

	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeWebhookAccepted EventType = "webhook_accepted"
	EventTypeWebhookRejected EventType = "webhook_rejected"
	EventTypeCacheDeleted    EventType = "cache_deleted"
)
