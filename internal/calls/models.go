package calls

import "time"

// CallRecord is an appointment-like row owned by one tenant.
//
// Multi-tenant invariant: TenantID is required and never reassigned.
// CustomerPhone, when set, must be in the tenant's allowlist (if the tenant has one).
//
// Records are materialized per request from a RecordSource or the synthetic generator.
// They are never persisted by this service.
type CallRecord struct {
	RecordID string `json:"record_id"`
	TenantID string `json:"tenant_id"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	ScheduledAt     time.Time    `json:"scheduled_at"`
	TimeWindowLabel string       `json:"time_window_label,omitempty"`
	Status          RecordStatus `json:"status"`

	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`

	// Intent is a free-form classification tag (e.g. "new_booking", "reschedule").
	Intent string `json:"intent,omitempty"`
}

type RecordStatus string

const (
	RecordStatusBooked    RecordStatus = "booked"
	RecordStatusScheduled RecordStatus = "scheduled"
	RecordStatusConfirmed RecordStatus = "confirmed"
	RecordStatusCompleted RecordStatus = "completed"
	RecordStatusCanceled  RecordStatus = "canceled"
)

// IsBooking reports whether the status counts as a booking.
func (s RecordStatus) IsBooking() bool {
	switch s {
	case RecordStatusBooked, RecordStatusScheduled, RecordStatusConfirmed:
		return true
	default:
		return false
	}
}

// ParseRecordStatus maps provider spellings onto RecordStatus.
// Unknown values are kept verbatim (lowercased) so filters can still match them.
func ParseRecordStatus(s string) RecordStatus {
	switch normalizeStatus(s) {
	case "booked", "new":
		return RecordStatusBooked
	case "scheduled":
		return RecordStatusScheduled
	case "confirmed":
		return RecordStatusConfirmed
	case "completed", "done":
		return RecordStatusCompleted
	case "canceled", "cancelled":
		return RecordStatusCanceled
	default:
		return RecordStatus(normalizeStatus(s))
	}
}

// CallEvent is one call handled by the voice agent for a tenant.
// Same ownership invariant as CallRecord.
type CallEvent struct {
	EventID  string `json:"event_id"`
	TenantID string `json:"tenant_id"`

	CustomerPhone string `json:"customer_phone,omitempty"`

	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`

	Status EventStatus `json:"status"`

	EstimatedTimeSavedSeconds int `json:"estimated_time_saved_seconds"`

	// CostMinor is the provider-reported cost in minor units (e.g. cents).
	CostMinor int64  `json:"cost_minor"`
	Currency  string `json:"currency,omitempty"`

	TranscriptRef string `json:"transcript_ref,omitempty"`
	Summary       string `json:"summary,omitempty"`
}

type EventStatus string

const (
	EventStatusInProgress  EventStatus = "in_progress"
	EventStatusCompleted   EventStatus = "completed"
	EventStatusTransferred EventStatus = "transferred"
	EventStatusEscalated   EventStatus = "escalated"
	EventStatusNoAnswer    EventStatus = "no_answer"
	EventStatusFailed      EventStatus = "failed"
	EventStatusAborted     EventStatus = "aborted"
)

// Handled reports whether the call counts towards "calls handled".
func (s EventStatus) Handled() bool {
	return s != EventStatusFailed && s != EventStatusAborted
}

// Escalated reports whether the call was handed off to a human.
func (s EventStatus) Escalated() bool {
	return s == EventStatusEscalated || s == EventStatusTransferred
}

func ParseEventStatus(s string) EventStatus {
	switch normalizeStatus(s) {
	case "ongoing", "in_progress", "registered":
		return EventStatusInProgress
	case "ended", "completed", "success":
		return EventStatusCompleted
	case "transferred", "transfer":
		return EventStatusTransferred
	case "escalated":
		return EventStatusEscalated
	case "no_answer", "dial_no_answer":
		return EventStatusNoAnswer
	case "error", "failed":
		return EventStatusFailed
	case "aborted", "canceled", "cancelled":
		return EventStatusAborted
	default:
		return EventStatus(normalizeStatus(s))
	}
}

// AggregateAnalytics is computed by the voice-agent provider and passed through untouched.
type AggregateAnalytics struct {
	TotalCalls         int     `json:"total_calls"`
	AverageSentiment   float64 `json:"average_sentiment,omitempty"`
	SuccessRate        float64 `json:"success_rate,omitempty"`
	TotalMinutes       float64 `json:"total_minutes,omitempty"`
	ProviderComputedAt string  `json:"provider_computed_at,omitempty"`
}
