package sources

import (
	"time"

	"calldata-platform/internal/calls"
)

// Filters narrows a fetch. Zero values mean "no constraint".
//
// Phone is compared in E.164 form; callers normalize it once up front.
// The time range is half-open: [From, To).
// Status is a record status (booked, canceled, ...) and never narrows events.
type Filters struct {
	Phone  string    `json:"phone,omitempty"`
	From   time.Time `json:"from,omitempty"`
	To     time.Time `json:"to,omitempty"`
	Status string    `json:"status,omitempty"`
}

func (f Filters) inRange(at time.Time) bool {
	if !f.From.IsZero() && at.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !at.Before(f.To) {
		return false
	}
	return true
}

func (f Filters) MatchRecord(r calls.CallRecord) bool {
	if f.Phone != "" && r.CustomerPhone != f.Phone {
		return false
	}
	if f.Status != "" && r.Status != calls.ParseRecordStatus(f.Status) {
		return false
	}
	return f.inRange(r.ScheduledAt)
}

func (f Filters) MatchEvent(e calls.CallEvent) bool {
	if f.Phone != "" && e.CustomerPhone != f.Phone {
		return false
	}
	return f.inRange(e.StartedAt)
}

// FilterRecords returns the records matching f, preserving order.
func FilterRecords(in []calls.CallRecord, f Filters) []calls.CallRecord {
	out := make([]calls.CallRecord, 0, len(in))
	for _, r := range in {
		if f.MatchRecord(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterEvents returns the events matching f, preserving order.
func FilterEvents(in []calls.CallEvent, f Filters) []calls.CallEvent {
	out := make([]calls.CallEvent, 0, len(in))
	for _, e := range in {
		if f.MatchEvent(e) {
			out = append(out, e)
		}
	}
	return out
}
