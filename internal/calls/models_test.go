package calls

import "testing"

func TestRecordStatus_IsBooking(t *testing.T) {
	for _, s := range []RecordStatus{RecordStatusBooked, RecordStatusScheduled, RecordStatusConfirmed} {
		if !s.IsBooking() {
			t.Fatalf("expected %q to count as booking", s)
		}
	}
	for _, s := range []RecordStatus{RecordStatusCompleted, RecordStatusCanceled, ""} {
		if s.IsBooking() {
			t.Fatalf("expected %q not to count as booking", s)
		}
	}
}

func TestParseRecordStatus(t *testing.T) {
	cases := map[string]RecordStatus{
		"Booked":     RecordStatusBooked,
		" cancelled": RecordStatusCanceled,
		"Confirmed":  RecordStatusConfirmed,
		"On Hold":    RecordStatus("on_hold"),
	}
	for in, want := range cases {
		if got := ParseRecordStatus(in); got != want {
			t.Fatalf("ParseRecordStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEventStatus_HandledAndEscalated(t *testing.T) {
	if EventStatusFailed.Handled() || EventStatusAborted.Handled() {
		t.Fatalf("failed/aborted must not count as handled")
	}
	if !EventStatusNoAnswer.Handled() || !EventStatusCompleted.Handled() {
		t.Fatalf("expected handled")
	}
	if !ParseEventStatus("Transfer").Escalated() {
		t.Fatalf("expected transfer to count as escalation")
	}
	if ParseEventStatus("ended") != EventStatusCompleted {
		t.Fatalf("expected ended to map to completed")
	}
}
