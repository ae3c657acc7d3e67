package sources

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"calldata-platform/internal/calls"
)

func TestFilters_MatchRecord(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	r := calls.CallRecord{RecordID: "r1", CustomerPhone: "+16502530000", ScheduledAt: at, Status: calls.RecordStatusBooked}

	cases := []struct {
		name string
		f    Filters
		want bool
	}{
		{"empty", Filters{}, true},
		{"phone match", Filters{Phone: "+16502530000"}, true},
		{"phone mismatch", Filters{Phone: "+16502530001"}, false},
		{"status case insensitive", Filters{Status: "BOOKED"}, true},
		{"status mismatch", Filters{Status: "canceled"}, false},
		{"from inclusive", Filters{From: at}, true},
		{"to exclusive", Filters{To: at}, false},
		{"inside range", Filters{From: at.Add(-time.Hour), To: at.Add(time.Hour)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.MatchRecord(r); got != tc.want {
				t.Fatalf("MatchRecord = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterEvents_PreservesOrder(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	in := []calls.CallEvent{
		{EventID: "a", CustomerPhone: "+16502530000", StartedAt: at, Status: calls.EventStatusCompleted},
		{EventID: "b", CustomerPhone: "+16502530001", StartedAt: at, Status: calls.EventStatusFailed},
		{EventID: "c", CustomerPhone: "+16502530000", StartedAt: at, Status: calls.EventStatusCompleted},
	}
	out := FilterEvents(in, Filters{Phone: "+16502530000"})
	if len(out) != 2 || out[0].EventID != "a" || out[1].EventID != "c" {
		t.Fatalf("unexpected filter output: %+v", out)
	}
}

func TestFilterEvents_IgnoresRecordStatus(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	in := []calls.CallEvent{
		{EventID: "a", StartedAt: at, Status: calls.EventStatusCompleted},
		{EventID: "b", StartedAt: at, Status: calls.EventStatusFailed},
	}
	for _, st := range []string{"booked", "completed", "canceled"} {
		if out := FilterEvents(in, Filters{Status: st}); len(out) != 2 {
			t.Fatalf("status %q: expected both events, got %+v", st, out)
		}
	}
}

func TestSourceError_IsUnavailable(t *testing.T) {
	base := errors.New("boom")
	err := Unavailable(KindRecord, base)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable")
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause")
	}
	var se *SourceError
	if !errors.As(err, &se) || se.Source != KindRecord {
		t.Fatalf("expected record SourceError, got %v", err)
	}
	if Unavailable(KindRecord, nil) != nil {
		t.Fatalf("nil stays nil")
	}
}

func TestCall_RetriesOnceThenDegrades(t *testing.T) {
	var attempts int32
	_, err := Call(context.Background(), Policy{Timeout: time.Second, Retries: 1}, KindEvent, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&attempts, 1)
		return 0, errors.New("503 service unavailable")
	})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestCall_SecondAttemptSucceeds(t *testing.T) {
	var attempts int32
	v, err := Call(context.Background(), Policy{Timeout: time.Second, Retries: 1}, KindEvent, func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("expected ok, got %q %v", v, err)
	}
}

func TestCall_TimeoutOnHungProvider(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	_, err := Call(context.Background(), Policy{Timeout: 20 * time.Millisecond, Retries: 1}, KindRecord, func(ctx context.Context) (int, error) {
		<-block // ignores ctx on purpose
		return 1, nil
	})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("guard did not bound the hung call")
	}
}

func TestCall_ParentCancelIsNotASourceFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Call(ctx, DefaultPolicy(), KindRecord, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("cancellation must not be reported as source failure")
	}
}

func TestCall_RecoversPanic(t *testing.T) {
	_, err := Call(context.Background(), Policy{Timeout: time.Second}, KindRecord, func(ctx context.Context) (int, error) {
		panic("nil map")
	})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected panic converted to ErrSourceUnavailable, got %v", err)
	}
}
