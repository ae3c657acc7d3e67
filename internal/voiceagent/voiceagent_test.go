package voiceagent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"calldata-platform/internal/calls"
	"calldata-platform/internal/sources"
	"calldata-platform/internal/tenants"
)

const listBody = `{
  "calls": [
    {"id":"c1","customer_number":"(650) 253-0000","started_at":"2025-03-10T15:00:00Z","ended_at":"2025-03-10T15:02:00Z","status":"ended","estimated_time_saved_seconds":300,"cost_cents":42,"currency":"usd"},
    {"id":"c2","customer_number":"+16502530001","started_at":"2025-03-10T16:00:00Z","duration_seconds":30,"status":"transfer"},
    {"id":"","customer_number":"+16502530001","status":"ended"}
  ],
  "analytics": {"total_calls": 2, "success_rate": 0.5, "computed_at": "2025-03-10T17:00:00Z"}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "default-key",
		Credentials: map[string]string{"acme": "acme-key"},
		PhoneRegion: "US",
		HTTPClient:  srv.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_FetchEvents(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listBody))
	})

	batch, err := c.FetchEvents(context.Background(), "t1", tenants.EventSourceHandle{WorkflowID: "wf-1", CredentialRef: "acme"}, sources.Filters{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotAuth != "Bearer acme-key" {
		t.Fatalf("expected tenant credential, got %q", gotAuth)
	}
	if gotPath != "/v1/workflows/wf-1/calls" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if len(batch.Events) != 2 {
		t.Fatalf("expected 2 events (blank id dropped), got %d", len(batch.Events))
	}

	first := batch.Events[0]
	if first.TenantID != "t1" || first.CustomerPhone != "+16502530000" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.Status != calls.EventStatusCompleted || first.DurationSeconds != 120 || first.Currency != "USD" {
		t.Fatalf("unexpected normalization: %+v", first)
	}
	if batch.Events[1].Status != calls.EventStatusTransferred {
		t.Fatalf("expected transferred, got %q", batch.Events[1].Status)
	}
	if batch.Analytics == nil || batch.Analytics.TotalCalls != 2 || batch.Analytics.ProviderComputedAt != "2025-03-10T17:00:00Z" {
		t.Fatalf("unexpected analytics: %+v", batch.Analytics)
	}
}

func TestClient_FetchEventsFiltersLocally(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("customer_number") != "+16502530001" {
			t.Errorf("expected phone hint in query, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Has("status") {
			t.Errorf("record status must not reach the provider, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(listBody))
	})

	batch, err := c.FetchEvents(context.Background(), "t1", tenants.EventSourceHandle{WorkflowID: "wf-1"}, sources.Filters{Phone: "+16502530001", Status: "booked"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(batch.Events) != 1 || batch.Events[0].EventID != "c2" {
		t.Fatalf("expected only c2, got %+v", batch.Events)
	}
}

func TestClient_UpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.FetchEvents(context.Background(), "t1", tenants.EventSourceHandle{WorkflowID: "wf-1"}, sources.Filters{})
	var se *sources.SourceError
	if !errors.As(err, &se) || se.Source != sources.KindEvent {
		t.Fatalf("expected event SourceError, got %v", err)
	}
}

func TestClient_UnconfiguredHandle(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	_, err := c.FetchEvents(context.Background(), "t1", tenants.EventSourceHandle{}, sources.Filters{})
	if !errors.Is(err, sources.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no upstream request")
	}
}

func TestClient_DefaultCredential(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"calls":[]}`))
	})
	batch, err := c.FetchEvents(context.Background(), "t1", tenants.EventSourceHandle{WorkflowID: "wf", CredentialRef: "missing"}, sources.Filters{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotAuth != "Bearer default-key" {
		t.Fatalf("expected default credential, got %q", gotAuth)
	}
	if batch.Events == nil || batch.Analytics != nil {
		t.Fatalf("expected empty events and nil analytics, got %+v", batch)
	}
}

func TestTenantLimiter_IsolatesTenants(t *testing.T) {
	l := NewTenantLimiter(0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "a"); err != nil {
		t.Fatalf("expected first request for a, got %v", err)
	}
	if err := l.Wait(ctx, "a"); err == nil {
		t.Fatalf("expected wait to fail for exhausted tenant")
	}
	if err := l.Wait(ctx, "b"); err != nil {
		t.Fatalf("expected b unaffected by a, got %v", err)
	}
}

func TestTenantLimiter_Unlimited(t *testing.T) {
	l := NewTenantLimiter(0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, "a"); err != nil {
			t.Fatalf("expected unlimited limiter to allow request %d, got %v", i, err)
		}
	}
}

func TestClient_RateLimitBoundsFetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"calls":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", RatePerSecond: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	h := tenants.EventSourceHandle{WorkflowID: "wf"}
	if _, err := c.FetchEvents(context.Background(), "t1", h, sources.Filters{}); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.FetchEvents(ctx, "t1", h, sources.Filters{}); err == nil {
		t.Fatalf("expected second fetch to be throttled")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("throttled fetch must not reach the provider, hits=%d", hits)
	}
}

func TestParseWebhook(t *testing.T) {
	payload := []byte(`{"event":"call_ended","workflow_id":"wf-1","call":{"id":"c9","customer_number":"650-253-0002","status":"completed","started_at":"2025-03-10T15:00:00Z"}}`)
	w, err := ParseWebhook("t1", payload, "US")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if w.Type != WebhookCallEnded || !w.Type.Completes() {
		t.Fatalf("unexpected type %q", w.Type)
	}
	if w.Event == nil || w.Event.TenantID != "t1" || w.Event.CustomerPhone != "+16502530002" {
		t.Fatalf("unexpected event: %+v", w.Event)
	}
}

func TestParseWebhook_Errors(t *testing.T) {
	if _, err := ParseWebhook("t1", nil, "US"); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
	if _, err := ParseWebhook("t1", []byte(`{"event":"recording_ready"}`), "US"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := ParseWebhook("t1", []byte(`{not json`), "US"); err == nil {
		t.Fatalf("expected decode error")
	}
	w, err := ParseWebhook("t1", []byte(`{"event":"call_started"}`), "US")
	if err != nil || w.Event != nil || w.Type.Completes() {
		t.Fatalf("unexpected result for call_started: %+v %v", w, err)
	}
}
