package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresTenantAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeWebhookAccepted}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{TenantID: "t"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogWebhookAccepted(context.Background(), "t1", "1.2.3.4", "call_ended", "c1", true); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogWebhookRejected(context.Background(), "ghost", "5.6.7.8", "unknown tenant"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be assigned")
	}
	if evs[0].Type != EventTypeWebhookAccepted || evs[0].CallID != "c1" || evs[0].Message != "call completed; cache invalidated" {
		t.Fatalf("unexpected first event: %+v", evs[0])
	}
	if got := repo.ForTenant("ghost"); len(got) != 1 || got[0].Type != EventTypeWebhookRejected {
		t.Fatalf("expected one rejected event for ghost, got %+v", got)
	}
}
