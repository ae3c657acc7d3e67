package audit

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var insertEvent = regexp.QuoteMeta(`INSERT INTO audit_events (id, tenant_id, type, remote_addr, provider_event, call_id, message, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)

func TestPostgresRepo_AppendInsertsAllColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(insertEvent).
		WithArgs("e1", "t1", "webhook_accepted", "1.2.3.4", "call_ended", "c1", "cache invalidated", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRepo(db).Append(context.Background(), Event{
		ID:            "e1",
		TenantID:      "t1",
		Type:          EventTypeWebhookAccepted,
		RemoteAddr:    "1.2.3.4",
		ProviderEvent: "call_ended",
		CallID:        "c1",
		Message:       "cache invalidated",
		CreatedAt:     at,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepo_ThroughServiceFillsIDAndTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(insertEvent).
		WithArgs(sqlmock.AnyArg(), "ghost", "webhook_rejected", "5.6.7.8", "", "", "unknown tenant", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := NewService(NewPostgresRepo(db))
	if err := svc.LogWebhookRejected(context.Background(), "ghost", "5.6.7.8", "unknown tenant"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepo_PropagatesInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	denied := errors.New("permission denied for table audit_events")
	mock.ExpectExec(insertEvent).WillReturnError(denied)

	err = NewPostgresRepo(db).Append(context.Background(), Event{ID: "e1", TenantID: "t1", Type: EventTypeCacheDeleted})
	if !errors.Is(err, denied) {
		t.Fatalf("expected insert error, got %v", err)
	}
}
