package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records internal audit information.
//
// Audit is internal-only and best-effort: callers log Append failures and move on.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.TenantID == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogWebhookAccepted records an accepted provider callback. completed tells a
// finished call apart from an in-progress notice.
func (s *Service) LogWebhookAccepted(ctx context.Context, tenantID, remoteAddr, providerEvent, callID string, completed bool) error {
	msg := "call in progress; cache invalidated"
	if completed {
		msg = "call completed; cache invalidated"
	}
	return s.Append(ctx, Event{
		TenantID:      tenantID,
		Type:          EventTypeWebhookAccepted,
		RemoteAddr:    remoteAddr,
		ProviderEvent: providerEvent,
		CallID:        callID,
		Message:       msg,
	})
}

// LogWebhookRejected records a refused callback, e.g. for an unknown tenant.
func (s *Service) LogWebhookRejected(ctx context.Context, tenantID, remoteAddr, reason string) error {
	return s.Append(ctx, Event{
		TenantID:   tenantID,
		Type:       EventTypeWebhookRejected,
		RemoteAddr: remoteAddr,
		Message:    reason,
	})
}

// LogCacheDeleted records removal of a tenant's sync metadata on deprovisioning.
func (s *Service) LogCacheDeleted(ctx context.Context, tenantID, remoteAddr string) error {
	return s.Append(ctx, Event{
		TenantID:   tenantID,
		Type:       EventTypeCacheDeleted,
		RemoteAddr: remoteAddr,
		Message:    "sync metadata deleted",
	})
}
