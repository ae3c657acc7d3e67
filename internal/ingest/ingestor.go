package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"calldata-platform/internal/audit"
	"calldata-platform/internal/cache"
	"calldata-platform/internal/tenants"
	"calldata-platform/internal/voiceagent"
	"calldata-platform/pkg/logger"
)

// ErrUnknownTenant rejects callbacks for ids the registry does not know.
// Such callbacks are never retried and never create tenants.
var ErrUnknownTenant = errors.New("ingest: unknown tenant")

// ErrWorkflowMismatch rejects callbacks naming a workflow other than the tenant's own.
var ErrWorkflowMismatch = errors.New("ingest: workflow does not belong to tenant")

type Ack struct {
	Accepted bool `json:"accepted"`
}

// Ingestor receives provider call-completion callbacks and marks the tenant's sync
// metadata stale. It never touches the cache for a tenant it cannot resolve.
//
// Forwarding and audit are best-effort: their failures are logged and do not
// change the Ack.
type Ingestor struct {
	Registry  tenants.Registry
	Cache     cache.Store
	Forwarder Forwarder
	Audit     *audit.Service

	PhoneRegion string
	Now         func() time.Time
}

func (i *Ingestor) Ingest(ctx context.Context, tenantID string, payload []byte) (Ack, error) {
	log := logger.From(ctx).With("tenant_id", tenantID)
	ip := ClientIPFromContext(ctx)
	now := time.Now
	if i.Now != nil {
		now = i.Now
	}

	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Ack{}, ErrUnknownTenant
	}

	tc, err := i.Registry.Resolve(ctx, tenantID)
	if errors.Is(err, tenants.ErrNotFound) {
		log.Warn("webhook for unknown tenant rejected", "remote_addr", ip)
		i.audit(ctx, func(a *audit.Service) error { return a.LogWebhookRejected(ctx, tenantID, ip, "unknown tenant") })
		return Ack{}, fmt.Errorf("%w: %s", ErrUnknownTenant, tenantID)
	}
	if err != nil {
		return Ack{}, fmt.Errorf("ingest: resolve tenant: %w", err)
	}

	hook, perr := voiceagent.ParseWebhook(tc.TenantID, payload, i.PhoneRegion)
	if perr != nil {
		// Still a signal that the call log moved; invalidate anyway.
		log.Warn("webhook payload not understood", "err", perr)
	}
	if perr == nil && !ownsWorkflow(tc, hook.WorkflowID) {
		log.Warn("webhook for foreign workflow rejected", "workflow_id", hook.WorkflowID, "remote_addr", ip)
		i.audit(ctx, func(a *audit.Service) error { return a.LogWebhookRejected(ctx, tc.TenantID, ip, "workflow mismatch") })
		return Ack{}, fmt.Errorf("%w: %s", ErrWorkflowMismatch, hook.WorkflowID)
	}

	existed, err := i.Cache.Invalidate(ctx, tc.TenantID)
	if err != nil {
		return Ack{}, fmt.Errorf("ingest: invalidate: %w", err)
	}
	log.Debug("sync metadata invalidated", "had_entry", existed, "event", string(hook.Type))

	fwd := WebhookForwardPayload{
		TenantID:   tc.TenantID,
		Event:      string(hook.Type),
		Completed:  hook.Type.Completes(),
		ReceivedAt: now().UTC(),
		Raw:        string(payload),
	}
	if hook.Event != nil {
		fwd.CallID = hook.Event.EventID
	}
	if i.Forwarder != nil {
		if err := i.Forwarder.Forward(ctx, fwd); err != nil {
			log.Warn("webhook forward failed", "err", err)
		}
	}
	i.audit(ctx, func(a *audit.Service) error {
		return a.LogWebhookAccepted(ctx, tc.TenantID, ip, fwd.Event, fwd.CallID, fwd.Completed)
	})

	return Ack{Accepted: true}, nil
}

// ownsWorkflow is true when the callback names no workflow, the tenant has no event
// source, or the two agree.
func ownsWorkflow(tc tenants.TenantContext, workflowID string) bool {
	if workflowID == "" || tc.EventSource == nil || tc.EventSource.WorkflowID == "" {
		return true
	}
	return tc.EventSource.WorkflowID == workflowID
}

func (i *Ingestor) audit(ctx context.Context, fn func(a *audit.Service) error) {
	if i.Audit == nil {
		return
	}
	if err := fn(i.Audit); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}
