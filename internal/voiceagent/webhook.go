package voiceagent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"calldata-platform/internal/calls"
)

// WebhookType is the provider's event name.
type WebhookType string

const (
	WebhookCallStarted  WebhookType = "call_started"
	WebhookCallEnded    WebhookType = "call_ended"
	WebhookCallAnalyzed WebhookType = "call_analyzed"
)

// Completes reports whether the event means the call log changed for good.
func (t WebhookType) Completes() bool {
	return t == WebhookCallEnded || t == WebhookCallAnalyzed
}

var (
	ErrEmptyPayload    = errors.New("voiceagent: empty webhook payload")
	ErrUnsupportedType = errors.New("voiceagent: unsupported webhook event")
)

// Webhook is a parsed provider callback. Event is nil when the payload carried no call.
type Webhook struct {
	Type       WebhookType
	WorkflowID string
	Event      *calls.CallEvent
}

type wireWebhook struct {
	Event      string    `json:"event"`
	WorkflowID string    `json:"workflow_id"`
	Call       *wireCall `json:"call"`
}

// ParseWebhook decodes a provider callback for tenantID.
// The tenant comes from the delivery URL; payload fields never override it.
func ParseWebhook(tenantID string, payload []byte, region string) (Webhook, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return Webhook{}, ErrEmptyPayload
	}
	var w wireWebhook
	if err := json.Unmarshal(payload, &w); err != nil {
		return Webhook{}, fmt.Errorf("voiceagent: decode webhook: %w", err)
	}

	typ := WebhookType(strings.ToLower(strings.TrimSpace(w.Event)))
	switch typ {
	case WebhookCallStarted, WebhookCallEnded, WebhookCallAnalyzed:
	default:
		return Webhook{}, fmt.Errorf("%w: %q", ErrUnsupportedType, w.Event)
	}

	out := Webhook{Type: typ, WorkflowID: w.WorkflowID}
	if w.Call != nil && strings.TrimSpace(w.Call.ID) != "" {
		ev := w.Call.toEvent(tenantID, region)
		out.Event = &ev
	}
	return out, nil
}
