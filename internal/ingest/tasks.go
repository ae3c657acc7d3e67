package ingest

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskWebhookForward = "calldata.webhook.forward"

// WebhookForwardPayload is what downstream automation receives for each accepted callback.
type WebhookForwardPayload struct {
	TenantID string `json:"tenantId"`
	Event    string `json:"event,omitempty"`
	CallID   string `json:"callId,omitempty"`
	// Completed is set for call_ended and call_analyzed.
	Completed  bool      `json:"completed"`
	ReceivedAt time.Time `json:"receivedAt"`
	// Raw is the provider payload, untouched.
	Raw string `json:"raw"`
}

func NewWebhookForwardTask(payload WebhookForwardPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookForward, data), nil
}

func ParseWebhookForwardPayload(task *asynq.Task) (WebhookForwardPayload, error) {
	var payload WebhookForwardPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WebhookForwardPayload{}, err
	}
	return payload, nil
}
