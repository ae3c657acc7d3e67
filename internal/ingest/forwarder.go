package ingest

import (
	"context"

	"github.com/hibiken/asynq"
)

// Forwarder hands accepted callbacks to the notification collaborator.
type Forwarder interface {
	Forward(ctx context.Context, p WebhookForwardPayload) error
}

// QueueForwarder enqueues callbacks on an asynq queue for downstream workers.
type QueueForwarder struct {
	client *asynq.Client
	queue  string
}

func NewQueueForwarder(opt asynq.RedisConnOpt, queue string) *QueueForwarder {
	if queue == "" {
		queue = "default"
	}
	return &QueueForwarder{client: asynq.NewClient(opt), queue: queue}
}

func (f *QueueForwarder) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}

func (f *QueueForwarder) Forward(ctx context.Context, p WebhookForwardPayload) error {
	if f == nil || f.client == nil {
		return nil
	}
	task, err := NewWebhookForwardTask(p)
	if err != nil {
		return err
	}
	_, err = f.client.EnqueueContext(ctx, task, asynq.Queue(f.queue), asynq.MaxRetry(5))
	return err
}
