package services

import (
	"context"
	"encoding/json"

	"fileflow/internal/events"
)

// PublishingRunner forwards pipeline commands to downstream processors over
// the event bus. Delivery failures bubble up so the outbox retries them.
type PublishingRunner struct {
	publisher events.Publisher
}

func NewPublishingRunner(publisher events.Publisher) *PublishingRunner {
	return &PublishingRunner{publisher: publisher}
}

func (r *PublishingRunner) Run(ctx context.Context, payload PipelinePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, events.ChannelPipeline, data)
}
