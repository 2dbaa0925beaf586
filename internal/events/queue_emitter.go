package events

import (
	"context"

	"go.uber.org/zap"

	"visadirect-sdk-go/internal/payout"
	"visadirect-sdk-go/pkg/queue"
)

// CompensationStream is the Redis stream compensation events are
// published to; a reconciliation worker consumes it in its own consumer
// group.
const CompensationStream = "visa-payout-compensation"

// QueueEmitter publishes compensation events to a durable stream instead
// of only logging them, satisfying the "use a bounded queue or
// fire-and-forget worker" guidance for the hot dispatch path: Emit never
// blocks on a consumer, only on the publish call itself.
type QueueEmitter struct {
	queue  *queue.StreamQueue
	logger *zap.Logger
}

func NewQueueEmitter(q *queue.StreamQueue, logger *zap.Logger) *QueueEmitter {
	return &QueueEmitter{queue: q, logger: logger}
}

func (e *QueueEmitter) Emit(ctx context.Context, event payout.CompensationEvent) {
	msg := &compensationMessage{
		Event:     event.Event,
		SagaID:    event.SagaID,
		Reason:    event.Reason,
		Timestamp: event.Timestamp,
		Metadata:  event.Metadata,
	}

	encoded, err := msg.ToJSON()
	if err != nil {
		e.logger.Warn("events: failed to encode compensation event", zap.String("sagaId", event.SagaID), zap.Error(err))
		return
	}

	if _, err := e.queue.Publish(ctx, CompensationStream, encoded); err != nil {
		e.logger.Warn("events: failed to publish compensation event", zap.String("sagaId", event.SagaID), zap.Error(err))
	}
}
