// Package events defines the compensation-event sink the orchestrator
// writes to when a payout fails after a funding guard already committed
// a side effect (a burned AFT receipt, a consumed PIS payment) so an
// operator or reconciler can unwind it (§9).
package events

import (
	"context"

	"go.uber.org/zap"

	"visadirect-sdk-go/internal/payout"
)

// CompensationEmitter records a CompensationEvent. Implementations must
// not block the caller on a slow sink; the orchestrator calls Emit from
// a goroutine so a misbehaving emitter only drops its own event.
type CompensationEmitter interface {
	Emit(ctx context.Context, event payout.CompensationEvent)
}

// LogEmitter is the SDK's default emitter: it logs the event's
// identifying fields and nothing else. A deployment that needs durable
// compensation tracking supplies its own CompensationEmitter.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(_ context.Context, event payout.CompensationEvent) {
	e.logger.Warn("compensation",
		zap.String("event", event.Event),
		zap.String("sagaId", event.SagaID),
		zap.String("reason", event.Reason),
		zap.Time("timestamp", event.Timestamp),
	)
}
