package service

import (
	"context"

	"github.com/diagnosis/visitor-desk/pkg/events"
	"github.com/diagnosis/visitor-desk/pkg/logger"
)

// publish sends an event without failing the operation that produced it.
func publish(ctx context.Context, bus events.Publisher, subject string, data any) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, subject, data); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
