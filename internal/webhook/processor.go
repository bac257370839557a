package webhook

import (
	"context"

	"vehicle-orders/internal/domain/order"
)

// Processor handles an inbound payment notification. The sync implementation
// reconciles it inline; the async one enqueues it for a background worker.
type Processor interface {
	ProcessPaymentNotification(ctx context.Context, n order.PaymentNotification) (order.Outcome, error)
}
