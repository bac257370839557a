package webhook

import (
	"context"
	"fmt"

	"vehicle-orders/internal/domain/order"
	"vehicle-orders/internal/messaging"
)

// NotificationMessageType tags payment notification envelopes on the wire.
const NotificationMessageType = "payment.notification"

var _ Processor = (*AsyncProcessor)(nil)

// AsyncProcessor enqueues the raw notification for a background consumer.
// The envelope carries the untouched provider payload so the consumer can
// re-verify it; keying by order ID keeps per-order delivery ordered.
type AsyncProcessor struct {
	publisher messaging.Publisher
}

func NewAsyncProcessor(publisher messaging.Publisher) *AsyncProcessor {
	return &AsyncProcessor{publisher: publisher}
}

func (p *AsyncProcessor) ProcessPaymentNotification(ctx context.Context, n order.PaymentNotification) (order.Outcome, error) {
	env, err := messaging.NewEnvelope(n.OrderId, NotificationMessageType, n.RawPayload)
	if err != nil {
		return "", fmt.Errorf("wrap notification: %w", err)
	}

	if err := p.publisher.Publish(ctx, env); err != nil {
		return "", fmt.Errorf("enqueue notification: %w", err)
	}

	return order.OutcomeAccepted, nil
}
