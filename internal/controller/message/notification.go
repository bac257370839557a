package message

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vehicle-orders/internal/domain/order"
	"vehicle-orders/internal/messaging"
	"vehicle-orders/pkg/logger"
)

// Grace window for a notification that arrives before its order. The order
// key is checked a few times before the message is declared poison.
const (
	defaultNotFoundAttempts = 3
	defaultNotFoundDelay    = 500 * time.Millisecond
)

// DLQPublisher routes poison messages off the main topic.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, key, value []byte, err error) error
}

// NotificationMessageController handles queued payment notifications.
// Malformed messages go straight to the DLQ; a notification for an order
// that does not exist yet is retried within a short grace window first;
// transient failures are surfaced so the message is redelivered.
type NotificationMessageController struct {
	logger  *logger.Logger
	service *order.OrderService
	dlq     DLQPublisher

	notFoundAttempts int
	notFoundDelay    time.Duration
}

func NewNotificationMessageController(l *logger.Logger, s *order.OrderService, dlq DLQPublisher) *NotificationMessageController {
	return &NotificationMessageController{
		logger:           l,
		service:          s,
		dlq:              dlq,
		notFoundAttempts: defaultNotFoundAttempts,
		notFoundDelay:    defaultNotFoundDelay,
	}
}

// HandleMessage processes a single queued payment notification.
func (c *NotificationMessageController) HandleMessage(ctx context.Context, key, value []byte) error {
	var env messaging.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		c.logger.Error("Failed to unmarshal envelope: key=%s error=%v", string(key), err)
		return c.dlq.PublishToDLQ(ctx, key, value, fmt.Errorf("unmarshal envelope: %w", err))
	}

	c.logger.Debug("Processing payment notification: event_id=%s key=%s type=%s",
		env.EventID, env.Key, env.Type)

	var n order.PaymentNotification
	if err := json.Unmarshal(env.Payload, &n); err != nil {
		c.logger.Error("Failed to unmarshal notification payload: event_id=%s error=%v", env.EventID, err)
		return c.dlq.PublishToDLQ(ctx, key, value, fmt.Errorf("unmarshal notification: %w", err))
	}
	if n.TransactionRef == "" || n.OrderId == "" {
		err := fmt.Errorf("notification missing transaction_ref or order_id")
		c.logger.Error("Invalid payment notification: event_id=%s error=%v", env.EventID, err)
		return c.dlq.PublishToDLQ(ctx, key, value, err)
	}
	// The payload is the provider's original body, kept for verification.
	n.RawPayload = env.Payload

	outcome, err := c.applyWithGrace(ctx, n)
	if err != nil {
		// Transient: storage errors and exhausted retries resolve on redelivery.
		c.logger.Error("Failed to apply payment notification: event_id=%s order_id=%s error=%v",
			env.EventID, n.OrderId, err)
		return err
	}

	switch outcome {
	case order.OutcomeApplied, order.OutcomeAlreadyCompleted:
		c.logger.Info("Payment notification processed: event_id=%s order_id=%s outcome=%s",
			env.EventID, n.OrderId, outcome)
		return nil
	case order.OutcomeVerificationFailed:
		// Deterministic rejection, no point in redelivery.
		c.logger.Warn("Payment notification rejected by verifier: event_id=%s order_id=%s",
			env.EventID, n.OrderId)
		return nil
	case order.OutcomeNotFound:
		c.logger.Warn("Payment notification for unknown order: event_id=%s order_id=%s",
			env.EventID, n.OrderId)
		return c.dlq.PublishToDLQ(ctx, key, value, fmt.Errorf("order %s not found", n.OrderId))
	default:
		return fmt.Errorf("unexpected outcome %q for order %s", outcome, n.OrderId)
	}
}

// applyWithGrace re-checks a not-found order before giving up. A provider
// webhook can race ahead of checkout persistence; a short wait keeps such
// notifications out of the DLQ.
func (c *NotificationMessageController) applyWithGrace(ctx context.Context, n order.PaymentNotification) (order.Outcome, error) {
	for attempt := 1; ; attempt++ {
		outcome, err := c.service.ApplyPaymentNotification(ctx, n)
		if err != nil || outcome != order.OutcomeNotFound || attempt >= c.notFoundAttempts {
			return outcome, err
		}

		c.logger.Debug("Order not found yet, retrying: order_id=%s attempt=%d", n.OrderId, attempt)
		select {
		case <-time.After(c.notFoundDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
