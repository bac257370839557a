package notifier

import (
	"context"

	"vehicle-orders/internal/domain/order"
	"vehicle-orders/internal/messaging"
	"vehicle-orders/pkg/logger"
)

const noticeMessageType = "order.completion_notice"

// KafkaNotifier publishes completion notices to a broker topic where a
// downstream mailer picks them up. Delivery is retried with backoff; a
// notice that still cannot be published is reported to the caller.
type KafkaNotifier struct {
	publisher messaging.Publisher
	retryCfg  RetryConfig
	logger    *logger.Logger
}

// NewKafkaNotifier creates a notifier backed by the given publisher.
func NewKafkaNotifier(l *logger.Logger, publisher messaging.Publisher, retryCfg RetryConfig) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		retryCfg:  retryCfg,
		logger:    l,
	}
}

// Send publishes the notice keyed by order ID.
func (n *KafkaNotifier) Send(ctx context.Context, notice order.CompletionNotice) error {
	env, err := messaging.NewEnvelope(notice.OrderId, noticeMessageType, notice)
	if err != nil {
		return err
	}

	return DoWithRetry(ctx, n.retryCfg, func(ctx context.Context) error {
		return n.publisher.Publish(ctx, env)
	})
}

// Close closes the underlying publisher.
func (n *KafkaNotifier) Close() error {
	return n.publisher.Close()
}
