package notifier

import (
	"context"

	"vehicle-orders/internal/domain/order"
	"vehicle-orders/pkg/logger"
)

// LogNotifier writes completion notices to the log. Used when no broker
// is configured, typically in local development.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(l *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

// Send logs the notice.
func (n *LogNotifier) Send(_ context.Context, notice order.CompletionNotice) error {
	n.logger.Info("Completion notice: order_id=%s recipient=%s subject=%q",
		notice.OrderId, notice.Recipient, notice.Subject)
	return nil
}
