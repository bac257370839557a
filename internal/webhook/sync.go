package webhook

import (
	"context"

	"vehicle-orders/internal/domain/order"
)

var _ Processor = (*SyncProcessor)(nil)

// SyncProcessor reconciles the notification within the request.
type SyncProcessor struct {
	orderService *order.OrderService
}

func NewSyncProcessor(orderService *order.OrderService) *SyncProcessor {
	return &SyncProcessor{orderService: orderService}
}

func (p *SyncProcessor) ProcessPaymentNotification(ctx context.Context, n order.PaymentNotification) (order.Outcome, error) {
	return p.orderService.ApplyPaymentNotification(ctx, n)
}
