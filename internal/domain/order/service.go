package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-orders/internal/controller/apperror"
	"vehicle-orders/pkg/logger"
	"vehicle-orders/pkg/metrics"
)

// maxTransitionAttempts bounds the read-guard-write cycle. A lost conditional
// update forces a re-read; with a terminal completed state the loop normally
// resolves on the second pass, the budget guards against livelock.
const maxTransitionAttempts = 3

// OrderService owns the order payment state machine. All dependencies are
// injected at construction; there is no package-level state.
type OrderService struct {
	orderRepo OrderRepo
	verifier  Verifier
	notifier  Notifier
	sink      TransitionSink
	logger    *logger.Logger
}

func NewOrderService(orderRepo OrderRepo, verifier Verifier, notifier Notifier, sink TransitionSink, l *logger.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		verifier:  verifier,
		notifier:  notifier,
		sink:      sink,
		logger:    l,
	}
}

// CreateOrder validates the request, recomputes the total server-side and
// persists the order in pending state. Nothing is persisted on invalid input.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	o, err := NewOrder(req, time.Now().UTC())
	if err != nil {
		return Order{}, err
	}

	if err := s.orderRepo.CreateOrder(ctx, o); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id string) (Order, error) {
	return s.orderRepo.GetOrder(ctx, id)
}

func (s *OrderService) GetOrders(ctx context.Context, query OrdersQuery) ([]Order, error) {
	orders, err := s.orderRepo.GetOrders(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	return orders, nil
}

// SetStatus applies a manual administrative transition. Only
// pending-to-completed mutates state and dispatches a completion notice;
// every other combination is a no-op returning the stored order.
func (s *OrderService) SetStatus(ctx context.Context, id string, desired Status) (Order, error) {
	switch desired {
	case StatusPending:
		// Setting pending on a pending order is a no-op; a completed order
		// never moves backward. Either way, return the stored order as is.
		return s.orderRepo.GetOrder(ctx, id)
	case StatusCompleted:
		return s.completeManually(ctx, id)
	default:
		return Order{}, apperror.ErrInvalidStatus
	}
}

func (s *OrderService) completeManually(ctx context.Context, id string) (Order, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		o, err := s.orderRepo.GetOrder(ctx, id)
		if err != nil {
			return Order{}, err
		}
		if !o.Status.CanBeUpdatedTo(StatusCompleted) {
			// Already completed, re-applying is a no-op.
			return o, nil
		}

		detail := PaymentDetail{
			AmountPaid: o.TotalPrice,
			Method:     PaymentMethodManual,
		}
		won, err := s.orderRepo.CompleteOrder(ctx, CompleteOrderRequest{
			OrderId:   o.OrderId,
			Detail:    detail,
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			return Order{}, fmt.Errorf("complete order: %w", err)
		}
		if won {
			s.dispatchCompletion(ctx, o, detail, TriggerManual)
			return s.orderRepo.GetOrder(ctx, id)
		}
		// Lost the conditional update; re-read to classify.
	}

	metrics.TransitionConflicts.Inc()
	return Order{}, apperror.ErrTransitionConflict
}

// ApplyPaymentNotification reconciles one provider notification against the
// order. The verifier is consulted before the guarded write and never while
// holding any store-level exclusivity. Replays of an applied notification
// observe the terminal completed state and short-circuit before any side
// effect fires again.
func (s *OrderService) ApplyPaymentNotification(ctx context.Context, n PaymentNotification) (Outcome, error) {
	outcome, err := s.applyNotification(ctx, n)
	if err == nil {
		metrics.NotificationOutcomes.WithLabelValues(string(outcome)).Inc()
	}
	return outcome, err
}

func (s *OrderService) applyNotification(ctx context.Context, n PaymentNotification) (Outcome, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		o, err := s.orderRepo.GetOrder(ctx, n.OrderId)
		if errors.Is(err, apperror.ErrOrderNotFound) {
			return OutcomeNotFound, nil
		}
		if err != nil {
			return "", fmt.Errorf("load order: %w", err)
		}
		if !o.Status.CanBeUpdatedTo(StatusCompleted) {
			return OutcomeAlreadyCompleted, nil
		}

		if !s.verifier.Verify(ctx, n.RawPayload) {
			s.logger.Warn("Payment notification failed verification: order_id=%s transaction_ref=%s",
				n.OrderId, n.TransactionRef)
			return OutcomeVerificationFailed, nil
		}

		method := n.Method
		if method == "" {
			method = "provider"
		}
		detail := PaymentDetail{
			TransactionRef: n.TransactionRef,
			AmountPaid:     n.Amount,
			Method:         method,
		}
		won, err := s.orderRepo.CompleteOrder(ctx, CompleteOrderRequest{
			OrderId:   o.OrderId,
			Detail:    detail,
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			return "", fmt.Errorf("complete order: %w", err)
		}
		if won {
			s.dispatchCompletion(ctx, o, detail, TriggerNotification)
			return OutcomeApplied, nil
		}
		// Another caller committed between our read and write. Loop to
		// re-read; a completed order resolves to AlreadyCompleted.
	}

	metrics.TransitionConflicts.Inc()
	return "", apperror.ErrTransitionConflict
}

// dispatchCompletion fires the side effects of a won pending-to-completed
// transition. The transition is already committed: notifier and sink failures
// are logged, never propagated, and a cancelled caller context does not
// suppress dispatch.
func (s *OrderService) dispatchCompletion(ctx context.Context, o Order, detail PaymentDetail, trigger string) {
	ctx = context.WithoutCancel(ctx)

	metrics.TransitionsTotal.WithLabelValues(trigger).Inc()

	notice := CompletionNotice{
		OrderId:   o.OrderId,
		Recipient: o.Email,
		Subject:   fmt.Sprintf("Order %s confirmed", o.OrderId),
		Body: fmt.Sprintf("Hi %s, your payment of %.2f for order %s (%s) was received.",
			o.FirstName, detail.AmountPaid, o.OrderId, o.VehicleName),
	}
	if err := s.notifier.Send(ctx, notice); err != nil {
		s.logger.Error("Completion notice delivery failed: order_id=%s error=%v", o.OrderId, err)
	}

	event := TransitionEvent{
		OrderId:        o.OrderId,
		From:           StatusPending,
		To:             StatusCompleted,
		Trigger:        trigger,
		TransactionRef: detail.TransactionRef,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.sink.RecordTransition(ctx, event); err != nil {
		s.logger.Error("Transition audit record failed: order_id=%s error=%v", o.OrderId, err)
	}
}
