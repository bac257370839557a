package order

import (
	"context"
	"time"
)

//go:generate mockgen -source ports.go -destination mock_ports.go -package order

// OrderRepo is the durable keyed store of orders.
type OrderRepo interface {
	CreateOrder(ctx context.Context, o Order) error
	// GetOrder returns apperror.ErrOrderNotFound for an unknown key.
	GetOrder(ctx context.Context, id string) (Order, error)
	GetOrders(ctx context.Context, query *OrdersQuery) ([]Order, error)
	// CompleteOrder performs the conditional pending-to-completed update.
	// It returns true only when this caller's write took effect; false means
	// the order was not pending at write time (lost race or unknown key).
	CompleteOrder(ctx context.Context, req CompleteOrderRequest) (bool, error)
}

// CompleteOrderRequest carries the guarded state transition. The write
// succeeds only while the stored status is still pending, which also
// guarantees no transaction reference has been applied yet.
type CompleteOrderRequest struct {
	OrderId   string
	Detail    PaymentDetail
	UpdatedAt time.Time
}

// Verifier checks a raw notification payload against the external payment
// processor. Timeouts and transport failures count as not verified.
type Verifier interface {
	Verify(ctx context.Context, rawPayload []byte) bool
}

// Notifier delivers a completion notice, fire-and-forget. Delivery failure
// never fails the transition that triggered it.
type Notifier interface {
	Send(ctx context.Context, notice CompletionNotice) error
}

// TransitionSink records committed transitions for audit, best-effort.
type TransitionSink interface {
	RecordTransition(ctx context.Context, event TransitionEvent) error
}
