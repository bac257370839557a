package order

import (
	"encoding/json"
	"time"
)

// PaymentNotification is an inbound message from the external payment
// processor claiming a payment event occurred. Notifications are transient:
// only the applied transaction reference is persisted, on the order itself.
type PaymentNotification struct {
	TransactionRef string          `json:"transaction_ref" binding:"required"`
	OrderId        string          `json:"order_id" binding:"required"`
	Amount         float64         `json:"amount"`
	Method         string          `json:"method"`
	RawPayload     json.RawMessage `json:"-"`
}

// Outcome classifies the result of handling a payment notification.
type Outcome string

const (
	// OutcomeApplied: the notification won the conditional update and
	// transitioned the order to completed. Side effects fire exactly here.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyCompleted: the order was completed before this
	// notification took effect (duplicate delivery or lost race).
	OutcomeAlreadyCompleted Outcome = "already_completed"
	// OutcomeVerificationFailed: the external verifier rejected the payload.
	OutcomeVerificationFailed Outcome = "verification_failed"
	// OutcomeNotFound: no order exists under the claimed key.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeAccepted: the notification was queued for asynchronous handling.
	OutcomeAccepted Outcome = "accepted"
)

// CompletionNotice is the message descriptor handed to the Notifier after a
// pending order transitions to completed.
type CompletionNotice struct {
	OrderId   string `json:"order_id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// TransitionEvent is the audit record of a committed state transition.
type TransitionEvent struct {
	OrderId        string    `json:"order_id"`
	From           Status    `json:"from"`
	To             Status    `json:"to"`
	Trigger        string    `json:"trigger"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Transition triggers.
const (
	TriggerNotification = "payment_notification"
	TriggerManual       = "manual_status_update"
)
