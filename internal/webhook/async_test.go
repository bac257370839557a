package webhook

import (
	"context"
	"errors"
	"testing"

	"vehicle-orders/internal/domain/order"
	"vehicle-orders/internal/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	published []messaging.Envelope
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, env messaging.Envelope) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, env)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func TestAsyncProcessor_ProcessPaymentNotification(t *testing.T) {
	raw := []byte(`{"transaction_ref":"txn-9","order_id":"order-1","amount":100}`)
	notification := order.PaymentNotification{
		TransactionRef: "txn-9",
		OrderId:        "order-1",
		Amount:         100,
		RawPayload:     raw,
	}

	t.Run("enqueues raw payload keyed by order", func(t *testing.T) {
		// given
		pub := &mockPublisher{}
		p := NewAsyncProcessor(pub)

		// when
		outcome, err := p.ProcessPaymentNotification(context.Background(), notification)

		// then
		require.NoError(t, err)
		assert.Equal(t, order.OutcomeAccepted, outcome)
		require.Len(t, pub.published, 1)

		env := pub.published[0]
		assert.Equal(t, "order-1", env.Key)
		assert.Equal(t, NotificationMessageType, env.Type)
		assert.JSONEq(t, string(raw), string(env.Payload))
		assert.NotEmpty(t, env.EventID)
	})

	t.Run("propagates publish failure", func(t *testing.T) {
		// given
		pub := &mockPublisher{err: errors.New("broker unavailable")}
		p := NewAsyncProcessor(pub)

		// when
		_, err := p.ProcessPaymentNotification(context.Background(), notification)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enqueue notification")
	})
}
