//go:build integration
// +build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vehicle-orders/internal/controller/message"
	"vehicle-orders/internal/domain/order"
	appkafka "vehicle-orders/internal/external/kafka"
	"vehicle-orders/internal/external/paygate"
	"vehicle-orders/internal/messaging"
	order_repo "vehicle-orders/internal/repo/order"
	"vehicle-orders/internal/testinfra"
	"vehicle-orders/internal/webhook"
	"vehicle-orders/pkg/logger"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kafkaPipeline struct {
	service   *order.OrderService
	processor webhook.Processor
	notifier  *recordingNotifier
	kafka     *testinfra.KafkaContainer
}

// setupKafkaPipeline wires the full async path: AsyncProcessor publishing to
// the notifications topic, a consumer feeding the message controller, and a
// DLQ topic for poison messages.
func setupKafkaPipeline(t *testing.T) *kafkaPipeline {
	t.Helper()
	ctx := context.Background()

	pg, err := testinfra.NewPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Cleanup(ctx) })

	kc, err := testinfra.NewKafka(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { kc.Cleanup(ctx) })

	l := logger.New("error")

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"verified": true})
	}))
	t.Cleanup(gateway.Close)

	verifier, err := paygate.New(l, gateway.URL, "/v1/notifications/verify", gateway.Client())
	require.NoError(t, err)

	notices := &recordingNotifier{}
	orderRepo := order_repo.NewPgOrderRepo(pg.Pool)
	orderService := order.NewOrderService(orderRepo, verifier, notices, nopSink{}, l)

	publisher := appkafka.NewPublisher(l, kc.Brokers, kc.NotificationsTopic)
	t.Cleanup(func() { publisher.Close() })
	processor := webhook.NewAsyncProcessor(publisher)

	dlq := appkafka.NewDLQPublisher(l, kc.Brokers, kc.DLQTopic)
	t.Cleanup(func() { dlq.Close() })
	controller := message.NewNotificationMessageController(l, orderService, dlq)

	consumer := appkafka.NewConsumer(l, kc.Brokers, kc.NotificationsTopic, kc.NotificationsGroup)
	runner := messaging.NewRunner(l, []messaging.Worker{consumer}, controller.HandleMessage)

	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go runner.Start(runCtx)

	return &kafkaPipeline{
		service:   orderService,
		processor: processor,
		notifier:  notices,
		kafka:     kc,
	}
}

func enqueueNotification(t *testing.T, p webhook.Processor, orderID, txnRef string, amount float64) {
	t.Helper()

	raw := fmt.Sprintf(`{"transaction_ref":%q,"order_id":%q,"amount":%v,"method":"card"}`, txnRef, orderID, amount)
	n := order.PaymentNotification{
		TransactionRef: txnRef,
		OrderId:        orderID,
		Amount:         amount,
		Method:         "card",
		RawPayload:     []byte(raw),
	}

	outcome, err := p.ProcessPaymentNotification(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, order.OutcomeAccepted, outcome)
}

func TestKafkaNotificationPipeline(t *testing.T) {
	env := setupKafkaPipeline(t)
	ctx := context.Background()

	newOrder := func(t *testing.T) order.Order {
		t.Helper()
		created, err := env.service.CreateOrder(ctx, order.CreateOrderRequest{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Items:     []order.LineItem{{Name: "Model S", UnitPrice: 45000, Quantity: 1}},
		})
		require.NoError(t, err)
		return created
	}

	t.Run("queued notification completes the order", func(t *testing.T) {
		created := newOrder(t)
		before := env.notifier.count()

		enqueueNotification(t, env.processor, created.OrderId, "txn-async", created.TotalPrice)

		require.Eventually(t, func() bool {
			o, err := env.service.GetOrderByID(ctx, created.OrderId)
			return err == nil && o.Status == order.StatusCompleted
		}, 60*time.Second, 250*time.Millisecond)

		completed, err := env.service.GetOrderByID(ctx, created.OrderId)
		require.NoError(t, err)
		require.NotNil(t, completed.PaymentDetail)
		assert.Equal(t, "txn-async", completed.PaymentDetail.TransactionRef)
		assert.Equal(t, before+1, env.notifier.count())
	})

	t.Run("redelivered duplicates do not repeat side effects", func(t *testing.T) {
		created := newOrder(t)
		before := env.notifier.count()

		enqueueNotification(t, env.processor, created.OrderId, "txn-dup", created.TotalPrice)
		enqueueNotification(t, env.processor, created.OrderId, "txn-dup", created.TotalPrice)
		enqueueNotification(t, env.processor, created.OrderId, "txn-dup", created.TotalPrice)

		require.Eventually(t, func() bool {
			o, err := env.service.GetOrderByID(ctx, created.OrderId)
			return err == nil && o.Status == order.StatusCompleted
		}, 60*time.Second, 250*time.Millisecond)

		assert.Never(t, func() bool {
			return env.notifier.count() > before+1
		}, 5*time.Second, 250*time.Millisecond)
	})

	t.Run("notification for unknown order lands on the DLQ", func(t *testing.T) {
		enqueueNotification(t, env.processor, "ghost-order", "txn-ghost", 100)

		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: env.kafka.Brokers,
			Topic:   env.kafka.DLQTopic,
			GroupID: fmt.Sprintf("dlq-check-%s", uuid.NewString()[:8]),
		})
		t.Cleanup(func() { reader.Close() })

		fetchCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
		defer cancel()

		msg, err := reader.FetchMessage(fetchCtx)
		require.NoError(t, err)
		assert.Equal(t, "ghost-order", string(msg.Key))

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Contains(t, headers["error"], "not found")
		assert.NotEmpty(t, headers["failed_at"])
	})
}
