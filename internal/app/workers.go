package app

import (
	"context"

	"vehicle-orders/config"
	"vehicle-orders/internal/controller/message"
	"vehicle-orders/internal/domain/order"
	"vehicle-orders/internal/external/kafka"
	"vehicle-orders/internal/messaging"
	"vehicle-orders/pkg/logger"
)

// StartWorkers starts the Kafka consumer for queued payment notifications.
// It runs in a separate goroutine and stops when ctx is cancelled.
func StartWorkers(
	ctx context.Context,
	l *logger.Logger,
	cfg config.Config,
	orderService *order.OrderService,
) {
	dlq := kafka.NewDLQPublisher(l, cfg.KafkaBrokers, cfg.KafkaNotificationsDLQTopic)

	controller := message.NewNotificationMessageController(l, orderService, dlq)
	consumer := kafka.NewConsumer(
		l,
		cfg.KafkaBrokers,
		cfg.KafkaNotificationsTopic,
		cfg.KafkaNotificationsConsumerGroup,
	)
	runner := messaging.NewRunner(l, []messaging.Worker{consumer}, controller.HandleMessage)

	go func() {
		l.Info("Starting payment notification consumer: topic=%s group=%s",
			cfg.KafkaNotificationsTopic, cfg.KafkaNotificationsConsumerGroup)
		if err := runner.Start(ctx); err != nil {
			l.Error("Notification runner failed: error=%v", err)
		}
	}()
}
