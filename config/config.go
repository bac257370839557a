package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Notification processing modes.
const (
	NotificationModeSync  = "sync"
	NotificationModeKafka = "kafka"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL" required:"true"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	PaygateBaseURL           string        `env:"PAYGATE_BASE_URL" required:"true"`
	PaygateVerifyPath        string        `env:"PAYGATE_VERIFY_PATH" envDefault:"/v1/notifications/verify"`
	HTTPPaygateClientTimeout time.Duration `env:"HTTP_PAYGATE_CLIENT_TIMEOUT" envDefault:"10s"`

	// Notification processing mode: "sync" (direct) or "kafka" (async via Kafka)
	NotificationMode string `env:"NOTIFICATION_MODE" envDefault:"sync"`

	// Kafka configuration
	KafkaBrokers                    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaNotificationsTopic         string   `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"payments.notifications"`
	KafkaNotificationsConsumerGroup string   `env:"KAFKA_NOTIFICATIONS_CONSUMER_GROUP" envDefault:"vehicle-orders-notifications"`
	KafkaNotificationsDLQTopic      string   `env:"KAFKA_NOTIFICATIONS_DLQ_TOPIC" envDefault:"payments.notifications.dlq"`
	KafkaCompletionNoticesTopic     string   `env:"KAFKA_COMPLETION_NOTICES_TOPIC" envDefault:"orders.completion-notices"`

	// OpenSearch transition audit sink (optional; disabled when empty)
	OpensearchUrls             []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexTransitions string   `env:"OPENSEARCH_INDEX_TRANSITIONS" envDefault:"order-transitions"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if c.NotificationMode != NotificationModeSync && c.NotificationMode != NotificationModeKafka {
		return Config{}, fmt.Errorf("invalid NOTIFICATION_MODE: %s", c.NotificationMode)
	}
	if c.NotificationMode == NotificationModeKafka && len(c.KafkaBrokers) == 0 {
		return Config{}, errors.New("KAFKA_BROKERS is required when NOTIFICATION_MODE=kafka")
	}

	return c, nil
}
