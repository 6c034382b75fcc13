package app

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config описывает настройки сервисов конвейера. Все значения читаются
// из окружения; имена топиков настраиваемы, их семантика фиксирована.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	KafkaBrokers          []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OrderEventsTopic      string   `envconfig:"ORDER_EVENTS_TOPIC" default:"order-events"`
	InventoryResultsTopic string   `envconfig:"INVENTORY_RESULTS_TOPIC" default:"inventory-check-results"`
	DeadLetterTopic       string   `envconfig:"DEAD_LETTER_TOPIC" default:"orders.dlq"`
	ConsumerMaxRetries    int      `envconfig:"CONSUMER_MAX_RETRIES" default:"3"`
	InventoryGroupID      string   `envconfig:"INVENTORY_GROUP_ID" default:"inventory-service-group"`
	NotificationGroupID   string   `envconfig:"NOTIFICATION_GROUP_ID" default:"notification-service-group"`

	// StoreBackend выбирает бэкенд общего хранилища: redis | postgres | memory.
	StoreBackend  string        `envconfig:"STORE_BACKEND" default:"redis"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	PostgresDSN   string        `envconfig:"POSTGRES_DSN" default:""`
	// CleanupInterval задаёт период удаления просроченных записей
	// для бэкендов без собственного TTL (postgres).
	CleanupInterval time.Duration `envconfig:"STORE_CLEANUP_INTERVAL" default:"10m"`
}

// Load читает конфигурацию из переменных окружения.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
