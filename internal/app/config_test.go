package app_test

import (
	"testing"
	"time"

	"github.com/liormulay/order-processing-system/internal/app"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := app.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTPAddr != ":8080" || cfg.MetricsAddr != ":9090" {
		t.Fatalf("unexpected listen addresses: %q %q", cfg.HTTPAddr, cfg.MetricsAddr)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.OrderEventsTopic != "order-events" || cfg.InventoryResultsTopic != "inventory-check-results" {
		t.Fatalf("unexpected topics %q %q", cfg.OrderEventsTopic, cfg.InventoryResultsTopic)
	}
	if cfg.DeadLetterTopic != "orders.dlq" || cfg.ConsumerMaxRetries != 3 {
		t.Fatalf("unexpected DLQ settings %q %d", cfg.DeadLetterTopic, cfg.ConsumerMaxRetries)
	}
	if cfg.StoreBackend != "redis" {
		t.Fatalf("unexpected default store backend %q", cfg.StoreBackend)
	}
	if cfg.CleanupInterval != 10*time.Minute {
		t.Fatalf("unexpected cleanup interval %s", cfg.CleanupInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CONSUMER_MAX_RETRIES", "5")

	cfg, err := app.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.StoreBackend != "memory" || cfg.ConsumerMaxRetries != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
