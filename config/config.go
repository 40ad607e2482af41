package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	DatabaseDSN       string
	MigrationDir      string
	JWTSecret         string
	JWTExpiry         time.Duration
	KafkaHost         string
	OrderCreatedTopic string
	PaymentEventTopic string
	OutboxRelayLimit  int
}

var DefaultConfig = Config{
	HTTPAddr:          ":8080",
	DatabaseDSN:       "root:1@tcp(localhost:3306)/gocommerce?parseTime=true",
	MigrationDir:      "migration",
	JWTSecret:         "dev-only-secret",
	JWTExpiry:         24 * time.Hour,
	KafkaHost:         "localhost:29092",
	OrderCreatedTopic: "ORDER_CREATED_TOPIC",
	PaymentEventTopic: "PAYMENT_EVENT_TOPIC",
	OutboxRelayLimit:  100,
}

// Load returns DefaultConfig overridden by .env / environment variables.
// A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("MIGRATION_DIR"); v != "" {
		cfg.MigrationDir = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("KAFKA_HOST"); v != "" {
		cfg.KafkaHost = v
	}
	if v := os.Getenv("ORDER_CREATED_TOPIC"); v != "" {
		cfg.OrderCreatedTopic = v
	}
	if v := os.Getenv("PAYMENT_EVENT_TOPIC"); v != "" {
		cfg.PaymentEventTopic = v
	}
	return cfg
}
