package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is centralized process configuration. Values load from an optional
// TOML file (GAVEL_CONFIG_FILE) with environment variables layered on top,
// so deployments can pin a file and still override per-process.
type Config struct {
	ServiceName  string   `toml:"service_name"`
	HTTPPort     string   `toml:"http_port"`
	PostgresDSN  string   `toml:"postgres_dsn"`
	KafkaBrokers []string `toml:"kafka_brokers"`

	// TokenLedgerURL points at the token contract service used to resolve
	// voting weights. Empty selects the in-process ledger, for local runs.
	TokenLedgerURL string `toml:"token_ledger_url"`

	OutboxTopic     string `toml:"outbox_topic"`
	OutboxBatchSize int    `toml:"outbox_batch_size"`

	EnableOutboxRelay bool `toml:"enable_outbox_relay"`
}

func Load() (Config, error) {
	cfg := Config{
		ServiceName:       "gavel",
		HTTPPort:          "8080",
		OutboxTopic:       "governance.events",
		OutboxBatchSize:   100,
		EnableOutboxRelay: true,
	}

	if path := strings.TrimSpace(os.Getenv("GAVEL_CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if service := strings.TrimSpace(os.Getenv("SERVICE_NAME")); service != "" {
		cfg.ServiceName = service
	}
	if port := strings.TrimSpace(os.Getenv("HTTP_PORT")); port != "" {
		cfg.HTTPPort = port
	}
	if dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN")); dsn != "" {
		cfg.PostgresDSN = dsn
	}
	if topic := strings.TrimSpace(os.Getenv("OUTBOX_TOPIC")); topic != "" {
		cfg.OutboxTopic = topic
	}
	if raw := strings.TrimSpace(os.Getenv("OUTBOX_BATCH_SIZE")); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			cfg.OutboxBatchSize = size
		}
	}
	if url := strings.TrimSpace(os.Getenv("TOKEN_LEDGER_URL")); url != "" {
		cfg.TokenLedgerURL = url
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}
	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}

	cfg.EnableOutboxRelay = envBool("ENABLE_OUTBOX_RELAY", cfg.EnableOutboxRelay)
	return cfg, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
