package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean.
type Server struct {
	Addr         string
	AdminToken   string
	PostgresURL  string
	Redis        RedisConfig
	Kafka        KafkaConfig
	InventoryTTL time.Duration
}

// RedisConfig holds connection settings for the optional inventory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker settings for the optional audit publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("CARDFLEET_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	token := os.Getenv("CARDFLEET_ADMIN_TOKEN")
	if token == "" {
		// Development default - must be overridden in production.
		token = "dev-admin-token"
	}

	topic := os.Getenv("CARDFLEET_AUDIT_TOPIC")
	if topic == "" {
		topic = "cardfleet.audit.v1"
	}

	var brokers []string
	if b := os.Getenv("CARDFLEET_KAFKA_BROKERS"); b != "" {
		brokers = splitCSV(b)
	}

	return Server{
		Addr:        addr,
		AdminToken:  token,
		PostgresURL: os.Getenv("CARDFLEET_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CARDFLEET_REDIS_URL"),
			PoolSize:     envInt("CARDFLEET_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CARDFLEET_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		InventoryTTL: envDuration("CARDFLEET_INVENTORY_CACHE_TTL", 30*time.Second),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
