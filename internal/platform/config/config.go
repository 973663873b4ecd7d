package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	TokenSigningKey string
	TokenTTL        time.Duration
	AdminTokenHash  string
	TrustedProxies  []string
	MaxBodyBytes    int64
	RequestTimeout  time.Duration

	// SeedDemoData populates the instance with demo roles, courses, and
	// certificates at startup. Development only.
	SeedDemoData bool
}

// Governance captures the operational limits of certificate governance:
// proposal lifetimes, sweep pacing, and traversal bounds.
type Governance struct {
	// SweepInterval is how often the expiry worker scans for lapsed
	// certificates and stale approval requests.
	SweepInterval time.Duration

	// SweepBatchSize bounds how many records a single sweep pass may
	// transition, keeping sweep latency predictable.
	SweepBatchSize int

	// RenewalWindow is how close to expiry a certificate must be before
	// a renewal request is accepted.
	RenewalWindow time.Duration

	// NotificationLead is how far ahead of expiry holders are notified.
	NotificationLead time.Duration

	// MaxMintBatch bounds the number of certificates in one batch mint.
	MaxMintBatch int

	// MaxBulkBatch bounds bulk eligibility checks per request.
	MaxBulkBatch int

	// MaxGraphNodes bounds the number of courses a prerequisite graph
	// traversal may visit before aborting.
	MaxGraphNodes int

	// MaxTraversalDepth bounds prerequisite chain depth.
	MaxTraversalDepth int

	// PolicyPath points at the YAML governance policy document loaded at
	// startup. Empty means the built-in defaults are used.
	PolicyPath string
}

// DatabaseConfig holds Postgres connection configuration.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds Kafka producer configuration for the audit pipeline.
type KafkaConfig struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	AuditTopic      string
}

// Config aggregates all runtime configuration.
type Config struct {
	Server     Server
	Governance Governance
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
}

// Default limits. Overridable via environment for load testing; the
// defaults match the governance policy shipped with the service.
var (
	DefaultSweepInterval     = time.Minute
	DefaultSweepBatchSize    = 200
	DefaultRenewalWindow     = 30 * 24 * time.Hour
	DefaultNotificationLead  = 14 * 24 * time.Hour
	DefaultMaxMintBatch      = 50
	DefaultMaxBulkBatch      = 100
	DefaultMaxGraphNodes     = 512
	DefaultMaxTraversalDepth = 64
)

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	signingKey := os.Getenv("TOKEN_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:            envOr("LAUREL_ADDR", ":8080"),
			Environment:     envOr("LAUREL_ENV", "development"),
			TokenSigningKey: signingKey,
			TokenTTL:        envDuration("TOKEN_TTL", 15*time.Minute),
			AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
			TrustedProxies:  splitNonEmpty(os.Getenv("TRUSTED_PROXIES")),
			MaxBodyBytes:    int64(envInt("MAX_BODY_BYTES", 1<<20)),
			RequestTimeout:  envDuration("REQUEST_TIMEOUT", 30*time.Second),
			SeedDemoData:    envBool("SEED_DEMO_DATA", false),
		},
		Governance: Governance{
			SweepInterval:     envDuration("EXPIRY_SWEEP_INTERVAL", DefaultSweepInterval),
			SweepBatchSize:    envInt("EXPIRY_SWEEP_BATCH", DefaultSweepBatchSize),
			RenewalWindow:     envDuration("RENEWAL_WINDOW", DefaultRenewalWindow),
			NotificationLead:  envDuration("NOTIFICATION_LEAD", DefaultNotificationLead),
			MaxMintBatch:      envInt("MAX_MINT_BATCH", DefaultMaxMintBatch),
			MaxBulkBatch:      envInt("MAX_BULK_BATCH", DefaultMaxBulkBatch),
			MaxGraphNodes:     envInt("MAX_GRAPH_NODES", DefaultMaxGraphNodes),
			MaxTraversalDepth: envInt("MAX_TRAVERSAL_DEPTH", DefaultMaxTraversalDepth),
			PolicyPath:        os.Getenv("POLICY_PATH"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Acks:            envOr("KAFKA_ACKS", "all"),
			Retries:         envInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
			AuditTopic:      envOr("KAFKA_AUDIT_TOPIC", "laurel.audit.events"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
