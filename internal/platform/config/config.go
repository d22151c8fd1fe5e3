package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	liststr "habitat/pkg/platform/strings"
)

// Storage and lock backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Quorum policies.
const (
	QuorumMajority = "majority"
	QuorumFixed    = "fixed"
)

// Config is the full process configuration.
type Config struct {
	Server     Server
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Governance GovernanceConfig
	RateLimit  RateLimitConfig
	Auth       AuthConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `validate:"required"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
	LogFormat       string        `validate:"oneof=json text"`
	StorageBackend  string        `validate:"oneof=memory postgres"`
	LockBackend     string        `validate:"oneof=memory redis"`
	RequestTimeout  time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	// SeedFile, when set, is loaded into the membership store at startup.
	SeedFile string
}

type DatabaseConfig struct {
	URL          string `validate:"required_if=Backend postgres"`
	Backend      string
	MaxOpenConns int           `validate:"gte=1"`
	MaxIdleConns int           `validate:"gte=0"`
	TxTimeout    time.Duration `validate:"gt=0"`
}

type RedisConfig struct {
	URL          string `validate:"required_if=LockBackend redis"`
	LockBackend  string
	PoolSize     int           `validate:"gte=1"`
	MinIdleConns int           `validate:"gte=0"`
	DialTimeout  time.Duration `validate:"gt=0"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
	LockExpiry   time.Duration `validate:"gt=0"`
}

// KafkaConfig enables the audit outbox relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string        `validate:"required_with=Brokers"`
	Partitions    int32         `validate:"gte=1"`
	Replication   int16         `validate:"gte=1"`
	RelayInterval time.Duration `validate:"gt=0"`
}

type GovernanceConfig struct {
	VotingWindow       time.Duration `validate:"gt=0"`
	QuorumPolicy       string        `validate:"oneof=majority fixed"`
	ApproveThreshold   int           `validate:"gte=1"`
	RejectThreshold    int           `validate:"gte=1"`
	PolicyVersion      string        `validate:"required"`
	SweepSchedule      string        `validate:"required"`
	EscalationAttempts int           `validate:"gte=1"`
}

type RateLimitConfig struct {
	VotesPerSecond float64 `validate:"gte=0"`
	Burst          int     `validate:"gte=0"`
}

type AuthConfig struct {
	JWTSigningKey string `validate:"required,min=16"`
	JWTIssuer     string `validate:"required"`
	AdminToken    string
}

// FromEnv builds a Config from environment variables so main stays lean.
// Parse errors are collected and reported together.
func FromEnv() (Config, error) {
	p := &parser{}
	storage := p.str("STORAGE_BACKEND", BackendMemory)
	lockBackend := p.str("LOCK_BACKEND", BackendMemory)

	cfg := Config{
		Server: Server{
			Addr:            p.str("HABITAT_ADDR", ":8080"),
			LogLevel:        strings.ToLower(p.str("LOG_LEVEL", "info")),
			LogFormat:       strings.ToLower(p.str("LOG_FORMAT", "json")),
			StorageBackend:  storage,
			LockBackend:     lockBackend,
			RequestTimeout:  p.duration("REQUEST_TIMEOUT", 10*time.Second),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
			SeedFile:        p.str("SEED_FILE", ""),
		},
		Database: DatabaseConfig{
			URL:          p.str("DATABASE_URL", ""),
			Backend:      storage,
			MaxOpenConns: p.integer("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns: p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			TxTimeout:    p.duration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			LockBackend:  lockBackend,
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockExpiry:   p.duration("REDIS_LOCK_EXPIRY", 8*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       p.list("KAFKA_BROKERS"),
			AuditTopic:    p.str("KAFKA_AUDIT_TOPIC", "habitat.governance.audit"),
			Partitions:    int32(p.integer("KAFKA_AUDIT_PARTITIONS", 3)),
			Replication:   int16(p.integer("KAFKA_AUDIT_REPLICATION", 1)),
			RelayInterval: p.duration("KAFKA_RELAY_INTERVAL", 2*time.Second),
		},
		Governance: GovernanceConfig{
			VotingWindow:       p.duration("VOTING_WINDOW", 72*time.Hour),
			QuorumPolicy:       strings.ToLower(p.str("QUORUM_POLICY", QuorumMajority)),
			ApproveThreshold:   p.integer("QUORUM_APPROVE_THRESHOLD", 5),
			RejectThreshold:    p.integer("QUORUM_REJECT_THRESHOLD", 3),
			PolicyVersion:      p.str("QUORUM_POLICY_VERSION", "v1"),
			SweepSchedule:      p.str("SWEEP_SCHEDULE", "@every 1m"),
			EscalationAttempts: p.integer("COMMIT_ESCALATION_ATTEMPTS", 5),
		},
		RateLimit: RateLimitConfig{
			VotesPerSecond: p.float("VOTE_RATE_LIMIT", 2),
			Burst:          p.integer("VOTE_RATE_BURST", 5),
		},
		Auth: AuthConfig{
			// Use a default for development; override in production.
			JWTSigningKey: p.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     p.str("JWT_ISSUER", "habitat"),
			AdminToken:    p.str("ADMIN_TOKEN", ""),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects invalid values and combinations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// KafkaEnabled reports whether the audit relay should run.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config %s: %w", key, err)
	}
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) list(key string) []string {
	return liststr.SplitList(p.str(key, ""), ",")
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return f
}
