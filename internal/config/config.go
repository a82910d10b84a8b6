package config

import (
	"fmt"
	"time"

	"github.com/vinylen2/ellabib-server/internal/domain"
	pkgconfig "github.com/vinylen2/ellabib-server/pkg/config"
)

// Membership cardinality modes. In "single" mode every user is expected to
// belong to exactly one class and the reconcile sweep logs violations; in
// "many" mode multi-class users are accepted and double count across scopes.
const (
	MembershipSingle = "single"
	MembershipMany   = "many"
)

// Config holds all configuration for the ellabib server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"ELLABIB_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ellabib"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ellabib_secret"`
	PostgresDB   string `env:"ELLABIB_DB_NAME" envDefault:"ellabib_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis leaderboard cache
	RedisAddr           string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass           string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`
	LeaderboardCache    bool          `env:"LEADERBOARD_CACHE_ENABLED" envDefault:"true"`
	LeaderboardCacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"5m"`

	// Scoring
	ScoringWeightMode string `env:"SCORING_WEIGHT_MODE" envDefault:"pages"`
	ScoringFlatBase   int    `env:"SCORING_FLAT_BASE" envDefault:"10"`

	// Membership cardinality: "single" or "many"
	MembershipCardinality string `env:"MEMBERSHIP_CARDINALITY" envDefault:"many"`

	// Rating reconcile sweep interval; 0 disables the sweep.
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load ellabib config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !domain.ValidWeightMode(c.ScoringWeightMode) {
		return fmt.Errorf("SCORING_WEIGHT_MODE must be %q or %q, got %q",
			domain.WeightModePages, domain.WeightModeFlat, c.ScoringWeightMode)
	}
	if c.ScoringFlatBase < 1 {
		return fmt.Errorf("SCORING_FLAT_BASE must be positive, got %d", c.ScoringFlatBase)
	}
	if c.MembershipCardinality != MembershipSingle && c.MembershipCardinality != MembershipMany {
		return fmt.Errorf("MEMBERSHIP_CARDINALITY must be %q or %q, got %q",
			MembershipSingle, MembershipMany, c.MembershipCardinality)
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must not be negative, got %s", c.ReconcileInterval)
	}
	return nil
}

// ScoringPolicy builds the scoring policy from configuration.
func (c *Config) ScoringPolicy() domain.ScoringPolicy {
	policy := domain.DefaultScoringPolicy()
	policy.WeightMode = c.ScoringWeightMode
	policy.FlatBase = c.ScoringFlatBase
	return policy
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
