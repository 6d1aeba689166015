package config

import (
	"fmt"
	"net/url"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "MYPHONE"

// Config is the full process configuration, loaded from MYPHONE_*
// environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	PubSub PubSubConfig
	Outbox OutboxConfig
	Flags  FeatureFlags
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFmt   string `envconfig:"LOG_FORMAT" default:"json"`
	Service  string `envconfig:"SERVICE_NAME" default:"sales-engine"`
}

type DBConfig struct {
	DSN string `envconfig:"DB_DSN"`

	// Legacy split settings, used only when DSN is empty.
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"myphone"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET"`
}

type PubSubConfig struct {
	ProjectID string `envconfig:"PUBSUB_PROJECT_ID"`
	TopicID   string `envconfig:"PUBSUB_TOPIC_ID" default:"sale-events"`
}

type OutboxConfig struct {
	BatchSize    int `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	PollMillis   int `envconfig:"OUTBOX_POLL_MILLIS" default:"500"`
	MaxAttempts  int `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"10"`
	BackoffBase  int `envconfig:"OUTBOX_BACKOFF_BASE_MILLIS" default:"1000"`
	BackoffCapMs int `envconfig:"OUTBOX_BACKOFF_CAP_MILLIS" default:"60000"`
}

type FeatureFlags struct {
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"false"`
}

// Load reads .env (if present) and the MYPHONE_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}

// GormDSN returns the postgres DSN, assembling it from the split legacy
// settings when DB_DSN is unset.
func (c DBConfig) GormDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}
