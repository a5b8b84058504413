package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	devSyncInterval = 2 * time.Minute
)

type Config struct {
	Port         string        `env:"PORT,      default=8080"`
	Env          string        `env:"ENV,       default=development"`
	LogLevel     string        `env:"LOG_LEVEL, default=info"`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL, default=12h"`
	CronSecret   string        `env:"CRON_SECRET"`
	WebhookToken string        `env:"WEBHOOK_TOKEN"`

	Delhivery DelhiveryConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Sync      SyncConfig
	EditLimit EditLimitConfig
	Telemetry TelemetryConfig
}

type DelhiveryConfig struct {
	Token          string        `env:"DELHIVERY_TOKEN"`
	BaseURL        string        `env:"DELHIVERY_BASE_URL,        default=https://track.delhivery.com"`
	Timeout        time.Duration `env:"DELHIVERY_TIMEOUT,         default=30s"`
	OriginPincode  string        `env:"DELHIVERY_ORIGIN_PINCODE"`
	OriginState    string        `env:"DELHIVERY_ORIGIN_STATE"`
	PickupLocation string        `env:"DELHIVERY_PICKUP_LOCATION"`
	PickupTime     string        `env:"DELHIVERY_PICKUP_TIME,     default=11:00:00"`
	UseMock        bool          `env:"DELHIVERY_USE_MOCK,        default=false"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=shipping_admin"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SyncConfig struct {
	// Interval is zero when SYNC_INTERVAL is unset; Load fills the
	// environment default.
	Interval       time.Duration `env:"SYNC_INTERVAL"`
	Delay          time.Duration `env:"SYNC_DELAY,          default=1s"`
	// Timeout bounds one full sweep, scheduled or cron-triggered.
	Timeout        time.Duration `env:"SYNC_TIMEOUT,        default=30m"`
	OnStart        bool          `env:"SYNC_ON_START,       default=false"`
	WebhookWorkers int           `env:"WEBHOOK_WORKERS,     default=8"`
}

type EditLimitConfig struct {
	PerMinute int `env:"EDIT_RATE_PER_MIN, default=10"`
	Burst     int `env:"EDIT_BURST,        default=5"`
}

type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED,  default=false"`
	Endpoint    string `env:"OTEL_ENDPOINT, default=localhost:4318"`
	Insecure    bool   `env:"OTEL_INSECURE, default=true"`
	ServiceName string `env:"SERVICE_NAME,  default=shipping-admin"`
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = 15 * time.Minute
		if cfg.Env == EnvDevelopment {
			cfg.Sync.Interval = devSyncInterval
		}
	}

	switch cfg.Store.Driver {
	case StoreMongo:
	case StorePostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("config: POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required in production")
	}
	return &cfg, nil
}
