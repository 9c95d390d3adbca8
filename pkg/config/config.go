package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Loyalty      LoyaltyConfig
	Reconcile    ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KASIRPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"KASIRPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KASIRPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KASIRPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KASIRPOS_DB_DSN"`
	Driver string `envconfig:"KASIRPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KASIRPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"KASIRPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KASIRPOS_DB_USER"`
	LegacyPassword string `envconfig:"KASIRPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"KASIRPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"KASIRPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KASIRPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KASIRPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KASIRPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KASIRPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either KASIRPOS_DB_DSN or host/user/name parts are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"KASIRPOS_REDIS_URL"`
	Address      string        `envconfig:"KASIRPOS_REDIS_ADDR"`
	Password     string        `envconfig:"KASIRPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"KASIRPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KASIRPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KASIRPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KASIRPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KASIRPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KASIRPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KASIRPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KASIRPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KASIRPOS_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKiB    uint32 `envconfig:"KASIRPOS_ARGON_MEMORY_KIB" default:"65536"`
	ArgonTime         uint32 `envconfig:"KASIRPOS_ARGON_TIME" default:"3"`
	ArgonParallelism  uint8  `envconfig:"KASIRPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLenBytes uint32 `envconfig:"KASIRPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLenBytes  uint32 `envconfig:"KASIRPOS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KASIRPOS_AUTO_MIGRATE" default:"false"`
}

// LoyaltyConfig carries the point accrual rate. One point is earned per
// AccrualUnit of net revenue (subtotal minus redeemed discount).
type LoyaltyConfig struct {
	AccrualUnit int64 `envconfig:"KASIRPOS_LOYALTY_ACCRUAL_UNIT" default:"10000"`
}

type ReconcileConfig struct {
	PollInterval time.Duration `envconfig:"KASIRPOS_RECONCILE_POLL_INTERVAL" default:"15s"`
	BatchSize    int           `envconfig:"KASIRPOS_RECONCILE_BATCH_SIZE" default:"50"`
	MaxAttempts  int           `envconfig:"KASIRPOS_RECONCILE_MAX_ATTEMPTS" default:"10"`
}
