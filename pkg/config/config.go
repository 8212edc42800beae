package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "partsdepot"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "PARTSDEPOT_DB_DSN"
	EnvDBHost = "PARTSDEPOT_DB_HOST"
	EnvDBUser = "PARTSDEPOT_DB_USER"
	EnvDBName = "PARTSDEPOT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Expense      ExpenseConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PARTSDEPOT_APP_ENV" required:"true"`
	Port         string `envconfig:"PARTSDEPOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PARTSDEPOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARTSDEPOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PARTSDEPOT_DB_DSN"`

	LegacyHost     string `envconfig:"PARTSDEPOT_DB_HOST"`
	LegacyPort     int    `envconfig:"PARTSDEPOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PARTSDEPOT_DB_USER"`
	LegacyPassword string `envconfig:"PARTSDEPOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PARTSDEPOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PARTSDEPOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTSDEPOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTSDEPOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTSDEPOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTSDEPOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARTSDEPOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PARTSDEPOT_REDIS_ADDR"`
	Password     string        `envconfig:"PARTSDEPOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARTSDEPOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARTSDEPOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARTSDEPOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARTSDEPOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARTSDEPOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARTSDEPOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PARTSDEPOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PARTSDEPOT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PARTSDEPOT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// ExpenseConfig controls whether posting a receipt also writes a cash expense
// row, and which ledger account it is tagged with.
type ExpenseConfig struct {
	EmitOnReceipt bool   `envconfig:"PARTSDEPOT_EXPENSE_EMIT_ON_RECEIPT" default:"true"`
	AccountTag    string `envconfig:"PARTSDEPOT_EXPENSE_ACCOUNT_TAG" default:"inventory_purchases"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PARTSDEPOT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
