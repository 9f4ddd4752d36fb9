package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	Admin     AdminConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Store     StoreConfig
	Referral  ReferralConfig
	Stars     StarsConfig
	Cryptomus CryptomusConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"16"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" default:"1"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

// Admin credentials are a single operator account; the password is stored as a bcrypt hash.
type AdminConfig struct {
	Username      string `envconfig:"ADMIN_USERNAME" default:"admin"`
	PasswordHash  string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`
	JWTSecret     string `envconfig:"ADMIN_JWT_SECRET" required:"true"`
	TokenDuration string `envconfig:"ADMIN_TOKEN_DURATION" default:"12h"`
}

// Empty Addr disables the webhook outcome cache.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	Timeout  time.Duration `envconfig:"REDIS_TIMEOUT" default:"2s"`
}

// Empty Brokers switches delivery to the log sink.
type KafkaConfig struct {
	Brokers       []string      `envconfig:"KAFKA_BROKERS"`
	DeliveryTopic string        `envconfig:"KAFKA_DELIVERY_TOPIC" default:"store.delivery"`
	WriteTimeout  time.Duration `envconfig:"KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type StoreConfig struct {
	Backend           string        `envconfig:"STORE_BACKEND" default:"postgres"`
	CatalogPath       string        `envconfig:"STORE_CATALOG_PATH" default:"data/products.json"`
	OrderTTL          time.Duration `envconfig:"STORE_ORDER_TTL" default:"15m"`
	ReserveAttempts   int           `envconfig:"STORE_RESERVE_ATTEMPTS" default:"5"`
	AdvanceAttempts   int           `envconfig:"STORE_ADVANCE_ATTEMPTS" default:"3"`
	SweepInterval     time.Duration `envconfig:"STORE_SWEEP_INTERVAL" default:"2m"`
	SweepBatch        int           `envconfig:"STORE_SWEEP_BATCH" default:"100"`
	ReconcileInterval time.Duration `envconfig:"STORE_RECONCILE_INTERVAL" default:"1m"`
	ReconcileAfter    time.Duration `envconfig:"STORE_RECONCILE_AFTER" default:"2m"`
	JobPollInterval   time.Duration `envconfig:"STORE_JOB_POLL_INTERVAL" default:"5s"`
	JobBatch          int           `envconfig:"STORE_JOB_BATCH" default:"20"`
	JobLease          time.Duration `envconfig:"STORE_JOB_LEASE" default:"1m"`
	JobMaxAttempts    int           `envconfig:"STORE_JOB_MAX_ATTEMPTS" default:"8"`
	GatewayTimeout    time.Duration `envconfig:"STORE_GATEWAY_TIMEOUT" default:"10s"`
	WebhookTimeout    time.Duration `envconfig:"STORE_WEBHOOK_TIMEOUT" default:"15s"`
	StatsInterval     time.Duration `envconfig:"STORE_STATS_INTERVAL" default:"1h"`
}

// Rates are percentages per level, level 1 first.
type ReferralConfig struct {
	Enabled  bool     `envconfig:"REFERRAL_ENABLED" default:"true"`
	Rates    []string `envconfig:"REFERRAL_RATES" default:"10,5,2"`
	MaxDepth int      `envconfig:"REFERRAL_MAX_DEPTH" default:"3"`
}

type StarsConfig struct {
	Enabled       bool   `envconfig:"STARS_ENABLED" default:"true"`
	WebhookSecret string `envconfig:"STARS_WEBHOOK_SECRET"`
}

type CryptomusConfig struct {
	Enabled     bool   `envconfig:"CRYPTOMUS_ENABLED" default:"false"`
	MerchantID  string `envconfig:"CRYPTOMUS_MERCHANT_ID"`
	APIKey      string `envconfig:"CRYPTOMUS_API_KEY"`
	BaseURL     string `envconfig:"CRYPTOMUS_BASE_URL" default:"https://api.cryptomus.com"`
	CallbackURL string `envconfig:"CRYPTOMUS_CALLBACK_URL"`
	ReturnURL   string `envconfig:"CRYPTOMUS_RETURN_URL"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c *AdminConfig) TokenTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.TokenDuration)
	if err != nil {
		return 0, fmt.Errorf("invalid ADMIN_TOKEN_DURATION: %w", err)
	}
	return d, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("DB_USER and DB_NAME are required for the %s backend", BackendPostgres)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Cryptomus.Enabled && (c.Cryptomus.MerchantID == "" || c.Cryptomus.APIKey == "") {
		return fmt.Errorf("CRYPTOMUS_MERCHANT_ID and CRYPTOMUS_API_KEY are required when cryptomus is enabled")
	}
	return nil
}

// LoadConfig reads an optional .env file (ENV_FILE overrides the path) and then the process environment.
func LoadConfig() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 8,
			MinConns: 1,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       time.Hour,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Admin: AdminConfig{
			Username:      "admin",
			JWTSecret:     "test-secret",
			TokenDuration: "1h",
		},
		Kafka: KafkaConfig{
			DeliveryTopic: "store.delivery",
			WriteTimeout:  time.Second,
		},
		Store: StoreConfig{
			Backend:           BackendMemory,
			CatalogPath:       "testdata/products.json",
			OrderTTL:          15 * time.Minute,
			ReserveAttempts:   5,
			AdvanceAttempts:   3,
			SweepInterval:     time.Minute,
			SweepBatch:        100,
			ReconcileInterval: time.Minute,
			ReconcileAfter:    2 * time.Minute,
			JobPollInterval:   time.Second,
			JobBatch:          20,
			JobLease:          time.Minute,
			JobMaxAttempts:    3,
			GatewayTimeout:    time.Second,
			WebhookTimeout:    5 * time.Second,
		},
		Referral: ReferralConfig{
			Enabled:  true,
			Rates:    []string{"10", "5", "2"},
			MaxDepth: 3,
		},
		Stars: StarsConfig{
			Enabled: true,
		},
	}
}
