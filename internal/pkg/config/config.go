package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Booking BookingConfig
	Lock    LockConfig
	Notify  NotifyConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
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

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// Store selects the booking persistence backend: "postgres" or "memory".
type BookingConfig struct {
	Store          string        `envconfig:"BOOKING_STORE" default:"postgres"`
	RequestTimeout time.Duration `envconfig:"BOOKING_REQUEST_TIMEOUT" default:"3s"`
	RetryDelay     time.Duration `envconfig:"BOOKING_RETRY_DELAY" default:"50ms"`
}

// Backend selects the per-resource write lock: "advisory" (postgres) or "redis".
type LockConfig struct {
	Backend       string        `envconfig:"LOCK_BACKEND" default:"advisory"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"LOCK_TTL" default:"8s"`
	KeyPrefix     string        `envconfig:"LOCK_KEY_PREFIX" default:"booking:resource:"`
}

// An empty AMQPURL routes notifications to the log sink.
type NotifyConfig struct {
	AMQPURL      string        `envconfig:"NOTIFY_AMQP_URL" default:""`
	Exchange     string        `envconfig:"NOTIFY_EXCHANGE" default:"booking.events"`
	PollInterval time.Duration `envconfig:"NOTIFY_POLL_INTERVAL" default:"2s"`
	BatchSize    int           `envconfig:"NOTIFY_BATCH_SIZE" default:"50"`
	MaxAttempts  int           `envconfig:"NOTIFY_MAX_ATTEMPTS" default:"8"`
	Lease        time.Duration `envconfig:"NOTIFY_LEASE" default:"30s"`
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	LockAdvisory = "advisory"
	LockRedis    = "redis"
)

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c Config) Validate() error {
	switch c.Booking.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown BOOKING_STORE %q", c.Booking.Store)
	}
	switch c.Lock.Backend {
	case LockAdvisory, LockRedis:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.Booking.RequestTimeout <= 0 {
		return fmt.Errorf("BOOKING_REQUEST_TIMEOUT must be positive")
	}
	if c.Notify.BatchSize <= 0 || c.Notify.MaxAttempts <= 0 {
		return fmt.Errorf("NOTIFY_BATCH_SIZE and NOTIFY_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
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
			MaxConns: 20,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "1h",
		},
		Booking: BookingConfig{
			Store:          StoreMemory,
			RequestTimeout: 3 * time.Second,
			RetryDelay:     10 * time.Millisecond,
		},
		Lock: LockConfig{
			Backend:   LockAdvisory,
			TTL:       8 * time.Second,
			KeyPrefix: "booking:resource:",
		},
		Notify: NotifyConfig{
			Exchange:     "booking.events",
			PollInterval: 50 * time.Millisecond,
			BatchSize:    50,
			MaxAttempts:  3,
			Lease:        5 * time.Second,
		},
	}
}
