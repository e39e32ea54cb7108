package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendCRDB   = "crdb"
)

type Config struct {
	StoreBackend   string
	CRDBDSN        string
	MongoURI       string
	RedisAddr      string
	RabbitURL      string
	OTLPEndpoint   string
	HTTPAddr       string
	LogLevel       string
	VenueTZ        string
	StoreLabel     string
	PointsPerGuest int
	PaidTicketRate float64
	TicketValidity time.Duration
	ExpiryInterval time.Duration
	IdempotencyTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoreBackend:   getEnv("STORE_BACKEND", BackendMemory),
		CRDBDSN:        os.Getenv("CRDB_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		VenueTZ:        getEnv("VENUE_TZ", "Local"),
		StoreLabel:     getEnv("STORE_LABEL", "main"),
		PointsPerGuest: getEnvAsInt("POINTS_PER_GUEST", 10),
		PaidTicketRate: getEnvAsFloat("PAID_TICKET_PRICE", 98),
		TicketValidity: getEnvAsDuration("TICKET_VALIDITY", 0),
		ExpiryInterval: getEnvAsDuration("EXPIRY_INTERVAL", time.Minute),
		IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store backend")
		}
	case BackendCRDB:
		if c.CRDBDSN == "" {
			return errors.New("CRDB_DSN is required for the crdb store backend")
		}
	default:
		return errors.Newf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.PointsPerGuest < 0 {
		return errors.Newf("POINTS_PER_GUEST must not be negative, got %d", c.PointsPerGuest)
	}
	if c.PaidTicketRate < 0 {
		return errors.Newf("PAID_TICKET_PRICE must not be negative, got %v", c.PaidTicketRate)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the time zone booking slots are scheduled in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.VenueTZ)
	if err != nil {
		return nil, errors.Wrapf(err, "VENUE_TZ %q", c.VenueTZ)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
