package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DeliveryParticipants = "participants"
	DeliveryBroadcast    = "broadcast"

	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Port              string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	StorageDriver     string

	JWTSecret   string
	TokenExpiry time.Duration

	UploadDir   string
	MaxUploadMB int64
	CORSOrigin  string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	ChatDeliveryMode  string
	ReconcileSchedule string
	LogLevel          string
}

// LoadConfig reads a .env file if present and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, reading configuration from environment")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "5000"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "social_network"),
		MongoTransactions: getBool("MONGO_TRANSACTIONS", false),
		StorageDriver:     getEnv("STORAGE_DRIVER", StorageMongo),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenExpiry:       getDuration("TOKEN_EXPIRY", time.Hour),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadMB:       int64(getInt("MAX_UPLOAD_MB", 10)),
		CORSOrigin:        getEnv("CORS_ORIGIN", "http://localhost:5000"),
		RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		ChatDeliveryMode:  getEnv("CHAT_DELIVERY_MODE", DeliveryParticipants),
		ReconcileSchedule: lookupEnv("RECONCILE_SCHEDULE", "@hourly"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and enumerations are known.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not defined")
	}
	switch c.StorageDriver {
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is not defined")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.ChatDeliveryMode {
	case DeliveryParticipants, DeliveryBroadcast:
	default:
		return fmt.Errorf("unknown CHAT_DELIVERY_MODE %q", c.ChatDeliveryMode)
	}
	if c.TokenExpiry <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY must be positive")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// lookupEnv is like getEnv but keeps an explicitly empty value.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
