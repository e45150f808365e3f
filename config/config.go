package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the user service. Everything is
// loaded once at startup and never mutated afterwards.
type Config struct {
	// Database settings
	DBDir string

	// Server settings
	ServerPort string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Authentication settings
	JwtKey          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	// Google OAuth settings
	GoogleClientID    string
	GoogleSecret      string
	GoogleRedirectURL string
	DashboardURL      string

	// Kafka settings
	KafkaBrokerAddress string
	KafkaClientID      string
}

// Load reads configuration from environment variables and command-line flags.
func Load() *Config {
	config := &Config{
		// Defaults
		DBDir:              getEnv("DB_DIR", "./data"),
		ServerPort:         getEnv("SERVER_PORT", ":9002"),
		MaxOpenConns:       getIntEnv("DB_MAX_OPEN_CONNS", 1),
		MaxIdleConns:       getIntEnv("DB_MAX_IDLE_CONNS", 1),
		ConnMaxLifetime:    getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		JwtKey:             os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:      getDurationEnv("RESET_TOKEN_TTL", time.Hour),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:       getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:9002/auth/login/google/redirect"),
		DashboardURL:       getEnv("DASHBOARD_URL", "http://localhost:3000"),
		KafkaBrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", "localhost:9092"),
		KafkaClientID:      getEnv("KAFKA_CLIENT_ID", "user-service"),
	}

	if config.JwtKey == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable is not set")
	}

	// Command-line flags override environment variables
	flag.StringVar(&config.ServerPort, "port", config.ServerPort, "Server port")
	flag.StringVar(&config.DBDir, "db-dir", config.DBDir, "Database directory")
	flag.StringVar(&config.KafkaBrokerAddress, "kafka-broker", config.KafkaBrokerAddress, "Kafka broker address")

	flag.Parse()

	return config
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable or returns a default value.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("[WARN] Invalid integer value for %s, using default: %d", key, defaultValue)
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable or returns a default value.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("[WARN] Invalid duration value for %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}
