package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// Config holds the service configuration read from the environment.
type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend string
	MongoURI    string
	MongoDB     string
	SQLitePath  string

	// Fuel reports
	HomeCountry          string
	MonthlyCloseSchedule string

	// MQTT fuel-record events
	MQTTBrokerURL string
	MQTTClientID  string
	MQTTTopic     string

	// Logging
	LogLevel  string
	LogFormat string

	// Rate limiting
	RateLimitRequests      int
	RateLimitWindowSeconds int
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// Missing files are not an error; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		MongoURI:    getEnv("MONGO_URI", ""),
		MongoDB:     getEnv("MONGO_DB", "fleet"),
		SQLitePath:  getEnv("SQLITE_DB_PATH", "./data/fleet.db"),

		HomeCountry:          getEnv("HOME_COUNTRY", "CZ"),
		MonthlyCloseSchedule: getEnv("MONTHLY_CLOSE_SCHEDULE", "0 3 1 * *"),

		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "fleet-fuel"),
		MQTTTopic:     getEnv("MQTT_TOPIC", "fleet/fuel-records"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RateLimitRequests:      getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "mongo":
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required when using mongo backend")
		}
		if c.MongoDB == "" {
			problems = append(problems, "MONGO_DB cannot be empty when using mongo backend")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [memory mongo sqlite]", c.DataBackend))
	}

	if _, err := language.ParseRegion(c.HomeCountry); err != nil {
		problems = append(problems, fmt.Sprintf("invalid home country '%s': must be an ISO 3166 region code", c.HomeCountry))
	}

	if c.MonthlyCloseSchedule != "" {
		if _, err := cron.ParseStandard(c.MonthlyCloseSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid monthly close schedule '%s': %v", c.MonthlyCloseSchedule, err))
		}
	}

	if c.MQTTBrokerURL != "" {
		if u, err := url.Parse(c.MQTTBrokerURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid MQTT broker URL '%s': %v", c.MQTTBrokerURL, err))
		} else {
			switch u.Scheme {
			case "tcp", "ssl", "tls", "mqtt", "mqtts", "ws", "wss":
			default:
				problems = append(problems, fmt.Sprintf("invalid MQTT broker URL scheme '%s'", u.Scheme))
			}
		}
		if c.MQTTTopic == "" {
			problems = append(problems, "MQTT topic cannot be empty when MQTT broker URL is provided")
		}
	}

	if err := validateLogging(c.LogLevel, c.LogFormat); err != nil {
		problems = append(problems, err.Error())
	}

	if c.RateLimitRequests < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be positive", c.RateLimitRequests))
	}
	if c.RateLimitWindowSeconds < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit window %d: must be positive", c.RateLimitWindowSeconds))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
