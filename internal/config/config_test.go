package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:                   "8080",
		DataBackend:            "memory",
		MongoDB:                "fleet",
		SQLitePath:             "./data/fleet.db",
		HomeCountry:            "CZ",
		MonthlyCloseSchedule:   "0 3 1 * *",
		MQTTTopic:              "fleet/fuel-records",
		LogLevel:               "info",
		LogFormat:              "text",
		RateLimitRequests:      100,
		RateLimitWindowSeconds: 60,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{name: "valid memory config", mutate: func(c *Config) {}},
		{name: "valid sqlite config", mutate: func(c *Config) { c.DataBackend = "sqlite" }},
		{name: "valid mongo config", mutate: func(c *Config) {
			c.DataBackend = "mongo"
			c.MongoURI = "mongodb://localhost:27017"
		}},
		{name: "valid mqtt config", mutate: func(c *Config) { c.MQTTBrokerURL = "tcp://broker:1883" }},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.DataBackend = "postgres" },
			errorString: "invalid data backend 'postgres'",
		},
		{
			name:        "mongo without uri",
			mutate:      func(c *Config) { c.DataBackend = "mongo" },
			errorString: "MONGO_URI is required",
		},
		{
			name:        "sqlite without path",
			mutate:      func(c *Config) { c.DataBackend = "sqlite"; c.SQLitePath = "" },
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "bad home country",
			mutate:      func(c *Config) { c.HomeCountry = "Czechia" },
			errorString: "invalid home country 'Czechia'",
		},
		{
			name:        "bad cron schedule",
			mutate:      func(c *Config) { c.MonthlyCloseSchedule = "every month" },
			errorString: "invalid monthly close schedule",
		},
		{
			name:        "bad mqtt scheme",
			mutate:      func(c *Config) { c.MQTTBrokerURL = "http://broker:1883" },
			errorString: "invalid MQTT broker URL scheme 'http'",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "bad rate limit",
			mutate:      func(c *Config) { c.RateLimitRequests = 0 },
			errorString: "invalid rate limit 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port 'abc'")
	assert.Contains(t, err.Error(), "invalid log format 'xml'")
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_BACKEND", "HOME_COUNTRY", "RATE_LIMIT_REQUESTS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DataBackend)
	assert.Equal(t, "CZ", cfg.HomeCountry)
	assert.Equal(t, 120, cfg.RateLimitRequests)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DataBackend)
	assert.Equal(t, 120, cfg.RateLimitRequests)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FLEET_FUEL_TEST_VALUE=from-dotenv\n"), 0644))
	t.Setenv("FLEET_FUEL_TEST_VALUE", "")
	os.Unsetenv("FLEET_FUEL_TEST_VALUE")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("FLEET_FUEL_TEST_VALUE"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	require.NoError(t, ConfigureLogging("debug", "json"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	assert.Error(t, ConfigureLogging("verbose", "text"))
	assert.Error(t, ConfigureLogging("info", "xml"))
}
