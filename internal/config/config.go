package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Backends
const (
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

// Config is the process-wide configuration. It is built once by Load and
// never mutated afterwards.
type Config struct {
	// Backend selection
	DataBackend   string
	MemoryDataDir string

	// Google service account
	ServiceAccountJSON string
	ServiceAccountFile string

	// Plans
	PlansFile string
	Plans     Plans

	// Run journal (disabled when empty)
	SQLiteDBPath string

	// AMQP run events (disabled when URL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

// Load reads the environment and the plans file it points to. A missing
// plans file yields an empty plan set; Validate reports it if a plan is
// needed.
func Load() (*Config, error) {
	cfg := &Config{
		DataBackend:   getEnv("DATA_BACKEND", BackendSheets),
		MemoryDataDir: getEnv("MEMORY_DATA_DIR", "data"),

		ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		PlansFile: getEnv("FINSHEETS_PLANS_FILE", "plans.yaml"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finsheets"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "run_events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	plans, err := LoadPlans(cfg.PlansFile)
	switch {
	case err == nil:
		cfg.Plans = plans
	case os.IsNotExist(err):
	default:
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch c.DataBackend {
	case BackendSheets:
		if c.ServiceAccountJSON == "" && c.ServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		} else if c.ServiceAccountJSON == "" {
			if _, err := os.Stat(c.ServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("service account file does not exist: %s", c.ServiceAccountFile))
			}
		}
	case BackendMemory:
		if c.MemoryDataDir == "" {
			errors = append(errors, "memory data directory cannot be empty when using memory backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, []string{BackendSheets, BackendMemory}))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	errors = append(errors, c.Plans.problems()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
