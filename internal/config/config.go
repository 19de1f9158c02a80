package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend  string
	DataFilePath string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Recurring worker
	RecurringInterval time.Duration

	// Advisor (local LLM endpoint)
	AdvisorURL     string
	AdvisorModel   string
	AdvisorTimeout time.Duration

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "file"),
		DataFilePath: getEnv("DATA_FILE_PATH", "./data/fintrack.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		RecurringInterval: getEnvDuration("RECURRING_INTERVAL", 1*time.Hour),

		AdvisorURL:     getEnv("ADVISOR_URL", "http://localhost:11434"),
		AdvisorModel:   getEnv("ADVISOR_MODEL", "llama3.1"),
		AdvisorTimeout: getEnvDuration("ADVISOR_TIMEOUT", 60*time.Second),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "file", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "file" && c.DataFilePath == "" {
		errors = append(errors, "data file path cannot be empty when using file backend")
	}
	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	// Validate AMQP URL if provided
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

	if c.RecurringInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}

	if c.AdvisorURL != "" {
		if parsedURL, err := url.Parse(c.AdvisorURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid advisor URL '%s': %v", c.AdvisorURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid advisor URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}
	if c.AdvisorTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid advisor timeout %v: must be at least 1 second", c.AdvisorTimeout))
	}

	// Validate Google Sheets configuration only when an export target is set
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}

		hasServiceAccount := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
		hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
		hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""
		if !hasServiceAccount && !(hasClient && hasToken) {
			errors = append(errors, "either a service account or an OAuth client+token must be provided for sheets export")
		}

		for name, path := range map[string]string{
			"service account": c.GoogleServiceAccountFile,
			"OAuth client":    c.GoogleOAuthClientFile,
			"OAuth token":     c.GoogleOAuthTokenFile,
		} {
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google %s file does not exist: %s", name, path))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
