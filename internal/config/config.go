package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// SQLite (local backend)
	SQLiteDBPath string

	// Remote backend
	RemoteBaseURL string
	RemoteAPIKey  string

	// AMQP mutation events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Auth
	TokenSecret string
	TokenTTL    time.Duration

	// Advice generator (optional)
	GeminiAPIKey  string
	GeminiModel   string
	AdviceTimeout time.Duration

	// Default language for fallback strings
	DefaultLanguage string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fincontrol.db"),

		RemoteBaseURL: getEnv("REMOTE_BASE_URL", ""),
		RemoteAPIKey:  getEnv("REMOTE_API_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fincontrol"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mutation_events"),

		TokenSecret: getEnv("TOKEN_SECRET", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AdviceTimeout: getEnvDuration("ADVICE_TIMEOUT", 20*time.Second),

		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "pt-BR"),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "remote"}
	isValidBackend := false
	for _, b := range validBackends {
		if c.DataBackend == b {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "remote" {
		if c.RemoteBaseURL == "" {
			errs = append(errs, "remote base URL is required when using remote backend")
		} else if u, err := url.Parse(c.RemoteBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid remote base URL '%s': must be an http(s) URL", c.RemoteBaseURL))
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.TokenSecret == "" {
		errs = append(errs, "token secret cannot be empty")
	} else if len(c.TokenSecret) < 16 {
		errs = append(errs, "token secret must be at least 16 characters")
	}

	if c.TokenTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	if c.AdviceTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid advice timeout %v: must be at least 1 second", c.AdviceTimeout))
	}

	switch c.DefaultLanguage {
	case "pt-BR", "en-US":
	default:
		errs = append(errs, fmt.Sprintf("invalid default language '%s': must be 'pt-BR' or 'en-US'", c.DefaultLanguage))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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
