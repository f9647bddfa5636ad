package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the relay service.
// Every value has a default so the binary starts with an empty
// environment; overrides come from process env or an optional .env file.
type Config struct {
	App      AppConfig
	Upload   UploadConfig
	Dispatch DispatchConfig
	Server   ServerConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// UploadConfig describes the downstream upload API and how to reach it.
type UploadConfig struct {
	DefaultURL        string
	DefaultAuthHeader string
	TimeoutSeconds    int
}

// DispatchConfig holds the per-recipient retry and pacing defaults used
// when a bulk request does not override them.
type DispatchConfig struct {
	MaxRetries int
	PauseMs    int
}

// ServerConfig tunes the inbound HTTP surface.
type ServerConfig struct {
	MaxBodyBytes int
}

// Load reads environment variables, applies defaults and returns a
// populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development")
	cfg.App.Port = ldr.getInt("APP_PORT", 8080)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info")

	cfg.Upload.DefaultURL = ldr.getString("UPLOAD_API_URL", "http://localhost:8081/upload")
	cfg.Upload.DefaultAuthHeader = ldr.getString("UPLOAD_AUTH_HEADER", "")
	cfg.Upload.TimeoutSeconds = ldr.getInt("UPLOAD_TIMEOUT_SECONDS", 30)

	cfg.Dispatch.MaxRetries = ldr.getInt("MAX_RETRIES", 2)
	cfg.Dispatch.PauseMs = ldr.getInt("PAUSE_MS", 500)

	cfg.Server.MaxBodyBytes = ldr.getInt("MAX_BODY_BYTES", 1<<20)

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val != "" {
			return val
		}
	}
	return def
}

func (l *envLoader) getInt(key string, def int) int {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			return def
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid integer", key))
			return def
		}
		return i
	}
	return def
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
