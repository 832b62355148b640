// Package config loads service configuration from an optional .env file and
// DIETPLAN_* environment variables layered over built-in defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	USDA    USDAConfig
	Groq    GroqConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type USDAConfig struct {
	APIKey string
}

type GroqConfig struct {
	APIKey string
	Model  string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 5001,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Groq: GroqConfig{
			Model: "llama3-70b-8192",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".dietplan")
}

// Load reads configuration: built-in defaults, then a .env file in the
// working directory when one exists, then DIETPLAN_* environment variables.
// The Groq API key is required; the USDA key is optional and its absence
// disables prompt enrichment.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Groq.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Groq API key. Set it via environment variable DIETPLAN_GROQ_API_KEY")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DIETPLAN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DIETPLAN_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("DIETPLAN_USDA_API_KEY"); v != "" {
		cfg.USDA.APIKey = v
	}
	if v := os.Getenv("DIETPLAN_GROQ_API_KEY"); v != "" {
		cfg.Groq.APIKey = v
	}
	if v := os.Getenv("DIETPLAN_GROQ_MODEL"); v != "" {
		cfg.Groq.Model = v
	}
	if v := os.Getenv("DIETPLAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// SlogLevel maps the configured level name onto a slog level. Unknown names
// fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
