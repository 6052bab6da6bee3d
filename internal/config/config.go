// Package config loads toolbox settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	llmprovider "github.com/haowjy/tableau-toolbox-go"
)

// Config holds all configuration for the toolbox service
type Config struct {
	// Server
	Port        string
	Environment string

	// LLM providers
	Credentials      llmprovider.Credentials
	LLMTimeout       time.Duration
	ModelsFile       string
	EnableLorem      bool
	OpenAIBaseURL    string
	AnthropicBaseURL string

	// Database used by the SQL exploration helpers; empty disables them
	DatabaseURL     string
	DatabaseDialect string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("LLM_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: must be positive, got %s", timeout)
	}

	enableLorem, err := getBool("ENABLE_LOREM_PROVIDER", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "8501"),
		Environment: getEnv("GO_ENV", "development"),
		Credentials: llmprovider.Credentials{
			OpenAI:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Gemini:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Anthropic: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		},
		LLMTimeout:       timeout,
		ModelsFile:       os.Getenv("MODELS_FILE"),
		EnableLorem:      enableLorem,
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseDialect:  getEnv("DATABASE_DIALECT", "postgres"),
	}, nil
}

// IsProduction reports whether GO_ENV selects production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadEnv searches for a .env file starting from the current directory
// and walking up the directory tree. It loads the first .env file found.
// Variables already set in the process environment win over the file.
// It returns the path loaded, or "" when no file was found.
func LoadEnv() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", nil
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return envPath, fmt.Errorf("load %s: %w", envPath, err)
			}
			return envPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
