package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// HTTP API
	HTTPPort string

	// LLM - OpenAI (SOLACE)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// LLM - Anthropic (FORGE)
	ClaudeAPIKey  string
	ClaudeBaseURL string
	ClaudeModel   string

	// LLM - Ollama (ARCHITECT, SENTINEL)
	OllamaBaseURL string
	OllamaModel   string

	// Redis (optional, cycle stats mirror)
	RedisURL string
}

// Load reads configuration from the environment, applying defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ares_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		HTTPPort: getEnv("HTTP_PORT", "8080"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4"),

		ClaudeAPIKey:  getEnv("CLAUDE_API_KEY", ""),
		ClaudeBaseURL: getEnv("CLAUDE_BASE_URL", "https://api.anthropic.com"),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-3-7-sonnet-20250219"),

		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "deepseek-r1:14b"),

		RedisURL: getEnv("REDIS_URL", ""),
	}
}

// Validate checks the credentials the coordinator cannot run without:
// the store password and the SOLACE (coordinator agent) API key. Other
// agent credentials are optional; their absence disables the agent.
func (c *Config) Validate() error {
	var missing []string
	if c.DBPassword == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	if c.DBName == "" || c.DBUser == "" {
		return errors.New("database name and user must not be empty")
	}
	return nil
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
