// Package config provides configuration management for the bot.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"research-bot/retry"
)

// Config holds all application configuration.
type Config struct {
	TelegramToken string
	GroqAPIKey    string
	GroqURL       string
	GroqModel     string
	GoogleAPIKey  string
	GoogleCSEID   string
	MetricsAddr   string
	Retry         retry.Policy
}

// retryFile is the YAML shape for retry tuning. Durations are seconds so
// operators can write fractional values, matching how the policy is
// usually discussed (base_wait_seconds etc).
type retryFile struct {
	Retry struct {
		MaxAttempts      int      `yaml:"max_attempts"`
		BaseWaitSeconds  float64  `yaml:"base_wait_seconds"`
		MaxWaitSeconds   float64  `yaml:"max_wait_seconds"`
		Multiplier       float64  `yaml:"multiplier"`
		TransientMarkers []string `yaml:"transient_markers"`
	} `yaml:"retry"`
}

// Load reads configuration from the environment (after loading .env if
// present) and from an optional YAML file for retry tuning.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine; real deployments set the environment directly.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GroqAPIKey:    os.Getenv("GROQ_API_KEY"),
		GroqURL:       getEnvOrDefault("GROQ_URL", "https://api.groq.com/openai/v1/chat/completions"),
		GroqModel:     getEnvOrDefault("GROQ_MODEL", "llama3-70b-8192"),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		GoogleCSEID:   os.Getenv("GOOGLE_CSE_ID"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		Retry:         retry.DefaultPolicy,
	}

	if path != "" {
		if err := cfg.loadRetryFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadRetryFile overlays retry tuning from a YAML file. Absent file means
// defaults; absent fields keep their current values.
func (c *Config) loadRetryFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f retryFile
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if f.Retry.MaxAttempts > 0 {
		c.Retry.MaxAttempts = f.Retry.MaxAttempts
	}
	if f.Retry.BaseWaitSeconds > 0 {
		c.Retry.BaseWait = secondsToDuration(f.Retry.BaseWaitSeconds)
	}
	if f.Retry.MaxWaitSeconds > 0 {
		c.Retry.MaxWait = secondsToDuration(f.Retry.MaxWaitSeconds)
	}
	if f.Retry.Multiplier > 1 {
		c.Retry.Multiplier = f.Retry.Multiplier
	}
	if len(f.Retry.TransientMarkers) > 0 {
		c.Retry.TransientMarkers = f.Retry.TransientMarkers
	}
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
