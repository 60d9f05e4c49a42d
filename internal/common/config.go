package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Bot      BotConfig
	LLM      LLMConfig
	Document DocumentConfig
	Pipeline PipelineConfig
}

// BotConfig holds the Telegram webhook settings.
type BotConfig struct {
	Token          string
	ListenAddr     string
	WebhookSecret  string
	AllowedChatID  string
	AllowedTopicID string
	APITimeout     time.Duration
}

// LLMConfig holds the extraction model settings.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	StrongModel string
	Temperature float32
	Timeout     time.Duration
}

// DocumentConfig holds the text-extraction thresholds.
type DocumentConfig struct {
	MinTextLen int
	MaxPages   int
	DPI        int
}

// PipelineConfig holds the retry policy.
type PipelineConfig struct {
	MaxRetries int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Token:          getEnv("BOT_TOKEN", getEnv("TELEGRAM_BOT_TOKEN", "")),
			ListenAddr:     getEnv("LISTEN_ADDR", ":10000"),
			WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
			AllowedChatID:  getEnv("ALLOWED_CHAT_ID", ""),
			AllowedTopicID: getEnv("ALLOWED_TOPIC_ID", ""),
			APITimeout:     getEnvAsDuration("TELEGRAM_API_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			StrongModel: getEnv("OPENAI_MODEL_STRONG", "gpt-4o"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Document: DocumentConfig{
			MinTextLen: getEnvAsInt("PDF_MIN_TEXT_LEN", 30),
			MaxPages:   getEnvAsInt("PDF_MAX_PAGES", 3),
			DPI:        getEnvAsInt("PDF_RENDER_DPI", 360),
		},
		Pipeline: PipelineConfig{
			MaxRetries: getEnvAsInt("EXTRACT_MAX_RETRIES", 1),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateBot validates the configuration needed by the webhook bot.
func (c *Config) ValidateBot() error {
	if c.Bot.Token == "" {
		return NewAppError("CONFIG_ERROR", "BOT_TOKEN is required", ErrInvalidInput)
	}
	return c.ValidateLLM()
}

// ValidateLLM validates the configuration needed by the pipeline alone.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
