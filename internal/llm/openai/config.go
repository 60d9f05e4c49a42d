package openai

import "time"

// Config holds the OpenAI client settings. Model and StrongModel are the two
// extraction tiers; the pipeline retries on the strong one after a
// validation failure.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	StrongModel string
	Temperature float32
	Timeout     time.Duration
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.StrongModel == "" {
		c.StrongModel = "gpt-4o"
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
}
