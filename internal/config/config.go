package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Images      ImagesConfig      `yaml:"images"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Retry       RetryConfig       `yaml:"retry"`
	Queue       QueueConfig       `yaml:"queue"`
	Feed        FeedConfig        `yaml:"feed"`
	DB          DBConfig          `yaml:"db"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"` // Go duration string, e.g. "30s"
}

// LLMConfig text-generation backend settings.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// SearchConfig search provider settings.
type SearchConfig struct {
	Provider string        `yaml:"provider"` // "tavily" or "searxng"
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily settings.
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG settings.
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// ImagesConfig image provider settings.
type ImagesConfig struct {
	PexelsAPIKey string `yaml:"pexels_api_key"`
}

// LogConfig logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig request pacing for the generation backend.
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// RetryConfig backoff behavior for rate-limited calls.
type RetryConfig struct {
	MaxRetries       int `yaml:"max_retries"`
	BaseDelaySeconds int `yaml:"base_delay_seconds"`
}

// QueueConfig background generation queue settings.
type QueueConfig struct {
	InterJobDelaySeconds int `yaml:"inter_job_delay_seconds"`
}

// FeedConfig hot-topics feed settings.
type FeedConfig struct {
	RefreshHours int `yaml:"refresh_hours"`
}

// DBConfig optional postgres settings. An empty Host disables persistence.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LoadConfig reads the yaml config at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// BaseDelay returns the retry base delay, defaulting to 2s.
func (r RetryConfig) BaseDelay() time.Duration {
	if r.BaseDelaySeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(r.BaseDelaySeconds) * time.Second
}

// Retries returns the retry budget, defaulting to 3.
func (r RetryConfig) Retries() int {
	if r.MaxRetries <= 0 {
		return 3
	}
	return r.MaxRetries
}

// InterJobDelay returns the pause between queue jobs, defaulting to 5s.
func (q QueueConfig) InterJobDelay() time.Duration {
	if q.InterJobDelaySeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(q.InterJobDelaySeconds) * time.Second
}
