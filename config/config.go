// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// CachePath is the local cache file (default: ~/.config/mytubes/cache.json)
	CachePath string `json:"cache_path"`
	// CategoriesFile is the well-known document name in the remote store
	CategoriesFile string `json:"categories_file"`

	// SubscriptionsTTL is how long the cached subscription snapshot stays fresh
	SubscriptionsTTL time.Duration `json:"subscriptions_ttl"`
	// VideosTTL is how long the cached video snapshot stays fresh
	VideosTTL time.Duration `json:"videos_ttl"`
	// SaveDebounce is the quiescence window before a deferred remote write
	SaveDebounce time.Duration `json:"save_debounce"`

	// VideosPerChannel is the number of recent uploads fetched per channel
	VideosPerChannel int `json:"videos_per_channel"`
	// IncludeShorts keeps short-form clips in the feed instead of filtering them
	IncludeShorts bool `json:"include_shorts"`

	// AgentModel is the chat model used for category management
	AgentModel string `json:"agent_model"`
	// AgentKey is the OpenRouter API key (usually set via MYTUBES_AGENT_KEY)
	AgentKey string `json:"agent_key,omitempty"`

	// Retry settings for remote reads and metadata fetches
	MaxRetries     int           `json:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff"`
	MaxBackoff     time.Duration `json:"max_backoff"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		CachePath:        defaultCachePath(),
		CategoriesFile:   "categories.json",
		SubscriptionsTTL: 24 * time.Hour,
		VideosTTL:        30 * time.Minute,
		SaveDebounce:     2 * time.Second,
		VideosPerChannel: 10,
		IncludeShorts:    false,
		AgentModel:       "anthropic/claude-sonnet-4",
		MaxRetries:       3,
		InitialBackoff:   1 * time.Second,
		MaxBackoff:       30 * time.Second,
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mytubes-cache.json"
	}
	return filepath.Join(home, ".config", "mytubes", "cache.json")
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from mytubes.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"mytubes.json",
		filepath.Join(os.Getenv("HOME"), ".config", "mytubes", "mytubes.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("MYTUBES_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("MYTUBES_SUBSCRIPTIONS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SubscriptionsTTL = d
		}
	}
	if v := os.Getenv("MYTUBES_VIDEOS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.VideosTTL = d
		}
	}
	if v := os.Getenv("MYTUBES_SAVE_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SaveDebounce = d
		}
	}
	if v := os.Getenv("MYTUBES_VIDEOS_PER_CHANNEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.VideosPerChannel = n
		}
	}
	if v := os.Getenv("MYTUBES_INCLUDE_SHORTS"); v != "" {
		c.IncludeShorts = v == "true" || v == "1"
	}
	if v := os.Getenv("MYTUBES_AGENT_MODEL"); v != "" {
		c.AgentModel = v
	}
	if v := os.Getenv("MYTUBES_AGENT_KEY"); v != "" {
		c.AgentKey = v
	}
	if v := os.Getenv("MYTUBES_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("cache_path must be set")
	}
	if c.CategoriesFile == "" {
		return fmt.Errorf("categories_file must be set")
	}
	if c.SubscriptionsTTL <= 0 {
		return fmt.Errorf("subscriptions_ttl must be positive")
	}
	if c.VideosTTL <= 0 {
		return fmt.Errorf("videos_ttl must be positive")
	}
	if c.SaveDebounce <= 0 {
		return fmt.Errorf("save_debounce must be positive")
	}
	if c.VideosPerChannel <= 0 || c.VideosPerChannel > 50 {
		return fmt.Errorf("videos_per_channel must be between 1 and 50")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	return nil
}
