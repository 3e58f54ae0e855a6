package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the YAML file.
const (
	EnvAIAPIKey   = "JADWALKU_AI_API_KEY"
	EnvBackendURL = "JADWALKU_BACKEND_URL"
)

// BackendConfig points at the REST backend that owns user schedules.
type BackendConfig struct {
	// BaseURL is the API root, e.g. "https://api.example.ac.id/api".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// TimeoutSeconds bounds a single backend request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// AIConfig describes the OpenAI-compatible chat endpoint.
type AIConfig struct {
	BaseURL     string  `yaml:"base_url" json:"base_url"`
	APIKey      string  `yaml:"api_key" json:"-"`
	Model       string  `yaml:"model" json:"model"`
	Temperature float32 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	MaxRetries  int     `yaml:"max_retries" json:"max_retries"`
	// HistoryTurns is how many previous user/assistant pairs are replayed.
	HistoryTurns int `yaml:"history_turns" json:"history_turns"`
}

// RateConfig limits chat requests per client.
type RateConfig struct {
	PerMinute int `yaml:"per_minute" json:"per_minute"`
	Burst     int `yaml:"burst" json:"burst"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone in which calendar dates are interpreted.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron rebuilds the upcoming-events snapshot.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// CalendarFile replaces the embedded academic calendar when set.
	CalendarFile string `yaml:"calendar_file" json:"calendar_file"`

	// UpcomingLimit is the default page size of the upcoming list.
	UpcomingLimit int `yaml:"upcoming_limit" json:"upcoming_limit"`

	Backend  BackendConfig `yaml:"backend" json:"backend"`
	AI       AIConfig      `yaml:"ai" json:"ai"`
	ChatRate RateConfig    `yaml:"chat_rate" json:"chat_rate"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Asia/Jakarta"
	defaultRefreshCron = "0 0 * * *"
	defaultAIBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultAIModel     = "gemini-2.0-flash"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		Timezone:      defaultTimezone,
		WeekStart:     "sunday",
		RefreshCron:   defaultRefreshCron,
		LogLevel:      "info",
		UpcomingLimit: 5,
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:5000/api",
			TimeoutSeconds: 10,
		},
		AI: AIConfig{
			BaseURL:      defaultAIBaseURL,
			Model:        defaultAIModel,
			Temperature:  0.7,
			MaxTokens:    1024,
			MaxRetries:   3,
			HistoryTurns: 6,
		},
		ChatRate: RateConfig{
			PerMinute: 20,
			Burst:     5,
		},
	}
}

// Normalize fills in missing/zero values so partially-filled configs still work.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	switch strings.ToLower(c.WeekStart) {
	case "sunday", "monday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = d.WeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.UpcomingLimit <= 0 {
		c.UpcomingLimit = d.UpcomingLimit
	}

	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = d.Backend.TimeoutSeconds
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")

	if c.AI.BaseURL == "" {
		c.AI.BaseURL = d.AI.BaseURL
	}
	if c.AI.Model == "" {
		c.AI.Model = d.AI.Model
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = d.AI.MaxTokens
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = d.AI.MaxRetries
	}
	if c.AI.HistoryTurns < 0 {
		c.AI.HistoryTurns = 0
	}

	if c.ChatRate.PerMinute <= 0 {
		c.ChatRate.PerMinute = d.ChatRate.PerMinute
	}
	if c.ChatRate.Burst <= 0 {
		c.ChatRate.Burst = d.ChatRate.Burst
	}
}

// ApplyEnv overlays secrets from the process environment, after loading a
// .env file from the working directory if one exists.
func (c *Config) ApplyEnv() {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	if v := os.Getenv(EnvAIAPIKey); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.Backend.BaseURL = strings.TrimRight(v, "/")
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read and normalized.
//
// Environment overrides are applied in both cases but never written back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".jadwalku-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
