// Package config loads the mindful client configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mindful configuration.
type Config struct {
	// Backend server
	Server ServerConfig `yaml:"server"`

	// Endpoint paths, relative to Server.BaseURL
	Endpoints EndpointsConfig `yaml:"endpoints"`

	// Chat assistant
	Chat ChatConfig `yaml:"chat"`

	// Assessment catalog and overlay
	Assessment AssessmentConfig `yaml:"assessment"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the backend connection.
type ServerConfig struct {
	BaseURL   string `yaml:"base_url"`
	CSRFToken string `yaml:"csrf_token"`
	// Page scanned for a csrf token when none is configured.
	CSRFPage string `yaml:"csrf_page"`
	Timeout  string `yaml:"timeout"`
}

// EndpointsConfig lists the backend paths.
type EndpointsConfig struct {
	Catalog         string `yaml:"catalog"`
	SaveAssessment  string `yaml:"save_assessment"`
	Chat            string `yaml:"chat"`
	ChatMessages    string `yaml:"chat_messages"` // %s is replaced by the chat id
	BookAppointment string `yaml:"book_appointment"`
	Mood            string `yaml:"mood"`
	Ask             string `yaml:"ask"`
}

// ChatConfig configures the chat pane and poller.
type ChatConfig struct {
	ID                string `yaml:"id"`
	PollInterval      string `yaml:"poll_interval"`
	RateLimitInterval string `yaml:"rate_limit_interval"`
	Welcome           string `yaml:"welcome"`
}

// AssessmentConfig configures the catalog source and the overlay.
type AssessmentConfig struct {
	// Local catalog file (JSON or YAML). Empty means fetch from the server.
	CatalogFile string `yaml:"catalog_file"`
	// Watch the local catalog file and reload on change.
	WatchCatalog    bool              `yaml:"watch_catalog"`
	Aliases         map[string]string `yaml:"aliases"`
	CloseTransition string            `yaml:"close_transition"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:  "http://localhost:5000",
			CSRFPage: "/patient/dashboard",
			Timeout:  "15s",
		},

		Endpoints: EndpointsConfig{
			Catalog:         "/static/questions.json",
			SaveAssessment:  "/patient/api/save-assessment",
			Chat:            "/api/chat",
			ChatMessages:    "/api/chats/%s/messages",
			BookAppointment: "/api/chat/book-appointment",
			Mood:            "/api/mood",
			Ask:             "/api/ask",
		},

		Chat: ChatConfig{
			PollInterval:      "30s",
			RateLimitInterval: "30s",
			Welcome:           "Hello! I'm Dr. Anya, your AI psychologist. How are you feeling today?",
		},

		Assessment: AssessmentConfig{
			Aliases: map[string]string{
				"gad-7":      "GAD-7",
				"gad7":       "GAD-7",
				"anxiety":    "GAD-7",
				"phq-9":      "PHQ-9",
				"phq9":       "PHQ-9",
				"depression": "PHQ-9",
			},
			CloseTransition: "200ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "mindful.log",
			Categories: map[string]bool{
				CategoryBoot:    true,
				CategoryCatalog: true,
				CategoryFlow:    true,
				CategoryAPI:     true,
				CategoryChat:    true,
				CategoryUI:      true,
			},
		},
	}
}

// DefaultPath returns ~/.mindful/config.yaml, or a relative path when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mindful", "config.yaml")
	}
	return filepath.Join(home, ".mindful", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults if the file doesn't exist
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold a csrf token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MINDFUL_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("MINDFUL_CSRF_TOKEN"); v != "" {
		c.Server.CSRFToken = v
	}
	if v := os.Getenv("MINDFUL_CHAT_ID"); v != "" {
		c.Chat.ID = v
	}
	if v := os.Getenv("MINDFUL_CATALOG"); v != "" {
		c.Assessment.CatalogFile = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetTimeout returns the HTTP timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	return parseDuration(c.Server.Timeout, 15*time.Second)
}

// GetPollInterval returns the chat poll interval as a duration.
func (c *Config) GetPollInterval() time.Duration {
	return parseDuration(c.Chat.PollInterval, 30*time.Second)
}

// GetRateLimitInterval returns the interval used after a 429.
func (c *Config) GetRateLimitInterval() time.Duration {
	return parseDuration(c.Chat.RateLimitInterval, 30*time.Second)
}

// GetCloseTransition returns the overlay close delay as a duration.
func (c *Config) GetCloseTransition() time.Duration {
	return parseDuration(c.Assessment.CloseTransition, 200*time.Millisecond)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server base_url not configured (set MINDFUL_BASE_URL)")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid server base_url %q: %w", c.Server.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server base_url %q: scheme must be http or https", c.Server.BaseURL)
	}
	if !strings.Contains(c.Endpoints.ChatMessages, "%s") {
		return fmt.Errorf("endpoints.chat_messages must contain %%s for the chat id")
	}
	if _, ok := levels[strings.ToLower(c.Logging.Level)]; !ok {
		return fmt.Errorf("invalid logging level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}
