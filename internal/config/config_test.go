package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MINDFUL_BASE_URL", "MINDFUL_CSRF_TOKEN", "MINDFUL_CHAT_ID", "MINDFUL_CATALOG"} {
		t.Setenv(k, "")
	}
}

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "/static/questions.json", cfg.Endpoints.Catalog)
	assert.Equal(t, "/patient/api/save-assessment", cfg.Endpoints.SaveAssessment)
	assert.Equal(t, 30*time.Second, cfg.GetPollInterval())
	assert.Equal(t, 200*time.Millisecond, cfg.GetCloseTransition())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.BaseURL = "https://care.example.org"
	cfg.Chat.ID = "42"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://care.example.org", loaded.Server.BaseURL)
	assert.Equal(t, "42", loaded.Chat.ID)
	assert.Equal(t, cfg.Assessment.Aliases, loaded.Assessment.Aliases)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat:\n  poll_interval: 10s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.GetPollInterval())
	assert.Equal(t, "/api/chat", cfg.Endpoints.Chat)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MINDFUL_BASE_URL", "http://portal:8000")
	t.Setenv("MINDFUL_CSRF_TOKEN", "tok")
	t.Setenv("MINDFUL_CHAT_ID", "7")
	t.Setenv("MINDFUL_CATALOG", "questions.yaml")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://portal:8000", cfg.Server.BaseURL)
	assert.Equal(t, "tok", cfg.Server.CSRFToken)
	assert.Equal(t, "7", cfg.Chat.ID)
	assert.Equal(t, "questions.yaml", cfg.Assessment.CatalogFile)
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Timeout = "soon"
	cfg.Chat.PollInterval = "-5s"
	cfg.Chat.RateLimitInterval = ""
	cfg.Assessment.CloseTransition = "0s"

	assert.Equal(t, 15*time.Second, cfg.GetTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetPollInterval())
	assert.Equal(t, 30*time.Second, cfg.GetRateLimitInterval())
	assert.Equal(t, 200*time.Millisecond, cfg.GetCloseTransition())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty base url", func(c *Config) { c.Server.BaseURL = "" }, "base_url not configured"},
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://x" }, "scheme must be http"},
		{"messages path without id", func(c *Config) { c.Endpoints.ChatMessages = "/api/messages" }, "chat_messages"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid logging level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{Categories: map[string]bool{CategoryChat: false}}
	assert.False(t, lc.IsCategoryEnabled(CategoryChat))
	assert.True(t, lc.IsCategoryEnabled(CategoryAPI))

	var empty LoggingConfig
	assert.True(t, empty.IsCategoryEnabled(CategoryUI))
}
