package config

// Log categories.
const (
	CategoryBoot    = "boot"    // Startup, config, boot fan-out
	CategoryCatalog = "catalog" // Catalog fetch, cache, file watch
	CategoryFlow    = "flow"    // Assessment sessions and phase changes
	CategoryAPI     = "api"     // Backend requests
	CategoryChat    = "chat"    // Chat send and polling
	CategoryUI      = "ui"      // Overlay lifecycle and key handling
)

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, console
	File       string          `yaml:"file"`       // relative to the config directory; empty disables file output
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}
