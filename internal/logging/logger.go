// Package logging builds the categorized zap loggers used across mindful.
// The TUI owns the terminal, so logs go to a file next to the config.
// Each category is a named child of one root logger and can be switched off
// in config; a disabled category gets a no-op logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mindful/internal/config"
)

// Loggers hands out per-category loggers.
type Loggers struct {
	root *zap.Logger
	cfg  config.LoggingConfig
	path string

	mu    sync.Mutex
	named map[string]*zap.Logger
}

// Nop returns Loggers that discard everything.
func Nop() *Loggers {
	return &Loggers{root: zap.NewNop(), named: make(map[string]*zap.Logger)}
}

// New builds the root logger from cfg. The log file is resolved against dir
// when relative. An empty cfg.File disables logging entirely.
// verbose forces the debug level.
func New(cfg config.LoggingConfig, dir string, verbose bool) (*Loggers, error) {
	if cfg.File == "" {
		l := Nop()
		l.cfg = cfg
		return l, nil
	}

	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	root, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Loggers{
		root:  root,
		cfg:   cfg,
		path:  path,
		named: make(map[string]*zap.Logger),
	}, nil
}

// Get returns the logger for category.
func (l *Loggers) Get(category string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	if !l.cfg.IsCategoryEnabled(category) {
		return zap.NewNop()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lg, ok := l.named[category]; ok {
		return lg
	}
	lg := l.root.Named(category)
	l.named[category] = lg
	return lg
}

// Root returns the uncategorized logger.
func (l *Loggers) Root() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.root
}

// Path is the resolved log file, empty when logging is disabled.
func (l *Loggers) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Sync flushes buffered entries.
func (l *Loggers) Sync() error {
	if l == nil || l.path == "" {
		return nil
	}
	return l.root.Sync()
}
