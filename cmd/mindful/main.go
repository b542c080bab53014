package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindful/cmd/mindful/tui"
	"mindful/internal/config"
	"mindful/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	baseURL    string
	timeout    time.Duration

	cfg    *config.Config
	logs   *logging.Loggers
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mindful",
	Short: "mindful - terminal client for the self-care portal",
	Long: `mindful is a terminal client for the patient self-care portal.

Take questionnaires (GAD-7, PHQ-9 and follow-ups), chat with the assistant,
and record your mood. The portal backend stays the source of truth; mindful
only talks to its HTTP API.

Run without arguments to open the interactive dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			_ = logs.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Portal base URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "HTTP timeout (overrides config)")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(moodCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and builds the loggers.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if baseURL != "" {
		loaded.Server.BaseURL = baseURL
	}
	if timeout > 0 {
		loaded.Server.Timeout = timeout.String()
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	cfg = loaded

	logs, err = logging.New(cfg.Logging, filepath.Dir(configPath), verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logs.Get(config.CategoryBoot)
	logger.Debug("config loaded", zap.String("path", configPath), zap.String("base_url", cfg.Server.BaseURL))
	return nil
}

// newServices builds the backend and adopts a csrf token. A failed discovery
// is logged; GET requests still work without it.
func newServices(ctx context.Context) (*tui.Services, error) {
	svc, err := tui.NewServices(cfg, logs)
	if err != nil {
		return nil, err
	}
	if err := svc.DiscoverCSRF(ctx); err != nil {
		logger.Warn("continuing without csrf token", zap.Error(err))
	}
	return svc, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
