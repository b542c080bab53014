package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindful/cmd/mindful/tui"
	"mindful/internal/catalog"
)

// runInteractive opens the dashboard TUI.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	svc, err := tui.NewServices(cfg, logs)
	if err != nil {
		return err
	}
	defer svc.Close()

	model := tui.New(ctx, svc, cfg, logs)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if cfg.Assessment.WatchCatalog {
		err := svc.WatchCatalog(ctx, func(cat catalog.Catalog, err error) {
			p.Send(tui.CatalogReloaded(cat, err))
		})
		if err != nil {
			logger.Warn("catalog watch disabled", zap.Error(err))
		}
	}

	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Shutdown()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	if path := logs.Path(); path != "" {
		logger.Info("session ended", zap.String("log", path))
	}
	return nil
}
