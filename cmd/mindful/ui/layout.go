package ui

// Layout constants for consistent spacing and dimensions
const (
	// Split between the dashboard and the chat pane
	SplitPaneLeftRatio = 0.45
	SplitPaneDivider   = 1

	// Panel borders and spacing
	PanelBorderWidth = 1
	PanelPaddingH    = 1
	PanelPaddingV    = 0

	// Control areas
	HeaderHeight    = 1
	FooterHeight    = 1
	BannerHeight    = 2
	ChatInputHeight = 3

	// Overlay sizing
	OverlayMaxWidth = 72
	OverlayMargin   = 4

	// Responsive breakpoints
	MinimumTerminalWidth  = 60
	MinimumTerminalHeight = 20
	CompactModeWidth      = 100
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	if width < MinimumTerminalWidth {
		width = MinimumTerminalWidth
	}
	if height < MinimumTerminalHeight {
		height = MinimumTerminalHeight
	}
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// SplitPaneWidths calculates left and right pane widths. In compact mode
// the panes stack and both get the full width.
func (l LayoutConfig) SplitPaneWidths() (left, right int) {
	if l.IsCompact {
		return l.TerminalWidth, l.TerminalWidth
	}
	left = int(float64(l.TerminalWidth) * SplitPaneLeftRatio)
	right = l.TerminalWidth - left - SplitPaneDivider
	return left, right
}

// BodyHeight is the height left after header and footer.
func (l LayoutConfig) BodyHeight() int {
	return l.TerminalHeight - HeaderHeight - FooterHeight
}

// OverlayWidth is the outer width of the assessment overlay.
func (l LayoutConfig) OverlayWidth() int {
	w := l.TerminalWidth - OverlayMargin*2
	if w > OverlayMaxWidth {
		w = OverlayMaxWidth
	}
	return w
}

// PanelContentWidth returns the content width inside a bordered panel
func PanelContentWidth(panelWidth int) int {
	return panelWidth - (PanelBorderWidth * 2) - (PanelPaddingH * 2)
}
