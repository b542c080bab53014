package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders static rows as aligned columns. The output is plain text
// plus styling, so it works in a pane or on stdout.
type Table struct {
	Headers []string
	Rows    [][]string
	// Columns listed here are right-aligned.
	Numeric map[int]bool
}

// NewTable creates an empty table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, Numeric: make(map[int]bool)}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// Cell padding.
	for i := range widths {
		widths[i] += 2
	}
	return widths
}

// Render draws the header, a divider, and the rows. empty is shown under the
// header when there are no rows.
func (t *Table) Render(styles Styles, empty string) string {
	widths := t.widths()
	sep := styles.Muted.Render("│")

	line := func(cells []string, base lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			style := base.Padding(0, 1).Width(widths[i])
			if t.Numeric[i] {
				style = style.Align(lipgloss.Right)
			}
			parts[i] = style.Render(cell)
		}
		return strings.Join(parts, sep)
	}

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}

	var b strings.Builder
	b.WriteString(line(t.Headers, styles.Bold))
	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(total))
	b.WriteString("\n")
	if len(t.Rows) == 0 && empty != "" {
		b.WriteString(styles.Muted.Render(" " + empty))
		b.WriteString("\n")
	}
	for _, row := range t.Rows {
		b.WriteString(line(row, lipgloss.NewStyle()))
		b.WriteString("\n")
	}
	return b.String()
}
