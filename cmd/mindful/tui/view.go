package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mindful/cmd/mindful/ui"
	"mindful/internal/api"
	"mindful/internal/assessment"
	"mindful/internal/chat"
)

var moodLabels = []string{"awful", "low", "okay", "good", "great"}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.styles.Header.Width(m.layout.TerminalWidth).Render("mindful · self-care")
	body := m.dashboardView()
	if m.modal.Mounted() && m.session != nil {
		body = lipgloss.Place(m.layout.TerminalWidth, m.layout.BodyHeight(),
			lipgloss.Center, lipgloss.Center, m.overlayView())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.footerView())
}

func (m Model) footerView() string {
	bindings := m.keys.dashboardHelp()
	switch {
	case m.modal.Visible():
		bindings = m.keys.overlayHelp()
	case m.pane == PaneChat:
		bindings = m.keys.chatHelp()
	}
	return m.styles.Footer.Render(m.help.ShortHelpView(bindings))
}

func (m Model) dashboardView() string {
	left, right := m.layout.SplitPaneWidths()
	height := m.layout.BodyHeight()

	leftStyle, rightStyle := m.styles.Focused, m.styles.Panel
	if m.pane == PaneChat {
		leftStyle, rightStyle = m.styles.Panel, m.styles.Focused
	}
	leftPane := leftStyle.Width(left - 2).Render(m.assessmentsView())
	rightPane := rightStyle.Width(right - 2).Render(m.chatView())

	if m.layout.IsCompact {
		return lipgloss.NewStyle().MaxHeight(height).Render(
			lipgloss.JoinVertical(lipgloss.Left, leftPane, rightPane))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, strings.Repeat(" ", ui.SplitPaneDivider), rightPane)
}

// paneWidth is the outer width of the assessments pane.
func (m Model) paneWidth() int {
	left, _ := m.layout.SplitPaneWidths()
	return left
}

func (m Model) assessmentsView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Assessments"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + m.styles.Muted.Render("Loading assessments..."))
	case len(m.names) == 0:
		b.WriteString(m.styles.Muted.Render("No assessments available."))
	default:
		for i, name := range m.names {
			title := name
			if a := m.catalog[name]; a != nil && a.Title != "" && a.Title != name {
				title = fmt.Sprintf("%s  %s", name, m.styles.Subtitle.Render(a.Title))
			}
			if i == m.cursor && m.pane == PaneDashboard {
				b.WriteString(m.styles.Cursor.Render("› ") + title)
			} else {
				b.WriteString("  " + title)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(m.styles.RenderDivider(ui.PanelContentWidth(m.paneWidth())))
	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Mood today"))
	b.WriteString("\n")
	b.WriteString(m.moodView())

	if m.notice != "" {
		b.WriteString("\n\n")
		style := m.styles.Success
		line := m.notice
		switch {
		case m.noticeErr:
			style = m.styles.Error
		case m.reloadPrompt:
			style = m.styles.Warning
			line += " [y/n]"
		}
		b.WriteString(style.Render(line))
	}
	if m.insights != "" {
		b.WriteString("\n\n")
		b.WriteString(m.insights)
	}
	return b.String()
}

func (m Model) moodView() string {
	parts := make([]string, 0, len(moodLabels))
	for i, label := range moodLabels {
		value := i + 1
		item := fmt.Sprintf("%d %s", value, label)
		if value == m.mood {
			parts = append(parts, m.styles.Badge.Render(item))
		} else {
			parts = append(parts, m.styles.Muted.Render(item))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) chatView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Chat with " + chat.SpeakerAssistant))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if text := m.banner.Banner(); text != "" {
		banner := text
		if m.banner.Bookable() {
			banner += "  " + m.styles.Button.Render("Book appointment (ctrl+b)")
		}
		style := m.styles.Banner
		if m.banner == api.ActionEmergencyHotline {
			style = style.BorderForeground(ui.Destructive).Foreground(ui.Destructive)
		}
		b.WriteString(style.Render(banner))
		b.WriteString("\n")
	}
	if m.chatGuard.Busy() {
		b.WriteString(m.spinner.View() + " " + m.styles.Info.Render(chat.SpeakerAssistant+" is typing..."))
		b.WriteString("\n")
	}
	b.WriteString(m.chatInput.View())
	return b.String()
}

func (m Model) overlayView() string {
	s := m.session
	flow := s.Flow
	width := m.layout.OverlayWidth()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(s.Assessment.Title))
	b.WriteString("\n")
	current, total := flow.Progress()
	progress := fmt.Sprintf("Question %d of %d", current, total)
	if flow.Phase() == assessment.PhaseContextual {
		progress += " · follow-up"
	}
	b.WriteString(m.styles.Progress.Render(progress))
	b.WriteString("\n\n")

	q := flow.Current()
	b.WriteString(m.styles.Question.Width(width - 8).Render(q.Text))
	b.WriteString("\n")

	in, err := flow.Input()
	if err != nil {
		b.WriteString(m.styles.Alert.Render(err.Error()))
	} else {
		b.WriteString(m.inputView(in))
	}
	b.WriteString("\n\n")

	if m.alert != "" {
		b.WriteString(m.styles.Alert.Render(m.alert))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.RenderDivider(width - 8))
	b.WriteString("\n")

	var controls []string
	if flow.CanRetreat() {
		controls = append(controls, m.styles.Muted.Render("‹ Back"))
	}
	if flow.Status() == assessment.StatusSubmitting {
		controls = append(controls, m.spinner.View()+" Saving...")
	} else {
		controls = append(controls, m.styles.Button.Render(flow.NextLabel()))
	}
	b.WriteString(strings.Join(controls, "   "))

	return m.styles.Overlay.Width(width).Render(b.String())
}

// inputView paints an input surface. Radio buttons for scales, checkboxes for
// multiple choice, a text area for open-ended answers.
func (m Model) inputView(in assessment.Input) string {
	var lines []string
	switch in := in.(type) {
	case *assessment.ScaleInput:
		selected, ok := in.Selected()
		for i, opt := range in.Options() {
			mark := "( )"
			if ok && i == selected {
				mark = "(•)"
			}
			lines = append(lines, m.optionLine(i, mark, opt))
		}
	case *assessment.ChoiceInput:
		for i, opt := range in.Options() {
			mark := "[ ]"
			if in.Checked(opt) {
				mark = "[x]"
			}
			lines = append(lines, m.optionLine(i, mark, opt))
		}
	case *assessment.TextInput:
		return m.textInput.View()
	}
	return strings.Join(lines, "\n")
}

func (m Model) optionLine(i int, mark, label string) string {
	if m.modal.Visible() && i == m.modal.Focus() {
		return m.styles.Cursor.Render("› "+mark) + " " + m.styles.Bold.Render(label)
	}
	return "  " + mark + " " + m.styles.Option.Render(label)
}
