package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"mindful/cmd/mindful/ui"
	"mindful/internal/api"
	"mindful/internal/catalog"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.Shutdown()
			return m, tea.Quit
		}
		if m.modal.Visible() {
			return m.updateOverlay(msg)
		}
		if m.modal.Mounted() {
			// Closing: input is ignored until the transition ends.
			return m, nil
		}
		if m.pane == PaneChat {
			return m.updateChat(msg)
		}
		return m.updateDashboard(msg)

	case tea.MouseMsg:
		if m.modal.ScrollLocked() {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ui.ModalClosedMsg:
		if m.modal.Closed(msg) {
			m.session = nil
			m.alert = ""
			m.textInput.Blur()
		}
		return m, nil

	case bootMsg:
		m.loading = false
		if msg.csrfErr != nil {
			m.logger.Warn("csrf discovery failed", zap.Error(msg.csrfErr))
		}
		m.applyCatalog(msg.catalog, msg.catalogErr)
		return m, nil

	case catalogMsg:
		m.loading = false
		m.applyCatalog(msg.catalog, msg.err)
		if msg.err == nil {
			m.setNotice("Assessments reloaded.", false)
		}
		return m, nil

	case catalogReloadedMsg:
		if msg.err != nil {
			m.setNotice("Catalog file has errors; keeping the previous version.", true)
			return m, nil
		}
		m.applyCatalog(msg.catalog, nil)
		return m, nil

	case openedMsg:
		return m.handleOpened(msg)

	case submittedMsg:
		return m.handleSubmitted(msg)

	case chatReplyMsg:
		return m.handleChatReply(msg)

	case bookedMsg:
		return m.handleBooked(msg)

	case pollMsg:
		return m.handlePoll(msg)

	case moodMsg:
		return m.handleMood(msg)
	}

	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.layout = ui.NewLayoutConfig(width, height)
	m.ready = true

	_, right := m.layout.SplitPaneWidths()
	inner := ui.PanelContentWidth(right)
	vh := m.layout.BodyHeight() - ui.ChatInputHeight - ui.BannerHeight - 4
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = inner
	m.viewport.Height = vh
	m.chatInput.SetWidth(inner)
	m.textInput.SetWidth(m.layout.OverlayWidth() - 8)
	m.help.Width = width

	m.renderer = newRenderer(m.styles.Theme, inner)
	m.refreshTranscript()
}

func (m *Model) applyCatalog(cat catalog.Catalog, err error) {
	if err != nil {
		m.logger.Warn("catalog unavailable", zap.Error(err))
		m.setNotice(api.MsgCatalogFailed, true)
		return
	}
	m.catalog = cat
	m.names = cat.Keys()
	if m.cursor >= len(m.names) {
		m.cursor = 0
	}
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.reloadPrompt {
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.reloadPrompt = false
			return m, m.reloadCatalog()
		case key.Matches(msg, m.keys.No), key.Matches(msg, m.keys.Close):
			m.reloadPrompt = false
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if len(m.names) == 0 {
			return m, nil
		}
		return m, m.startAssessment(m.names[m.cursor])
	case key.Matches(msg, m.keys.Mood):
		m.mood = int(msg.Runes[0] - '0')
	case key.Matches(msg, m.keys.SaveMood):
		return m, m.saveMood()
	case key.Matches(msg, m.keys.Book):
		return m, m.bookAppointment()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reloadCatalog()
	case key.Matches(msg, m.keys.Pane):
		m.pane = PaneChat
		cmd := m.chatInput.Focus()
		return m, cmd
	}
	return m, nil
}

func (m Model) reloadCatalog() tea.Cmd {
	m.logger.Info("reloading catalog")
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		cat, err := backend.ReloadCatalog(ctx)
		return catalogMsg{catalog: cat, err: err}
	}
}
