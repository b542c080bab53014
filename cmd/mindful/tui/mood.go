package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"mindful/internal/api"
)

// saveMood posts the selected mood unless a save is already pending.
func (m Model) saveMood() tea.Cmd {
	ticket, err := m.moodGuard.Begin()
	if err != nil {
		return nil
	}
	backend, ctx, value := m.backend, m.ctx, m.mood
	return func() tea.Msg {
		result, err := backend.SaveMood(ctx, value)
		return moodMsg{ticket: ticket, result: result, err: err}
	}
}

func (m Model) handleMood(msg moodMsg) (tea.Model, tea.Cmd) {
	saved := msg.err == nil && msg.result.Saved
	if !m.moodGuard.Finish(msg.ticket, saved) {
		return m, nil
	}

	switch {
	case errors.Is(msg.err, api.ErrNoMood):
		m.setNotice(api.MsgMoodMissing, true)
	case msg.err != nil:
		m.logger.Warn("mood save failed", zap.Error(msg.err))
		m.setNotice(api.MsgMoodNetwork, true)
	default:
		m.setNotice(msg.result.Message, !msg.result.Saved)
	}
	return m, nil
}
