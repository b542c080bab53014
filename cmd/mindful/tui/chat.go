package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"mindful/internal/api"
	"mindful/internal/chat"
)

const msgBookingFailed = "Could not request an appointment. Try again later."

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Pane), key.Matches(msg, m.keys.Close):
		m.pane = PaneDashboard
		m.chatInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Send):
		return m.sendChat()
	case key.Matches(msg, m.keys.Book):
		return m, m.bookAppointment()
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// sendChat posts the typed message. While a reply is pending the input is kept
// and nothing is sent.
func (m Model) sendChat() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.chatInput.Value())
	if text == "" {
		return m, nil
	}
	ticket, err := m.chatGuard.Begin()
	if err != nil {
		return m, nil
	}

	m.transcript.Append(chat.SpeakerUser, text)
	m.chatInput.Reset()
	m.lastMessage = text
	m.banner = api.ActionNone
	m.refreshTranscript()

	backend, ctx := m.backend, m.ctx
	return m, func() tea.Msg {
		reply, err := backend.SendChat(api.WithRequestID(ctx, ticket.ID), text)
		return chatReplyMsg{ticket: ticket, reply: reply, err: err}
	}
}

func (m Model) handleChatReply(msg chatReplyMsg) (tea.Model, tea.Cmd) {
	ok := msg.err == nil && msg.reply.OK
	if !m.chatGuard.Finish(msg.ticket, ok) {
		return m, nil
	}

	switch {
	case msg.err != nil:
		m.logger.Warn("chat send failed", zap.Error(msg.err))
		m.transcript.Append(chat.SpeakerSystem, api.MsgChatNetwork)
	case !msg.reply.OK:
		m.transcript.Append(chat.SpeakerSystem, api.MsgChatFailed)
	default:
		m.transcript.Append(chat.SpeakerAssistant, msg.reply.Reply)
		m.banner = msg.reply.RecommendedAction
		if m.banner.Banner() != "" {
			m.logger.Info("assistant recommended action",
				zap.String("action", string(m.banner)),
				zap.Int("severity", msg.reply.Severity))
		}
	}
	m.refreshTranscript()
	return m, nil
}

// bookAppointment requests a clinician follow-up for the last message. It is
// only offered while the appointment banner is shown.
func (m Model) bookAppointment() tea.Cmd {
	if !m.banner.Bookable() {
		return nil
	}
	backend, ctx, text := m.backend, m.ctx, m.lastMessage
	return func() tea.Msg {
		result, err := backend.BookAppointment(ctx, text)
		return bookedMsg{result: result, err: err}
	}
}

func (m Model) handleBooked(msg bookedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("appointment request failed", zap.Error(msg.err))
		m.setNotice(msgBookingFailed, true)
		return m, nil
	}
	text := api.MsgAppointmentSent
	if msg.result != nil && msg.result.Message != "" {
		text = msg.result.Message
	}
	m.banner = api.ActionNone
	m.transcript.Append(chat.SpeakerSystem, text)
	m.setNotice(text, false)
	m.refreshTranscript()
	return m, nil
}

func (m Model) handlePoll(msg pollMsg) (tea.Model, tea.Cmd) {
	if m.pollCh == nil {
		m.pollCh = msg.ch
	}
	if msg.ch != m.pollCh || !msg.ok {
		return m, nil
	}

	res := msg.result
	switch {
	case res.RateLimited:
		m.logger.Debug("chat poll rate limited")
	case res.Err != nil:
		m.logger.Debug("chat poll failed", zap.Error(res.Err))
	default:
		if added := m.transcript.Merge(res.Messages); len(added) > 0 {
			m.refreshTranscript()
		}
	}
	return m, waitForPoll(msg.ch)
}

// refreshTranscript redraws the chat history into the viewport and keeps it
// scrolled to the newest line.
func (m *Model) refreshTranscript() {
	var b strings.Builder
	for i, e := range m.transcript.Entries() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.styles.Speaker.Render(e.User + ":"))
		b.WriteString("\n")
		switch e.User {
		case chat.SpeakerUser:
			b.WriteString(m.styles.UserLine.Render(e.Text))
		case chat.SpeakerSystem:
			b.WriteString(m.styles.Muted.Render(e.Text))
		default:
			b.WriteString(m.styles.AgentLine.Render(m.markdown(chat.TextContent(e.Text))))
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}
