package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"mindful/internal/api"
	"mindful/internal/assessment"
	"mindful/internal/catalog"
	"mindful/internal/inflight"
)

// MsgReloadPrompt follows the save confirmation when no insights came back.
const MsgReloadPrompt = "Reload to see updated history?"

// startAssessment looks up name and opens the overlay when it arrives. A second
// start while one is loading is ignored.
func (m Model) startAssessment(name string) tea.Cmd {
	ticket, err := m.openGuard.Begin()
	if err != nil {
		m.logger.Debug("assessment already opening", zap.String("name", name))
		return nil
	}
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		a, typeKey, err := backend.Lookup(ctx, name)
		return openedMsg{ticket: ticket, name: name, key: typeKey, assessment: a, err: err}
	}
}

func (m Model) handleOpened(msg openedMsg) (tea.Model, tea.Cmd) {
	if !m.openGuard.Finish(msg.ticket, msg.err == nil) {
		return m, nil
	}

	if msg.err != nil {
		var notFound *catalog.NotFoundError
		var invalid *catalog.InvalidError
		switch {
		case errors.As(msg.err, &notFound):
			m.logger.Warn("assessment not in catalog", zap.String("type", notFound.Type))
			m.setNotice(fmt.Sprintf("Assessment %q is not available.", notFound.Type), true)
		case errors.As(msg.err, &invalid):
			m.logger.Warn("assessment definition is invalid", zap.String("type", invalid.Type), zap.Error(invalid.Err))
			m.setNotice(fmt.Sprintf("Assessment %q could not be loaded.", invalid.Type), true)
		default:
			m.logger.Warn("failed to load assessment", zap.Error(msg.err))
			m.setNotice(api.MsgCatalogFailed, true)
		}
		return m, nil
	}

	session, err := assessment.NewSession(msg.key, msg.assessment, m.flowLog)
	if err != nil {
		m.logger.Warn("cannot start assessment", zap.Error(err))
		m.setNotice(err.Error(), true)
		return m, nil
	}

	m.discardSession()
	m.session = session
	m.alert = ""
	m.insights = ""
	m.reloadPrompt = false
	m.setNotice("", false)
	m.modal.Open()
	cmd := m.syncInput()
	return m, cmd
}

// discardSession drops the current run and any submission it started.
func (m *Model) discardSession() {
	if m.session == nil {
		return
	}
	if m.session.Flow.Status() == assessment.StatusSubmitting {
		m.backend.CancelSubmission()
	}
	m.session.Close()
}

// syncInput prepares the controls for the current question. Re-rendering a
// visited question shows its stored answer.
func (m *Model) syncInput() tea.Cmd {
	in, err := m.session.Flow.Input()
	if err != nil {
		m.alert = err.Error()
		m.modal.SetControls(0)
		return nil
	}
	m.modal.SetControls(in.Controls())

	if text, ok := in.(*assessment.TextInput); ok {
		m.textInput.Placeholder = text.Placeholder()
		m.textInput.SetValue(text.Text())
		return m.textInput.Focus()
	}
	m.textInput.Blur()
	return nil
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	flow := m.session.Flow

	switch {
	case key.Matches(msg, m.keys.Close):
		cmd := m.closeOverlay()
		return m, cmd
	case key.Matches(msg, m.keys.Next):
		return m.advance()
	case key.Matches(msg, m.keys.Back):
		if flow.Retreat() {
			m.alert = ""
			cmd := m.syncInput()
			return m, cmd
		}
		return m, nil
	}

	if flow.Status() == assessment.StatusSubmitting {
		return m, nil
	}

	in, err := flow.Input()
	if err != nil {
		return m, nil
	}

	if text, ok := in.(*assessment.TextInput); ok {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		text.SetText(m.textInput.Value())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.NextFocus):
		m.modal.FocusNext()
	case key.Matches(msg, m.keys.PrevFocus):
		m.modal.FocusPrev()
	case key.Matches(msg, m.keys.Select):
		m.selectFocused(in)
	}
	return m, nil
}

func (m *Model) selectFocused(in assessment.Input) {
	var err error
	switch in := in.(type) {
	case *assessment.ScaleInput:
		err = in.Select(m.modal.Focus())
	case *assessment.ChoiceInput:
		_, err = in.ToggleIndex(m.modal.Focus())
	}
	if err != nil {
		m.logger.Debug("select failed", zap.Error(err))
		return
	}
	m.alert = ""
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	step, err := m.session.Advance()
	if err != nil {
		var verr *assessment.ValidationError
		if errors.As(err, &verr) {
			m.alert = verr.Message
		}
		return m, nil
	}

	m.alert = ""
	switch step {
	case assessment.StepSubmit:
		return m, m.submit(m.session)
	default:
		cmd := m.syncInput()
		return m, cmd
	}
}

func (m Model) submit(session *assessment.Session) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		result, err := backend.Submit(ctx, session.Assessment, session.Store)
		return submittedMsg{session: session, result: result, err: err}
	}
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	if msg.session != m.session || msg.session.Closed() || errors.Is(msg.err, inflight.ErrSuperseded) {
		m.logger.Debug("ignoring result for a closed assessment")
		return m, nil
	}
	flow := m.session.Flow

	if msg.err != nil {
		flow.SubmissionFailed()
		switch {
		case errors.Is(msg.err, inflight.ErrBusy):
			m.alert = "A previous submission is still being saved. Try again in a moment."
		case errors.Is(msg.err, api.ErrIncompleteAnswers):
			m.alert = assessment.MsgSelectAnswer
		default:
			m.flowLog.Warn("assessment submission failed", zap.Error(msg.err))
			m.alert = api.MsgSaveFailed
		}
		return m, nil
	}

	flow.SubmissionSucceeded()
	m.session.Close()
	if msg.result.HasInsights() {
		m.insights = m.renderInsights(msg.result.Insights)
		m.setNotice(msg.result.Notice(), false)
	} else {
		m.reloadPrompt = true
		m.setNotice(msg.result.Notice()+" "+MsgReloadPrompt, false)
	}
	return m, m.modal.Close()
}

// closeOverlay dismisses the overlay and abandons the run.
func (m *Model) closeOverlay() tea.Cmd {
	m.discardSession()
	m.textInput.Blur()
	return m.modal.Close()
}

func (m Model) renderInsights(in *api.Insights) string {
	var b strings.Builder
	b.WriteString("## Your results\n\n")
	if in.Summary != "" {
		b.WriteString(in.Summary)
		b.WriteString("\n\n")
	}
	if len(in.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for _, r := range in.Recommendations {
			b.WriteString("- " + r + "\n")
		}
		b.WriteString("\n")
	}
	if len(in.Resources) > 0 {
		b.WriteString("### Resources\n\n")
		for _, r := range in.Resources {
			b.WriteString("- " + r + "\n")
		}
	}
	return m.markdown(b.String())
}

// markdown renders md, falling back to the source when no renderer is set.
func (m Model) markdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
