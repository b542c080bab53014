// Package tui is the interactive terminal host: a dashboard with the
// assessment list and mood picker, the assessment overlay, and the chat pane.
package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mindful/cmd/mindful/ui"
	"mindful/internal/api"
	"mindful/internal/assessment"
	"mindful/internal/catalog"
	"mindful/internal/chat"
	"mindful/internal/config"
	"mindful/internal/inflight"
	"mindful/internal/logging"
)

// Pane is the dashboard region that receives keys.
type Pane int

const (
	PaneDashboard Pane = iota
	PaneChat
)

// Messages produced by commands.
type (
	bootMsg struct {
		catalog    catalog.Catalog
		catalogErr error
		csrfErr    error
	}

	catalogMsg struct {
		catalog catalog.Catalog
		err     error
	}

	openedMsg struct {
		ticket     inflight.Ticket
		name       string
		key        string
		assessment *assessment.Assessment
		err        error
	}

	submittedMsg struct {
		session *assessment.Session
		result  *api.SaveResult
		err     error
	}

	chatReplyMsg struct {
		ticket inflight.Ticket
		reply  *api.ChatReply
		err    error
	}

	bookedMsg struct {
		result *api.BookingResult
		err    error
	}

	pollMsg struct {
		ch     <-chan chat.Result
		result chat.Result
		ok     bool
	}

	moodMsg struct {
		ticket inflight.Ticket
		result *api.MoodResult
		err    error
	}

	// catalogReloadedMsg comes from the file watcher through Program.Send.
	catalogReloadedMsg struct {
		catalog catalog.Catalog
		err     error
	}
)

// Model is the bubbletea model. It runs on the program's event loop only.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	backend Backend
	cfg     *config.Config
	logger  *zap.Logger
	flowLog *zap.Logger

	styles ui.Styles
	keys   keyMap
	help   help.Model
	layout ui.LayoutConfig
	width  int
	height int
	ready  bool
	pane   Pane

	// Dashboard
	loading      bool
	catalog      catalog.Catalog
	names        []string
	cursor       int
	notice       string
	noticeErr    bool
	reloadPrompt bool
	insights     string
	mood         int

	// Overlay
	modal     *ui.Modal
	session   *assessment.Session
	openGuard *inflight.Guard
	alert     string
	textInput textarea.Model

	// Chat
	transcript  *chat.Transcript
	chatGuard   *inflight.Guard
	chatInput   textarea.Model
	viewport    viewport.Model
	banner      api.Action
	lastMessage string
	poller      *chat.Poller
	pollCh      <-chan chat.Result

	moodGuard *inflight.Guard
	spinner   spinner.Model
	renderer  *glamour.TermRenderer
}

// New builds the model. Call Shutdown when the program exits.
func New(ctx context.Context, backend Backend, cfg *config.Config, logs *logging.Loggers) Model {
	ctx, cancel := context.WithCancel(ctx)
	styles := ui.DefaultStyles()

	text := textarea.New()
	text.Placeholder = "Your thoughts..."
	text.ShowLineNumbers = false
	text.SetHeight(4)
	text.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.ShowLineNumbers = false
	input.SetHeight(ui.ChatInputHeight)
	input.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Model{
		ctx:        ctx,
		cancel:     cancel,
		backend:    backend,
		cfg:        cfg,
		logger:     logs.Get(config.CategoryUI),
		flowLog:    logs.Get(config.CategoryFlow),
		styles:     styles,
		keys:       defaultKeyMap(),
		help:       help.New(),
		layout:     ui.NewLayoutConfig(0, 0),
		loading:    true,
		modal:      ui.NewModal(cfg.GetCloseTransition()),
		openGuard:  inflight.New("open-assessment"),
		textInput:  text,
		transcript: chat.NewTranscript(cfg.Chat.Welcome),
		chatGuard:  inflight.New("chat"),
		chatInput:  input,
		viewport:   viewport.New(40, 10),
		moodGuard:  inflight.New("mood"),
		spinner:    sp,
	}
	if cfg.Chat.ID != "" {
		m.poller = chat.NewPoller(backend, cfg.Chat.ID, cfg.GetPollInterval(), cfg.GetRateLimitInterval(), logs.Get(config.CategoryChat))
	}
	m.renderer = newRenderer(styles.Theme, 60)
	m.refreshTranscript()
	return m
}

func newRenderer(theme ui.Theme, width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts boot loading, chat polling and the spinner.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.boot(), m.spinner.Tick, textarea.Blink}
	if m.poller != nil {
		// Init cannot store the channel; the first pollMsg adopts it.
		cmds = append(cmds, waitForPoll(m.poller.Start(m.ctx)))
	}
	return tea.Batch(cmds...)
}

// Shutdown stops polling and cancels outstanding requests.
func (m Model) Shutdown() {
	if m.poller != nil {
		m.poller.Stop()
	}
	m.cancel()
}

// boot loads the catalog and discovers the csrf token concurrently. Each task
// reports its own error; one failing does not cancel the other.
func (m Model) boot() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		var (
			mu  sync.Mutex
			out bootMsg
		)
		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			if err := backend.DiscoverCSRF(egCtx); err != nil {
				mu.Lock()
				out.csrfErr = err
				mu.Unlock()
			}
			return nil
		})
		eg.Go(func() error {
			cat, err := backend.LoadCatalog(egCtx)
			mu.Lock()
			out.catalog, out.catalogErr = cat, err
			mu.Unlock()
			return nil
		})
		_ = eg.Wait()
		return out
	}
}

func waitForPoll(ch <-chan chat.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		return pollMsg{ch: ch, result: res, ok: ok}
	}
}

// CatalogReloaded converts a watcher callback into a message for Program.Send.
func CatalogReloaded(cat catalog.Catalog, err error) tea.Msg {
	return catalogReloadedMsg{catalog: cat, err: err}
}

// Session returns the active assessment run, or nil.
func (m Model) Session() *assessment.Session { return m.session }

// Transcript returns the chat transcript.
func (m Model) Transcript() *chat.Transcript { return m.transcript }

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}
