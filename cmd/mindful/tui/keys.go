package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Pane     key.Binding
	Reload   key.Binding
	Mood     key.Binding
	SaveMood key.Binding
	Book     key.Binding
	Yes      key.Binding
	No       key.Binding

	// Overlay
	NextFocus key.Binding
	PrevFocus key.Binding
	Select    key.Binding
	Next      key.Binding
	Back      key.Binding
	Close     key.Binding

	// Chat
	Send     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start assessment")),
		Pane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Mood:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "mood")),
		SaveMood: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save mood")),
		Book:     key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "book appointment")),
		Yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "reload")),
		No:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "dismiss")),

		NextFocus: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next option")),
		PrevFocus: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous option")),
		Select:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select")),
		Next:      key.NewBinding(key.WithKeys("enter", "ctrl+n"), key.WithHelp("enter", "next")),
		Back:      key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "back")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),

		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "scroll down")),
	}
}

// dashboardHelp is the short help for the dashboard pane.
func (k keyMap) dashboardHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Mood, k.SaveMood, k.Pane, k.Reload, k.Quit}
}

func (k keyMap) chatHelp() []key.Binding {
	return []key.Binding{k.Send, k.PageUp, k.PageDown, k.Book, k.Pane, k.Quit}
}

func (k keyMap) overlayHelp() []key.Binding {
	return []key.Binding{k.NextFocus, k.PrevFocus, k.Select, k.Next, k.Back, k.Close}
}
