// Package chat keeps the assistant chat transcript in sync with the server
// and polls for new messages.
package chat

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mindful/internal/api"
)

// Speaker names used for locally appended lines.
const (
	SpeakerUser      = "You"
	SpeakerAssistant = "Dr. Anya"
	SpeakerSystem    = "System"
)

// Entry is one rendered transcript line.
type Entry struct {
	User string
	Text string
}

// Transcript is the ordered list of rendered chat lines.
// It is owned by a single goroutine.
type Transcript struct {
	entries []Entry
	// Length of the server list at the last merge that added anything.
	seen int
}

// NewTranscript starts a transcript with the assistant's welcome line.
// An empty welcome starts it empty.
func NewTranscript(welcome string) *Transcript {
	t := &Transcript{}
	if welcome != "" {
		t.Append(SpeakerAssistant, welcome)
	}
	return t
}

// Append adds a local line.
func (t *Transcript) Append(user, text string) {
	t.entries = append(t.entries, Entry{User: user, Text: text})
}

// Entries returns a copy of the lines.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len is the number of lines.
func (t *Transcript) Len() int { return len(t.entries) }

// Seen is the server message count recorded by the last growing merge.
func (t *Transcript) Seen() int { return t.seen }

// Merge adds server messages whose text is not already shown. It does nothing
// unless the server list grew since the last merge. Texts are compared by
// their text content, so markup differences do not create duplicates.
// Only lines shown before the merge filter the batch: a text repeated within
// one batch is kept every time.
func (t *Transcript) Merge(msgs []api.Message) []Entry {
	if len(msgs) <= t.seen {
		return nil
	}

	shown := make(map[string]bool, len(t.entries))
	for _, e := range t.entries {
		shown[TextContent(e.Text)] = true
	}

	var added []Entry
	for _, m := range msgs {
		key := TextContent(m.Text)
		if shown[key] {
			continue
		}
		e := Entry{User: m.User, Text: m.Text}
		t.entries = append(t.entries, e)
		added = append(added, e)
	}

	t.seen = len(msgs)
	return added
}

// TextContent strips markup from s and trims surrounding space.
func TextContent(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.TrimSpace(b.String())
}
