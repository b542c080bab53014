package assessment

import (
	"encoding/json"
	"slices"
)

// ResponseKind tags the variant held by a Response.
type ResponseKind int

const (
	ResponseChoices ResponseKind = iota + 1 // Set of selected option labels
	ResponseText                            // Free text
)

// Response is a contextual answer: either a choice set or free text.
type Response struct {
	Kind    ResponseKind
	Choices []string
	Text    string
}

// MarshalJSON encodes a choice set as an array and text as a string.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Kind == ResponseText {
		return json.Marshal(r.Text)
	}
	choices := r.Choices
	if choices == nil {
		choices = []string{}
	}
	return json.Marshal(choices)
}

func (r Response) clone() Response {
	return Response{Kind: r.Kind, Choices: slices.Clone(r.Choices), Text: r.Text}
}

// Store accumulates the answers of one assessment run.
// Standard answers are positional; contextual answers are keyed by question id.
type Store struct {
	standard   []*int
	contextual map[string]*Response
}

// NewStore creates an empty store sized for the standard list.
func NewStore(standardLen int) *Store {
	if standardLen < 0 {
		standardLen = 0
	}
	return &Store{
		standard:   make([]*int, standardLen),
		contextual: make(map[string]*Response),
	}
}

// SetStandard records the chosen option index at a standard position.
func (s *Store) SetStandard(pos, choice int) {
	if pos < 0 {
		return
	}
	for len(s.standard) <= pos {
		s.standard = append(s.standard, nil)
	}
	v := choice
	s.standard[pos] = &v
}

// Standard returns the recorded index at a standard position.
func (s *Store) Standard(pos int) (int, bool) {
	if pos < 0 || pos >= len(s.standard) || s.standard[pos] == nil {
		return 0, false
	}
	return *s.standard[pos], true
}

// StandardLen is the number of standard positions tracked.
func (s *Store) StandardLen() int {
	return len(s.standard)
}

// Toggle flips membership of option in the set for question id and
// reports whether the option is now selected.
func (s *Store) Toggle(id, option string) bool {
	r := s.contextual[id]
	if r == nil || r.Kind != ResponseChoices {
		r = &Response{Kind: ResponseChoices}
		s.contextual[id] = r
	}
	if i := slices.Index(r.Choices, option); i >= 0 {
		r.Choices = slices.Delete(r.Choices, i, i+1)
		return false
	}
	r.Choices = append(r.Choices, option)
	return true
}

// SetChoice replaces the set for question id with a single option.
func (s *Store) SetChoice(id, option string) {
	s.contextual[id] = &Response{Kind: ResponseChoices, Choices: []string{option}}
}

// Choices returns the selected options for question id in toggle order.
func (s *Store) Choices(id string) []string {
	r := s.contextual[id]
	if r == nil || r.Kind != ResponseChoices {
		return nil
	}
	return slices.Clone(r.Choices)
}

// Checked reports whether option is in the set for question id.
func (s *Store) Checked(id, option string) bool {
	r := s.contextual[id]
	return r != nil && r.Kind == ResponseChoices && slices.Contains(r.Choices, option)
}

// SetText overwrites the free text for question id. Last write wins.
func (s *Store) SetText(id, text string) {
	s.contextual[id] = &Response{Kind: ResponseText, Text: text}
}

// Text returns the free text for question id.
func (s *Store) Text(id string) string {
	r := s.contextual[id]
	if r == nil || r.Kind != ResponseText {
		return ""
	}
	return r.Text
}

// Visited reports whether any answer was recorded for question id.
func (s *Store) Visited(id string) bool {
	_, ok := s.contextual[id]
	return ok
}

// Contextual returns a copy of the id-keyed answers.
func (s *Store) Contextual() map[string]Response {
	out := make(map[string]Response, len(s.contextual))
	for id, r := range s.contextual {
		out[id] = r.clone()
	}
	return out
}

// Snapshot is a value copy of the store, used to compare state across operations.
type Snapshot struct {
	Standard   []*int
	Contextual map[string]Response
}

// Snapshot copies the current answers.
func (s *Store) Snapshot() Snapshot {
	standard := make([]*int, len(s.standard))
	for i, v := range s.standard {
		if v != nil {
			c := *v
			standard[i] = &c
		}
	}
	return Snapshot{Standard: standard, Contextual: s.Contextual()}
}
