// Package assessment holds the questionnaire model for a single assessment run:
// the question catalog types, the answer store, the per-question input surfaces,
// and the flow controller that walks standard and contextual questions.
package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the input style of a question.
type Kind int

const (
	KindScale          Kind = iota + 1 // One exclusive choice, stored positionally as an index
	KindMultipleChoice                 // Independent toggles, stored as a set keyed by question id
	KindOpenEnded                      // Free text keyed by question id
)

var kindNames = map[Kind]string{
	KindScale:          "scale",
	KindMultipleChoice: "multiple-choice",
	KindOpenEnded:      "open-ended",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a wire name to a Kind. Unknown names are an error.
func ParseKind(s string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == normalized {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown question type %q", s)
}

// UnmarshalJSON decodes the wire name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("question type must be a string: %w", err)
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalJSON encodes the wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("cannot encode %s", k)
	}
	return json.Marshal(name)
}

// Question is one step of an assessment.
type Question struct {
	ID      string   `json:"id,omitempty"`
	Text    string   `json:"text"`
	Kind    Kind     `json:"type"`
	Options []string `json:"options,omitempty"`
}

// UnmarshalJSON accepts both string and numeric ids.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      json.RawMessage `json:"id"`
		Text    string          `json:"text"`
		Kind    Kind            `json:"type"`
		Options []string        `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		q.ID = ""
	case id[0] == '"':
		if err := json.Unmarshal(id, &q.ID); err != nil {
			return fmt.Errorf("invalid question id: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("question id must be a string or number: %w", err)
		}
		q.ID = n.String()
	}

	q.Text = raw.Text
	q.Kind = raw.Kind
	q.Options = raw.Options
	return nil
}

// Assessment is a named questionnaire with a standard list and an optional
// contextual follow-up list.
type Assessment struct {
	Title               string     `json:"title"`
	Questions           []Question `json:"questions"`
	ContextualQuestions []Question `json:"contextual_questions,omitempty"`
}

// HasContextual reports whether a contextual phase exists.
func (a *Assessment) HasContextual() bool {
	return len(a.ContextualQuestions) > 0
}

// Validate checks the structural rules the flow relies on.
func (a *Assessment) Validate() error {
	if a == nil {
		return fmt.Errorf("assessment is nil")
	}
	if len(a.Questions) == 0 {
		return fmt.Errorf("assessment %q has no questions", a.Title)
	}
	if err := validateList(a.Questions, false); err != nil {
		return fmt.Errorf("assessment %q: %w", a.Title, err)
	}
	if err := validateList(a.ContextualQuestions, true); err != nil {
		return fmt.Errorf("assessment %q contextual: %w", a.Title, err)
	}
	return nil
}

func validateList(questions []Question, contextual bool) error {
	seen := make(map[string]bool)
	for i, q := range questions {
		if _, ok := kindNames[q.Kind]; !ok {
			return fmt.Errorf("question %d: missing or unknown type", i+1)
		}
		if (q.Kind == KindScale || q.Kind == KindMultipleChoice) && len(q.Options) == 0 {
			return fmt.Errorf("question %d: %s question needs options", i+1, q.Kind)
		}
		// Only positional scale answers can live without an id.
		keyed := contextual || q.Kind != KindScale
		if keyed && q.ID == "" {
			return fmt.Errorf("question %d: %s question needs an id", i+1, q.Kind)
		}
		if q.ID != "" {
			if seen[q.ID] {
				return fmt.Errorf("question %d: duplicate id %q", i+1, q.ID)
			}
			seen[q.ID] = true
		}
	}
	return nil
}
