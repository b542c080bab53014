package assessment

import (
	"fmt"
	"slices"
)

// Input is the input surface for one question. Its setters are the change
// callbacks that write into the Store; its getters restore prior answers when a
// visited question is shown again.
type Input interface {
	Question() Question
	// Answered reports whether the question currently has a usable answer.
	Answered() bool
	// Controls is the number of focusable controls the surface exposes.
	Controls() int
}

// Render builds the input surface for q at position pos of the active list.
func Render(q Question, pos int, phase Phase, store *Store) (Input, error) {
	if store == nil {
		return nil, fmt.Errorf("render %q: nil store", q.ID)
	}
	switch q.Kind {
	case KindScale:
		return &ScaleInput{q: q, pos: pos, phase: phase, store: store}, nil
	case KindMultipleChoice:
		return &ChoiceInput{q: q, store: store}, nil
	case KindOpenEnded:
		return &TextInput{q: q, store: store}, nil
	default:
		return nil, fmt.Errorf("render question %d: unsupported type %s", pos+1, q.Kind)
	}
}

// ScaleInput is an exclusive choice among the question's options.
type ScaleInput struct {
	q     Question
	pos   int
	phase Phase
	store *Store
}

func (in *ScaleInput) Question() Question { return in.q }
func (in *ScaleInput) Controls() int      { return len(in.q.Options) }

// Options returns the option labels in display order.
func (in *ScaleInput) Options() []string { return in.q.Options }

// Selected returns the chosen option index.
// In the contextual phase the choice is keyed by id and stored as its label.
func (in *ScaleInput) Selected() (int, bool) {
	if in.phase == PhaseStandard {
		return in.store.Standard(in.pos)
	}
	choices := in.store.Choices(in.q.ID)
	if len(choices) == 0 {
		return 0, false
	}
	i := slices.Index(in.q.Options, choices[0])
	return i, i >= 0
}

// Select records option i.
func (in *ScaleInput) Select(i int) error {
	if i < 0 || i >= len(in.q.Options) {
		return fmt.Errorf("option %d out of range (0-%d)", i, len(in.q.Options)-1)
	}
	if in.phase == PhaseStandard {
		in.store.SetStandard(in.pos, i)
		return nil
	}
	in.store.SetChoice(in.q.ID, in.q.Options[i])
	return nil
}

func (in *ScaleInput) Answered() bool {
	_, ok := in.Selected()
	return ok
}

// ChoiceInput is a set of independent toggles.
type ChoiceInput struct {
	q     Question
	store *Store
}

func (in *ChoiceInput) Question() Question { return in.q }
func (in *ChoiceInput) Controls() int      { return len(in.q.Options) }

// Options returns the option labels in display order.
func (in *ChoiceInput) Options() []string { return in.q.Options }

// Toggle flips option membership and reports whether it is now checked.
func (in *ChoiceInput) Toggle(option string) (bool, error) {
	if !slices.Contains(in.q.Options, option) {
		return false, fmt.Errorf("unknown option %q for question %q", option, in.q.ID)
	}
	return in.store.Toggle(in.q.ID, option), nil
}

// ToggleIndex flips the option at index i.
func (in *ChoiceInput) ToggleIndex(i int) (bool, error) {
	if i < 0 || i >= len(in.q.Options) {
		return false, fmt.Errorf("option %d out of range (0-%d)", i, len(in.q.Options)-1)
	}
	return in.Toggle(in.q.Options[i])
}

// Checked reports whether option is selected.
func (in *ChoiceInput) Checked(option string) bool {
	return in.store.Checked(in.q.ID, option)
}

// Selected returns the checked options in toggle order.
func (in *ChoiceInput) Selected() []string {
	return in.store.Choices(in.q.ID)
}

func (in *ChoiceInput) Answered() bool {
	return len(in.store.Choices(in.q.ID)) > 0
}

// TextInput is a free-text answer.
type TextInput struct {
	q     Question
	store *Store
}

func (in *TextInput) Question() Question { return in.q }
func (in *TextInput) Controls() int      { return 1 }

// Placeholder is shown while the answer is empty.
func (in *TextInput) Placeholder() string { return "Your thoughts..." }

// Text returns the stored answer.
func (in *TextInput) Text() string { return in.store.Text(in.q.ID) }

// SetText overwrites the stored answer.
func (in *TextInput) SetText(s string) { in.store.SetText(in.q.ID, s) }

func (in *TextInput) Answered() bool {
	return trimmed(in.Text()) != ""
}
