package assessment

import (
	"errors"
	"strings"
)

// Phase selects which question list is active.
type Phase int

const (
	PhaseStandard Phase = iota
	PhaseContextual
)

func (p Phase) String() string {
	if p == PhaseContextual {
		return "contextual"
	}
	return "standard"
}

// Status is the flow controller's state.
type Status int

const (
	StatusStandard   Status = iota // Answering standard questions
	StatusContextual               // Answering contextual follow-ups
	StatusSubmitting               // Submission triggered, waiting for the result
	StatusDone                     // Submission succeeded
)

func (s Status) String() string {
	names := []string{"standard", "contextual", "submitting", "done"}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// Step is the outcome of a successful Advance.
type Step int

const (
	StepMoved         Step = iota + 1 // Index incremented within the active list
	StepPhaseSwitched                 // Standard list exhausted, now at contextual question 1
	StepSubmit                        // Last question passed, caller must submit
)

var (
	// ErrSubmissionInFlight is returned by Advance while a submission is pending.
	ErrSubmissionInFlight = errors.New("submission already in progress")
	// ErrFinished is returned by Advance after a successful submission.
	ErrFinished = errors.New("assessment already completed")
)

// ValidationError blocks a move because the current question lacks a required answer.
// The flow state is unchanged when it is returned.
type ValidationError struct {
	QuestionID string
	Message    string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation messages shown to the user.
const (
	MsgSelectAnswer     = "Please select an answer before continuing."
	MsgSelectAtLeastOne = "Please select at least one answer before completing."
	MsgProvideResponse  = "Please provide a response before completing."
)

// Flow walks an assessment's standard questions and then its contextual
// questions, and decides when the run is ready to submit.
type Flow struct {
	assessment *Assessment
	store      *Store
	index      int
	phase      Phase
	status     Status
	prior      Status
	switches   int
}

// NewFlow starts at the first standard question.
func NewFlow(a *Assessment, store *Store) *Flow {
	return &Flow{assessment: a, store: store}
}

// Active returns the list for the current phase. It is the assessment's own
// slice, never a copy.
func (f *Flow) Active() []Question {
	if f.phase == PhaseContextual {
		return f.assessment.ContextualQuestions
	}
	return f.assessment.Questions
}

func (f *Flow) Index() int         { return f.index }
func (f *Flow) Phase() Phase       { return f.phase }
func (f *Flow) Status() Status     { return f.status }
func (f *Flow) PhaseSwitches() int { return f.switches }

// Current returns the question at the current index.
func (f *Flow) Current() Question {
	return f.Active()[f.index]
}

// Input renders the current question against the store.
func (f *Flow) Input() (Input, error) {
	return Render(f.Current(), f.index, f.phase, f.store)
}

// Progress returns the 1-based position and the active list length.
func (f *Flow) Progress() (current, total int) {
	return f.index + 1, len(f.Active())
}

// IsLast reports whether advancing from here completes the assessment.
func (f *Flow) IsLast() bool {
	if f.index < len(f.Active())-1 {
		return false
	}
	return f.phase == PhaseContextual || !f.assessment.HasContextual()
}

// NextLabel is the caption of the forward control.
func (f *Flow) NextLabel() string {
	if f.IsLast() {
		return "Complete Assessment"
	}
	return "Next"
}

// CanRetreat reports whether Retreat would move.
func (f *Flow) CanRetreat() bool {
	return f.index > 0 && (f.status == StatusStandard || f.status == StatusContextual)
}

// Advance moves forward one question, switches phase, or requests submission.
func (f *Flow) Advance() (Step, error) {
	switch f.status {
	case StatusSubmitting:
		return 0, ErrSubmissionInFlight
	case StatusDone:
		return 0, ErrFinished
	}

	q := f.Current()
	in, err := f.Input()
	if err != nil {
		return 0, err
	}
	if q.Kind == KindScale && !in.Answered() {
		return 0, &ValidationError{QuestionID: q.ID, Message: MsgSelectAnswer}
	}

	last := f.index == len(f.Active())-1
	if last && f.phase == PhaseStandard && f.assessment.HasContextual() {
		f.phase = PhaseContextual
		f.status = StatusContextual
		f.index = 0
		f.switches++
		return StepPhaseSwitched, nil
	}

	if last {
		if err := completionCheck(in); err != nil {
			return 0, err
		}
		f.prior = f.status
		f.status = StatusSubmitting
		return StepSubmit, nil
	}

	f.index++
	return StepMoved, nil
}

// Retreat moves back one question within the current phase.
func (f *Flow) Retreat() bool {
	if !f.CanRetreat() {
		return false
	}
	f.index--
	return true
}

// SubmissionSucceeded finishes the run.
func (f *Flow) SubmissionSucceeded() {
	if f.status == StatusSubmitting {
		f.status = StatusDone
	}
}

// SubmissionFailed returns to the state before submission so the user can retry
// without answering again.
func (f *Flow) SubmissionFailed() {
	if f.status == StatusSubmitting {
		f.status = f.prior
	}
}

func completionCheck(in Input) error {
	q := in.Question()
	switch q.Kind {
	case KindMultipleChoice:
		if !in.Answered() {
			return &ValidationError{QuestionID: q.ID, Message: MsgSelectAtLeastOne}
		}
	case KindOpenEnded:
		if !in.Answered() {
			return &ValidationError{QuestionID: q.ID, Message: MsgProvideResponse}
		}
	}
	return nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
