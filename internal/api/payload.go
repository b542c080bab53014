package api

import (
	"errors"
	"fmt"

	"mindful/internal/assessment"
)

// ErrIncompleteAnswers is returned when a standard scale question has no answer.
var ErrIncompleteAnswers = errors.New("incomplete answers")

// Payload is the body of a save-assessment request.
type Payload struct {
	AssessmentType string `json:"assessment_type"`
	Score          int    `json:"score"`
	// One entry per standard question. Non-scale positions are null.
	Responses           []*int                         `json:"responses"`
	ContextualResponses map[string]assessment.Response `json:"contextual_responses"`
}

// BuildPayload reads a finished run out of store.
// The score is the sum of the standard scale answers.
func BuildPayload(a *assessment.Assessment, store *assessment.Store) (Payload, error) {
	if a == nil || store == nil {
		return Payload{}, fmt.Errorf("build payload: missing assessment or store")
	}

	p := Payload{
		AssessmentType:      a.Title,
		Responses:           make([]*int, len(a.Questions)),
		ContextualResponses: store.Contextual(),
	}
	for i, q := range a.Questions {
		if q.Kind != assessment.KindScale {
			continue
		}
		v, ok := store.Standard(i)
		if !ok {
			return Payload{}, fmt.Errorf("%w: question %d has no answer", ErrIncompleteAnswers, i+1)
		}
		p.Responses[i] = &v
		p.Score += v
	}
	return p, nil
}
