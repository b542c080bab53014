package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindful/internal/assessment"
	"mindful/internal/config"
	"mindful/internal/inflight"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

func newTestClient(t *testing.T, r *mux.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Server.BaseURL = srv.URL
	cfg.Server.CSRFToken = "test-token"
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func gad3() *assessment.Assessment {
	opts := []string{"Not at all", "Several days", "More than half the days", "Nearly every day"}
	return &assessment.Assessment{
		Title: "GAD-7 Anxiety Assessment",
		Questions: []assessment.Question{
			{Text: "Nervous", Kind: assessment.KindScale, Options: opts},
			{Text: "Worrying", Kind: assessment.KindScale, Options: opts},
			{Text: "Restless", Kind: assessment.KindScale, Options: opts},
		},
	}
}

func answered(a *assessment.Assessment, values ...int) *assessment.Store {
	s := assessment.NewStore(len(a.Questions))
	for i, v := range values {
		s.SetStandard(i, v)
	}
	return s
}

func intp(v int) *int { return &v }

// =============================================================================
// PAYLOAD
// =============================================================================

func TestBuildPayload_ScoreIsSumOfStandardAnswers(t *testing.T) {
	a := gad3()
	store := answered(a, 1, 2, 0)
	store.Toggle("triggers", "Work")

	p, err := BuildPayload(a, store)
	require.NoError(t, err)

	want := Payload{
		AssessmentType: "GAD-7 Anxiety Assessment",
		Score:          3,
		Responses:      []*int{intp(1), intp(2), intp(0)},
		ContextualResponses: map[string]assessment.Response{
			"triggers": {Kind: assessment.ResponseChoices, Choices: []string{"Work"}},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"assessment_type": "GAD-7 Anxiety Assessment",
		"score": 3,
		"responses": [1, 2, 0],
		"contextual_responses": {"triggers": ["Work"]}
	}`, string(data))
}

func TestBuildPayload_MissingScaleAnswer(t *testing.T) {
	a := gad3()
	_, err := BuildPayload(a, answered(a, 1, 2))
	assert.ErrorIs(t, err, ErrIncompleteAnswers)
	assert.ErrorContains(t, err, "question 3")
}

func TestBuildPayload_NonScaleStandardQuestionIsNull(t *testing.T) {
	a := gad3()
	a.Questions[1] = assessment.Question{ID: "mood", Text: "Mood?", Kind: assessment.KindOpenEnded}
	store := answered(a, 3)
	store.SetStandard(2, 1)
	store.SetText("mood", "tired")

	p, err := BuildPayload(a, store)
	require.NoError(t, err)
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"assessment_type": "GAD-7 Anxiety Assessment",
		"score": 4,
		"responses": [3, null, 1],
		"contextual_responses": {"mood": "tired"}
	}`, string(data))
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSaveAssessment_SendsHeadersAndDecodesInsights(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/patient/api/save-assessment", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "test-token", req.Header.Get("X-CSRFToken"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "req-1", req.Header.Get("X-Request-ID"))

		var got Payload
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		assert.Equal(t, 3, got.Score)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Saved!",
			"ai_insights": map[string]any{
				"summary":         "Mild anxiety.",
				"recommendations": []string{"Breathe"},
				"resources":       []string{"https://example.org"},
			},
		})
	}).Methods(http.MethodPost)
	c := newTestClient(t, r)

	a := gad3()
	p, err := BuildPayload(a, answered(a, 1, 2, 0))
	require.NoError(t, err)

	res, err := c.SaveAssessment(WithRequestID(context.Background(), "req-1"), p)
	require.NoError(t, err)
	assert.True(t, res.HasInsights())
	assert.Equal(t, "Saved!", res.Notice())
	assert.Equal(t, []string{"Breathe"}, res.Insights.Recommendations)
}

func TestSaveAssessment_PlainTextBody(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/patient/api/save-assessment", func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, "ok, stored\n")
	})
	c := newTestClient(t, r)

	a := gad3()
	p, err := BuildPayload(a, answered(a, 0, 0, 0))
	require.NoError(t, err)
	res, err := c.SaveAssessment(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, res.HasInsights())
	assert.Equal(t, "ok, stored", res.Notice())
}

func TestSaveAssessment_ServerError(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/patient/api/save-assessment", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestClient(t, r)

	a := gad3()
	p, err := BuildPayload(a, answered(a, 1, 1, 1))
	require.NoError(t, err)
	_, err = c.SaveAssessment(context.Background(), p)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Body)
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestSubmitter_FailureThenSingleRetry(t *testing.T) {
	var posts atomic.Int32
	r := mux.NewRouter()
	r.HandleFunc("/patient/api/save-assessment", func(w http.ResponseWriter, req *http.Request) {
		if posts.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	c := newTestClient(t, r)
	sub := NewSubmitter(c, nil)

	a := gad3()
	store := assessment.NewStore(len(a.Questions))
	flow := assessment.NewFlow(a, store)
	for _, v := range []int{1, 2, 0} {
		store.SetStandard(flow.Index(), v)
		_, err := flow.Advance()
		require.NoError(t, err)
	}
	require.Equal(t, assessment.StatusSubmitting, flow.Status())

	before := store.Snapshot()
	_, err := sub.Submit(context.Background(), a, store)
	require.Error(t, err)
	flow.SubmissionFailed()
	assert.Equal(t, before, store.Snapshot(), "a failed submission must not touch the answers")
	assert.False(t, sub.Busy())

	step, err := flow.Advance()
	require.NoError(t, err)
	require.Equal(t, assessment.StepSubmit, step)
	res, err := sub.Submit(context.Background(), a, store)
	require.NoError(t, err)
	flow.SubmissionSucceeded()

	assert.Equal(t, MsgAssessmentSaved, res.Notice())
	assert.Equal(t, int32(2), posts.Load(), "exactly one retry request")
	assert.Equal(t, assessment.StatusDone, flow.Status())
}

// blockingSaver holds SaveAssessment until release is closed.
type blockingSaver struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingSaver) SaveAssessment(ctx context.Context, p Payload) (*SaveResult, error) {
	b.calls.Add(1)
	b.entered <- struct{}{}
	<-b.release
	return &SaveResult{Success: true}, nil
}

func TestSubmitter_OneInFlight(t *testing.T) {
	saver := &blockingSaver{entered: make(chan struct{}, 1), release: make(chan struct{})}
	sub := NewSubmitter(saver, nil)
	a := gad3()
	store := answered(a, 1, 1, 1)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(context.Background(), a, store)
		done <- err
	}()
	<-saver.entered

	_, err := sub.Submit(context.Background(), a, store)
	assert.ErrorIs(t, err, inflight.ErrBusy)

	close(saver.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), saver.calls.Load())
}

func TestSubmitter_ResetDiscardsLateResult(t *testing.T) {
	saver := &blockingSaver{entered: make(chan struct{}, 1), release: make(chan struct{})}
	sub := NewSubmitter(saver, nil)
	a := gad3()

	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(context.Background(), a, answered(a, 0, 1, 2))
		done <- err
	}()
	<-saver.entered
	sub.Reset()
	close(saver.release)

	assert.ErrorIs(t, <-done, inflight.ErrSuperseded)
	assert.False(t, sub.Busy())
}

func TestSubmitter_IncompleteDoesNotPost(t *testing.T) {
	saver := &blockingSaver{entered: make(chan struct{}, 1), release: make(chan struct{})}
	sub := NewSubmitter(saver, nil)
	a := gad3()

	_, err := sub.Submit(context.Background(), a, answered(a, 1))
	assert.ErrorIs(t, err, ErrIncompleteAnswers)
	assert.Zero(t, saver.calls.Load())
	assert.False(t, sub.Busy())
}

// =============================================================================
// CATALOG
// =============================================================================

func TestFetchCatalog(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/static/questions.json", func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `{"GAD-7": {"title": "GAD-7", "questions": []}}`)
	}).Methods(http.MethodGet)
	c := newTestClient(t, r)

	data, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "GAD-7")
}

func TestFetchCatalog_NotFound(t *testing.T) {
	c := newTestClient(t, mux.NewRouter())
	_, err := c.FetchCatalog(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestNetworkErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := config.DefaultConfig()
	cfg.Server.BaseURL = srv.URL
	srv.Close()

	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	_, err = c.FetchCatalog(context.Background())
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
	assert.True(t, strings.Contains(err.Error(), "catalog request failed"))
}
