package api

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"mindful/internal/assessment"
	"mindful/internal/inflight"
)

// Insights is the analysis the backend may return after a save.
type Insights struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Resources       []string `json:"resources"`
}

// SaveResult is the decoded save-assessment response. When the body is not
// JSON it is kept as Message.
type SaveResult struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Insights *Insights `json:"ai_insights"`
}

// HasInsights reports whether insights can be shown without a reload.
func (r *SaveResult) HasInsights() bool {
	return r != nil && r.Success && r.Insights != nil
}

// Notice is the confirmation shown after a save.
func (r *SaveResult) Notice() string {
	if r != nil && r.Message != "" {
		return r.Message
	}
	return MsgAssessmentSaved
}

// SaveAssessment posts p. Non-2xx responses return *Error.
func (c *Client) SaveAssessment(ctx context.Context, p Payload) (*SaveResult, error) {
	resp, err := c.postJSON(ctx, "save-assessment", c.endpoints.SaveAssessment, p)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		c.logger.Warn("save assessment rejected", zap.Int("status", resp.status), zap.String("body", truncate(string(resp.body), 200)))
		return nil, newError("save-assessment", resp)
	}

	var result SaveResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		result = SaveResult{Message: strings.TrimSpace(string(resp.body))}
	}
	return &result, nil
}

// AssessmentSaver is the part of Client the Submitter needs.
type AssessmentSaver interface {
	SaveAssessment(ctx context.Context, p Payload) (*SaveResult, error)
}

// Submitter sends finished runs, at most one at a time.
type Submitter struct {
	saver  AssessmentSaver
	guard  *inflight.Guard
	logger *zap.Logger
}

// NewSubmitter wraps saver with an in-flight guard.
func NewSubmitter(saver AssessmentSaver, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{saver: saver, guard: inflight.New("save-assessment"), logger: logger}
}

// Submit builds the payload from store and saves it. It returns
// inflight.ErrBusy while another submission runs and inflight.ErrSuperseded
// when Reset was called before the response arrived. The store is only read.
func (s *Submitter) Submit(ctx context.Context, a *assessment.Assessment, store *assessment.Store) (*SaveResult, error) {
	ticket, err := s.guard.Begin()
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("request_id", ticket.ID))

	payload, err := BuildPayload(a, store)
	if err != nil {
		s.guard.Finish(ticket, false)
		return nil, err
	}
	log.Info("submitting assessment",
		zap.String("assessment_type", payload.AssessmentType),
		zap.Int("score", payload.Score))

	result, err := s.saver.SaveAssessment(WithRequestID(ctx, ticket.ID), payload)
	if !s.guard.Finish(ticket, err == nil) {
		log.Info("discarding superseded submission result")
		return nil, inflight.ErrSuperseded
	}
	if err != nil {
		log.Warn("submission failed", zap.Error(err))
		return nil, err
	}
	log.Info("assessment saved", zap.Bool("insights", result.HasInsights()))
	return result, nil
}

// Busy reports whether a submission is in flight.
func (s *Submitter) Busy() bool { return s.guard.Busy() }

// Reset drops any in-flight submission; its result will be discarded.
func (s *Submitter) Reset() { s.guard.Reset() }
