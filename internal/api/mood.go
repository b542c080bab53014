package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Mood values run from 1 (worst) to 5 (best).
const (
	MoodMin = 1
	MoodMax = 5
)

// ErrNoMood is returned when no mood was selected.
var ErrNoMood = errors.New(MsgMoodMissing)

// MoodResult is the outcome of a mood save. Message is always set.
type MoodResult struct {
	Saved   bool
	Message string
}

// SaveMood records today's mood. A rejected save is reported through
// MoodResult, not as an error; errors are for invalid input and transport
// failures.
func (c *Client) SaveMood(ctx context.Context, value int) (*MoodResult, error) {
	if value == 0 {
		return nil, ErrNoMood
	}
	if value < MoodMin || value > MoodMax {
		return nil, fmt.Errorf("mood must be between %d and %d, got %d", MoodMin, MoodMax, value)
	}

	resp, err := c.postJSON(ctx, "mood", c.endpoints.Mood, map[string]int{"value": value})
	if err != nil {
		return nil, err
	}

	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(resp.body, &body)

	if resp.ok() {
		msg := body.Message
		if msg == "" {
			msg = MsgMoodSaved
		}
		c.logger.Info("mood saved", zap.Int("value", value))
		return &MoodResult{Saved: true, Message: msg}, nil
	}

	c.logger.Warn("mood save rejected", zap.Int("status", resp.status))
	msg := body.Message
	if msg == "" {
		msg = MsgMoodFailed
	}
	return &MoodResult{Message: msg}, nil
}
