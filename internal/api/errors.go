package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Messages shown to the user for transport failures.
const (
	MsgSaveFailed      = "Failed to save assessment. Try again later."
	MsgCatalogFailed   = "Could not load assessment questions. Please check your connection."
	MsgChatFailed      = "Sorry, something went wrong. Try again later."
	MsgChatNetwork     = "Network error. Please check your connection and try again."
	MsgMoodMissing     = "Please select a mood first."
	MsgMoodSaved       = "Mood saved."
	MsgMoodFailed      = "Failed to save mood."
	MsgMoodNetwork     = "Network error while saving mood."
	MsgAppointmentSent = "Appointment requested. A provider will contact you shortly."
	MsgAssessmentSaved = "Assessment saved."
)

// ErrRateLimited matches an *Error with status 429.
var ErrRateLimited = errors.New("rate limited")

// Error is a non-2xx response.
type Error struct {
	Op     string
	Status int
	Body   string
}

func newError(op string, resp response) *Error {
	return &Error{Op: op, Status: resp.status, Body: strings.TrimSpace(string(resp.body))}
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.Status, truncate(e.Body, 200))
}

// Is lets errors.Is(err, ErrRateLimited) match 429 responses.
func (e *Error) Is(target error) bool {
	return target == ErrRateLimited && e.Status == http.StatusTooManyRequests
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
