package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Action is the follow-up the assistant recommends.
type Action string

const (
	ActionNone                 Action = "none"
	ActionRecommendAppointment Action = "recommend_appointment"
	ActionEmergencyHotline     Action = "emergency_hotline"
)

// Banner texts for recommended actions.
const (
	BannerAppointment = "It may help to speak to a clinician."
	BannerEmergency   = "If you are in immediate danger, please call your local emergency services now."
)

// Banner returns the banner for a, or "" when none applies.
func (a Action) Banner() string {
	switch a {
	case ActionRecommendAppointment:
		return BannerAppointment
	case ActionEmergencyHotline:
		return BannerEmergency
	default:
		return ""
	}
}

// Bookable reports whether the banner offers booking an appointment.
func (a Action) Bookable() bool { return a == ActionRecommendAppointment }

// ChatReply is the response to a chat message.
type ChatReply struct {
	OK                bool   `json:"ok"`
	Reply             string `json:"reply"`
	Severity          int    `json:"severity"`
	Reason            string `json:"reason"`
	RecommendedAction Action `json:"recommended_action"`
	Error             string `json:"error,omitempty"`
}

// SendChat posts a user message to the assistant. The backend answers with a
// JSON body on failure as well; a reply with OK false is returned without
// error. Only undecodable or unreachable responses are errors.
func (c *Client) SendChat(ctx context.Context, text string) (*ChatReply, error) {
	resp, err := c.postJSON(ctx, "chat", c.endpoints.Chat, map[string]string{"message": text})
	if err != nil {
		return nil, err
	}

	var reply ChatReply
	if err := json.Unmarshal(resp.body, &reply); err != nil {
		if !resp.ok() {
			return nil, newError("chat", resp)
		}
		return nil, fmt.Errorf("failed to decode chat reply: %w", err)
	}
	if !resp.ok() {
		reply.OK = false
	}
	if !reply.OK {
		c.logger.Warn("chat returned error", zap.Int("status", resp.status), zap.String("error", reply.Error))
	} else {
		c.logger.Debug("chat reply",
			zap.Int("severity", reply.Severity),
			zap.String("action", string(reply.RecommendedAction)))
	}
	return &reply, nil
}

// BookingResult is the response to an appointment request.
type BookingResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// BookAppointment asks for a clinician to follow up on userMessage.
func (c *Client) BookAppointment(ctx context.Context, userMessage string) (*BookingResult, error) {
	resp, err := c.postJSON(ctx, "book-appointment", c.endpoints.BookAppointment,
		map[string]string{"user_message": userMessage})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newError("book-appointment", resp)
	}

	var result BookingResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		result = BookingResult{OK: true}
	}
	c.logger.Info("appointment requested")
	return &result, nil
}

// Message is one entry of a chat transcript on the server.
type Message struct {
	ID   int    `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
}

// ChatMessages lists the messages of chat chatID. A 429 matches ErrRateLimited.
func (c *Client) ChatMessages(ctx context.Context, chatID string) ([]Message, error) {
	path := fmt.Sprintf(c.endpoints.ChatMessages, url.PathEscape(chatID))
	resp, err := c.get(ctx, "chat-messages", path)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newError("chat-messages", resp)
	}

	var msgs []Message
	if err := json.Unmarshal(resp.body, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode chat messages: %w", err)
	}
	return msgs, nil
}

// Ask sends a single prompt to the legacy ask endpoint and returns the answer.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt is empty")
	}
	resp, err := c.postJSON(ctx, "ask", c.endpoints.Ask, map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", newError("ask", resp)
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return "", fmt.Errorf("failed to decode ask response: %w", err)
	}
	return out.Response, nil
}
