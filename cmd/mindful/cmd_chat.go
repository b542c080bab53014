package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindful/internal/api"
	"mindful/internal/chat"
	"mindful/internal/config"
)

var chatBook bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the assistant",
	Long: `Sends a message to the assistant and prints the reply.

Without a message, reads one message per line from stdin. When chat.id is
configured, new messages from the care team are printed as they arrive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		svc, err := newServices(ctx)
		if err != nil {
			return err
		}
		s := &chatSession{
			client:     svc.Client,
			out:        cmd.OutOrStdout(),
			transcript: chat.NewTranscript(""),
			book:       chatBook,
		}
		if len(args) > 0 {
			return s.send(ctx, strings.Join(args, " "))
		}

		if cfg.Chat.ID != "" {
			poller := chat.NewPoller(svc.Client, cfg.Chat.ID, cfg.GetPollInterval(),
				cfg.GetRateLimitInterval(), logs.Get(config.CategoryChat))
			results := poller.Start(ctx)
			defer poller.Stop()
			go s.follow(results)
		}
		return s.repl(ctx, cmd.InOrStdin())
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatBook, "book", false, "Request an appointment when the assistant recommends one")
}

type chatClient interface {
	SendChat(ctx context.Context, text string) (*api.ChatReply, error)
	BookAppointment(ctx context.Context, userMessage string) (*api.BookingResult, error)
}

// chatSession prints one conversation. The poller goroutine and the input
// loop share out, so writes go through mu.
type chatSession struct {
	client     chatClient
	book       bool
	mu         sync.Mutex
	out        io.Writer
	transcript *chat.Transcript
}

func (s *chatSession) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *chatSession) repl(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := s.send(ctx, text); err != nil {
			s.printf("%s\n", api.MsgChatNetwork)
		}
	}
	return scanner.Err()
}

// send posts text and prints the reply with any recommended action.
func (s *chatSession) send(ctx context.Context, text string) error {
	s.mu.Lock()
	s.transcript.Append(chat.SpeakerUser, text)
	s.mu.Unlock()

	reply, err := s.client.SendChat(ctx, text)
	if err != nil {
		logger.Warn("chat send failed", zap.Error(err))
		return fmt.Errorf("%s: %w", api.MsgChatNetwork, err)
	}
	if !reply.OK {
		s.printf("%s\n", api.MsgChatFailed)
		return nil
	}

	s.mu.Lock()
	s.transcript.Append(chat.SpeakerAssistant, reply.Reply)
	s.mu.Unlock()
	s.printf("%s: %s\n", chat.SpeakerAssistant, chat.TextContent(reply.Reply))

	action := reply.RecommendedAction
	if banner := action.Banner(); banner != "" {
		s.printf("! %s\n", banner)
	}
	if action.Bookable() {
		if !s.book {
			s.printf("  Run with --book to request an appointment.\n")
			return nil
		}
		result, err := s.client.BookAppointment(ctx, text)
		if err != nil {
			logger.Warn("appointment request failed", zap.Error(err))
			s.printf("Could not request an appointment. Try again later.\n")
			return nil
		}
		msg := result.Message
		if msg == "" {
			msg = api.MsgAppointmentSent
		}
		s.printf("%s\n", msg)
	}
	return nil
}

// follow prints messages from other participants until results closes.
func (s *chatSession) follow(results <-chan chat.Result) {
	for res := range results {
		if res.Err != nil {
			continue
		}
		s.mu.Lock()
		added := s.transcript.Merge(res.Messages)
		for _, e := range added {
			fmt.Fprintf(s.out, "%s: %s\n", e.User, chat.TextContent(e.Text))
		}
		s.mu.Unlock()
	}
}
