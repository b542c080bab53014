package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindful/internal/api"
)

// Fetcher lists the messages of a chat.
type Fetcher interface {
	ChatMessages(ctx context.Context, chatID string) ([]api.Message, error)
}

// Result is one poll outcome.
type Result struct {
	Messages    []api.Message
	Err         error
	RateLimited bool
}

// Poller fetches a chat's messages immediately and then on a fixed interval.
// After a rate-limited fetch the interval is reset to the rate-limit interval.
type Poller struct {
	fetch     Fetcher
	chatID    string
	interval  time.Duration
	rateLimit time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(fetch Fetcher, chatID string, interval, rateLimit time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetch:     fetch,
		chatID:    chatID,
		interval:  interval,
		rateLimit: rateLimit,
		logger:    logger.With(zap.String("chat_id", chatID)),
	}
}

// Start begins polling and returns the result channel, which is closed when
// the run ends. A running poll is stopped first, so at most one runs.
func (p *Poller) Start(ctx context.Context) <-chan Result {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Result, 1)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, out, done)
	return out
}

// Stop ends the current run and waits for it to exit. Safe to call when stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a run is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context, out chan<- Result, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug("chat polling started", zap.Duration("interval", p.interval))
	for {
		res := p.poll(ctx)
		if ctx.Err() != nil {
			return
		}
		if res.RateLimited {
			p.logger.Info("chat polling rate limited", zap.Duration("interval", p.rateLimit))
			ticker.Reset(p.rateLimit)
		}

		select {
		case out <- res:
		case <-ctx.Done():
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			p.logger.Debug("chat polling stopped")
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) Result {
	msgs, err := p.fetch.ChatMessages(ctx, p.chatID)
	if err != nil {
		if errors.Is(err, api.ErrRateLimited) {
			return Result{Err: err, RateLimited: true}
		}
		if ctx.Err() == nil {
			p.logger.Warn("chat poll failed", zap.Error(err))
		}
		return Result{Err: err}
	}
	return Result{Messages: msgs}
}
