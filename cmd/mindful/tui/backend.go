package tui

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mindful/internal/api"
	"mindful/internal/assessment"
	"mindful/internal/catalog"
	"mindful/internal/config"
	"mindful/internal/logging"
)

// Backend is everything the interface needs from the portal. Calls block and
// are run inside tea.Cmds.
type Backend interface {
	LoadCatalog(ctx context.Context) (catalog.Catalog, error)
	ReloadCatalog(ctx context.Context) (catalog.Catalog, error)
	Lookup(ctx context.Context, name string) (*assessment.Assessment, string, error)

	Submit(ctx context.Context, a *assessment.Assessment, store *assessment.Store) (*api.SaveResult, error)
	CancelSubmission()

	SendChat(ctx context.Context, text string) (*api.ChatReply, error)
	BookAppointment(ctx context.Context, userMessage string) (*api.BookingResult, error)
	ChatMessages(ctx context.Context, chatID string) ([]api.Message, error)

	SaveMood(ctx context.Context, value int) (*api.MoodResult, error)
	DiscoverCSRF(ctx context.Context) error
}

// Services is the Backend backed by the HTTP client and the catalog loader.
type Services struct {
	Client    *api.Client
	Loader    *catalog.Loader
	Submitter *api.Submitter

	csrfPage string
	source   catalog.Source
	watcher  *catalog.Watcher
	logger   *zap.Logger
}

// NewServices wires the client, catalog source and submitter from cfg.
// A configured catalog file replaces the server catalog.
func NewServices(cfg *config.Config, logs *logging.Loggers) (*Services, error) {
	client, err := api.NewClient(cfg, logs.Get(config.CategoryAPI))
	if err != nil {
		return nil, err
	}

	var src catalog.Source = &catalog.HTTPSource{Fetcher: client}
	if cfg.Assessment.CatalogFile != "" {
		src = &catalog.FileSource{Path: cfg.Assessment.CatalogFile}
	}

	return &Services{
		Client:    client,
		Loader:    catalog.NewLoader(src, cfg.Assessment.Aliases, logs.Get(config.CategoryCatalog)),
		Submitter: api.NewSubmitter(client, logs.Get(config.CategoryFlow)),
		csrfPage:  cfg.Server.CSRFPage,
		source:    src,
		logger:    logs.Get(config.CategoryBoot),
	}, nil
}

// WatchCatalog reloads a local catalog file on change. It is a no-op for the
// server catalog. onReload may be nil.
func (s *Services) WatchCatalog(ctx context.Context, onReload func(catalog.Catalog, error)) error {
	fs, ok := s.source.(*catalog.FileSource)
	if !ok {
		return nil
	}
	w, err := catalog.NewWatcher(fs, s.Loader, s.logger)
	if err != nil {
		return err
	}
	w.OnReload = onReload
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	s.watcher = w
	return nil
}

// Close stops the catalog watcher, if any.
func (s *Services) Close() {
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
}

func (s *Services) LoadCatalog(ctx context.Context) (catalog.Catalog, error) {
	return s.Loader.Get(ctx)
}

func (s *Services) ReloadCatalog(ctx context.Context) (catalog.Catalog, error) {
	s.Loader.Invalidate()
	return s.Loader.Get(ctx)
}

func (s *Services) Lookup(ctx context.Context, name string) (*assessment.Assessment, string, error) {
	return s.Loader.Lookup(ctx, name)
}

func (s *Services) Submit(ctx context.Context, a *assessment.Assessment, store *assessment.Store) (*api.SaveResult, error) {
	return s.Submitter.Submit(ctx, a, store)
}

func (s *Services) CancelSubmission() {
	s.Submitter.Reset()
}

func (s *Services) SendChat(ctx context.Context, text string) (*api.ChatReply, error) {
	return s.Client.SendChat(ctx, text)
}

func (s *Services) BookAppointment(ctx context.Context, userMessage string) (*api.BookingResult, error) {
	return s.Client.BookAppointment(ctx, userMessage)
}

func (s *Services) ChatMessages(ctx context.Context, chatID string) ([]api.Message, error) {
	return s.Client.ChatMessages(ctx, chatID)
}

func (s *Services) SaveMood(ctx context.Context, value int) (*api.MoodResult, error) {
	return s.Client.SaveMood(ctx, value)
}

// DiscoverCSRF fetches the csrf token unless one is configured.
func (s *Services) DiscoverCSRF(ctx context.Context) error {
	if s.csrfPage == "" {
		return nil
	}
	if _, err := s.Client.DiscoverCSRF(ctx, s.csrfPage); err != nil {
		return fmt.Errorf("failed to discover csrf token: %w", err)
	}
	return nil
}
