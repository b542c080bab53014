package catalog

import (
	"context"
	"fmt"
	"os"
)

// Source produces a fresh catalog on every Load.
type Source interface {
	Load(ctx context.Context) (Catalog, error)
	Name() string
}

// Fetcher returns the raw catalog document from the backend.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]byte, error)
}

// HTTPSource loads the catalog the backend serves.
type HTTPSource struct {
	Fetcher Fetcher
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Load(ctx context.Context) (Catalog, error) {
	data, err := s.Fetcher.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	return Decode(data)
}

// FileSource loads a local JSON or YAML catalog.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Load(ctx context.Context) (Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Decode(data)
}
