package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mindful/internal/assessment"
)

// Loader fetches the catalog once and serves it from memory afterwards.
// Concurrent first loads share one fetch.
type Loader struct {
	src     Source
	aliases map[string]string
	logger  *zap.Logger
	group   singleflight.Group

	mu     sync.RWMutex
	cached Catalog
	// Entries dropped from cached, by key.
	broken map[string]error
}

// NewLoader creates a loader over src. Alias keys are matched case-insensitively.
func NewLoader(src Source, aliases map[string]string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := make(map[string]string, len(aliases))
	for k, v := range aliases {
		normalized[strings.ToLower(k)] = v
	}
	return &Loader{src: src, aliases: normalized, logger: logger}
}

// Get returns the cached catalog, loading it on first use.
func (l *Loader) Get(ctx context.Context) (Catalog, error) {
	if cat := l.Cached(); cat != nil {
		return cat, nil
	}

	v, err, shared := l.group.Do("catalog", func() (any, error) {
		if cat := l.Cached(); cat != nil {
			return cat, nil
		}
		cat, err := l.accept(l.src.Load(ctx))
		if err != nil {
			return nil, err
		}
		l.logger.Info("catalog loaded", zap.String("source", l.src.Name()), zap.Int("assessments", len(cat)))
		return cat, nil
	})
	if err != nil {
		l.logger.Warn("catalog load failed", zap.String("source", l.src.Name()), zap.Error(err))
		return nil, err
	}
	if shared {
		l.logger.Debug("catalog load shared")
	}
	return v.(Catalog), nil
}

// Cached returns the catalog in memory, or nil.
func (l *Loader) Cached() Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cached
}

// Set replaces the cached catalog and forgets dropped entries.
func (l *Loader) Set(cat Catalog) {
	l.store(cat, nil)
}

func (l *Loader) store(cat Catalog, broken map[string]error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = cat
	l.broken = broken
}

// accept caches the outcome of a source load. A catalog that lost some
// entries is still served; the dropped keys are remembered so Lookup can
// report them.
func (l *Loader) accept(cat Catalog, err error) (Catalog, error) {
	var entryErr *EntryError
	switch {
	case err == nil:
		l.store(cat, nil)
		return cat, nil
	case errors.As(err, &entryErr) && len(cat) > 0:
		for key, cause := range entryErr.Entries {
			l.logger.Warn("dropping invalid catalog entry", zap.String("type", key), zap.Error(cause))
		}
		l.store(cat, entryErr.Entries)
		return cat, nil
	default:
		return nil, err
	}
}

// brokenEntry returns why key was dropped, or nil.
func (l *Loader) brokenEntry(key string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.broken[key]
}

// Invalidate drops the cache so the next Get reloads.
func (l *Loader) Invalidate() {
	l.Set(nil)
}

// Resolve maps a user-facing name to a catalog key.
func (l *Loader) Resolve(name string) string {
	if key, ok := l.aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return key
	}
	return strings.TrimSpace(name)
}

// Lookup loads the catalog if needed and returns the assessment for name,
// which may be an alias. The resolved key is returned with it.
func (l *Loader) Lookup(ctx context.Context, name string) (*assessment.Assessment, string, error) {
	cat, err := l.Get(ctx)
	if err != nil {
		return nil, "", err
	}
	key := l.Resolve(name)
	if cause := l.brokenEntry(key); cause != nil {
		l.logger.Warn("assessment type is invalid", zap.String("requested", name), zap.String("key", key))
		return nil, key, &InvalidError{Type: key, Err: cause}
	}
	a, err := cat.Lookup(key)
	if err != nil {
		l.logger.Warn("assessment type not found", zap.String("requested", name), zap.String("key", key))
		return nil, key, err
	}
	return a, key, nil
}
