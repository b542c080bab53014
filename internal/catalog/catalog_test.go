package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mindful/internal/assessment"
)

const catalogJSON = `{
  "GAD-7": {
    "title": "GAD-7 Anxiety Assessment",
    "questions": [
      {"text": "Feeling nervous", "type": "scale", "options": ["Not at all", "Several days", "More than half the days", "Nearly every day"]},
      {"text": "Cannot stop worrying", "type": "scale", "options": ["Not at all", "Several days", "More than half the days", "Nearly every day"]}
    ],
    "contextual_questions": [
      {"id": 1, "text": "What triggers it?", "type": "multiple-choice", "options": ["Work", "Family"]},
      {"id": "notes", "text": "Anything else?", "type": "open-ended"}
    ]
  },
  "PHQ-9": {
    "title": "PHQ-9 Depression Assessment",
    "questions": [
      {"text": "Little interest", "type": "scale", "options": ["Not at all", "Several days"]}
    ]
  }
}`

const catalogYAML = `
PSS-4:
  title: Perceived Stress Scale
  questions:
    - text: Felt unable to control things
      type: scale
      options: [Never, Sometimes, Often]
  contextual_questions:
    - id: sleep
      text: How is your sleep?
      type: open-ended
`

func TestDecode_JSON(t *testing.T) {
	cat, err := Decode([]byte(catalogJSON))
	require.NoError(t, err)
	assert.Equal(t, []string{"GAD-7", "PHQ-9"}, cat.Keys())

	gad := cat["GAD-7"]
	assert.Len(t, gad.Questions, 2)
	assert.True(t, gad.HasContextual())
	assert.Equal(t, "1", gad.ContextualQuestions[0].ID)
	assert.Equal(t, assessment.KindMultipleChoice, gad.ContextualQuestions[0].Kind)
	assert.False(t, cat["PHQ-9"].HasContextual())
}

func TestDecode_YAML(t *testing.T) {
	cat, err := Decode([]byte(catalogYAML))
	require.NoError(t, err)
	pss, err := cat.Lookup("PSS-4")
	require.NoError(t, err)
	assert.Equal(t, "Perceived Stress Scale", pss.Title)
	assert.Equal(t, []string{"Never", "Sometimes", "Often"}, pss.Questions[0].Options)
	assert.Equal(t, assessment.KindOpenEnded, pss.ContextualQuestions[0].Kind)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "  "},
		{"bad json", `{"GAD-7": `},
		{"unknown type", `{"X": {"title": "X", "questions": [{"text": "q", "type": "slider"}]}}`},
		{"invalid assessment", `{"X": {"title": "X", "questions": []}}`},
		{"bad yaml", "X: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

const partlyBrokenJSON = `{
  "GAD-7": {
    "title": "GAD-7 Anxiety Assessment",
    "questions": [
      {"text": "Feeling nervous", "type": "scale", "options": ["Not at all", "Several days"]}
    ]
  },
  "PHQ-9": {
    "title": "PHQ-9 Depression Assessment",
    "questions": [
      {"text": "Little interest", "type": "multiple-choice", "options": ["Work", "Home"]}
    ]
  },
  "PSS-4": {
    "title": "Perceived Stress Scale",
    "questions": [{"text": "Felt upset", "type": "slider"}]
  }
}`

func TestDecode_DropsInvalidEntries(t *testing.T) {
	cat, err := Decode([]byte(partlyBrokenJSON))

	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, []string{"GAD-7"}, cat.Keys())
	assert.Len(t, entryErr.Entries, 2)
	assert.ErrorContains(t, entryErr.Entries["PHQ-9"], "needs an id")
	assert.Contains(t, entryErr.Entries, "PSS-4")
	assert.Contains(t, err.Error(), `"PHQ-9"`)
}

func TestLoader_InvalidEntryFailsOnlyItsType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(partlyBrokenJSON), 0644))
	l := NewLoader(&FileSource{Path: path}, map[string]string{"depression": "PHQ-9"}, nil)

	cat, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"GAD-7"}, cat.Keys())

	a, key, err := l.Lookup(context.Background(), "GAD-7")
	require.NoError(t, err)
	assert.Equal(t, "GAD-7", key)
	assert.Equal(t, "GAD-7 Anxiety Assessment", a.Title)

	_, key, err = l.Lookup(context.Background(), "depression")
	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "PHQ-9", key)
	assert.Equal(t, "PHQ-9", invalid.Type)

	// A clean reload forgets the dropped entries.
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0644))
	l.Invalidate()
	_, _, err = l.Lookup(context.Background(), "depression")
	assert.NoError(t, err)
}

func TestCatalog_LookupNotFound(t *testing.T) {
	cat, err := Decode([]byte(catalogJSON))
	require.NoError(t, err)

	_, err = cat.Lookup("PSS-10")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "PSS-10", nf.Type)
	assert.Equal(t, []string{"GAD-7", "PHQ-9"}, nf.Available)
}

// =============================================================================
// SOURCES
// =============================================================================

type fakeFetcher struct {
	data []byte
	err  error
}

func (f fakeFetcher) FetchCatalog(ctx context.Context) ([]byte, error) { return f.data, f.err }

func TestHTTPSource(t *testing.T) {
	src := &HTTPSource{Fetcher: fakeFetcher{data: []byte(catalogJSON)}}
	cat, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat, 2)

	boom := errors.New("connection refused")
	_, err = (&HTTPSource{Fetcher: fakeFetcher{err: boom}}).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0644))

	cat, err := (&FileSource{Path: path}).Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cat, "PSS-4")

	_, err = (&FileSource{Path: filepath.Join(dir, "missing.json")}).Load(context.Background())
	assert.ErrorContains(t, err, "failed to read catalog")
}

// =============================================================================
// LOADER
// =============================================================================

// countingSource blocks every Load until release is closed.
type countingSource struct {
	loads   atomic.Int32
	release chan struct{}
	err     error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load(ctx context.Context) (Catalog, error) {
	s.loads.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return Decode([]byte(catalogJSON))
}

func TestLoader_ConcurrentFirstLoadsShareOneFetch(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	l := NewLoader(src, nil, nil)

	var wg sync.WaitGroup
	results := make([]Catalog, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cat, err := l.Get(context.Background())
			assert.NoError(t, err)
			results[i] = cat
		}(i)
	}
	// Give the goroutines a chance to pile up behind the first load.
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.loads.Load())
	for _, cat := range results {
		assert.Len(t, cat, 2)
	}

	_, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.loads.Load(), "cached catalog must not be refetched")
}

func TestLoader_FailureIsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("offline")}
	l := NewLoader(src, nil, nil)

	_, err := l.Get(context.Background())
	require.Error(t, err)
	assert.Nil(t, l.Cached())

	src.err = nil
	cat, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat, 2)
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestLoader_InvalidateReloads(t *testing.T) {
	src := &countingSource{}
	l := NewLoader(src, nil, nil)
	_, err := l.Get(context.Background())
	require.NoError(t, err)

	l.Invalidate()
	_, err = l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestLoader_LookupResolvesAliases(t *testing.T) {
	l := NewLoader(&countingSource{}, map[string]string{"Anxiety": "GAD-7", "depression": "PHQ-9"}, nil)

	tests := []struct {
		name    string
		wantKey string
	}{
		{"anxiety", "GAD-7"},
		{"ANXIETY", "GAD-7"},
		{"depression", "PHQ-9"},
		{"GAD-7", "GAD-7"},
	}
	for _, tt := range tests {
		a, key, err := l.Lookup(context.Background(), tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.wantKey, key)
		assert.NotNil(t, a)
	}

	_, key, err := l.Lookup(context.Background(), "stress")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, "stress", key)
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0644))

	src := &FileSource{Path: path}
	l := NewLoader(src, nil, nil)
	_, err := l.Get(context.Background())
	require.NoError(t, err)

	w, err := NewWatcher(src, l, nil)
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	reloaded := make(chan error, 4)
	w.OnReload = func(_ Catalog, err error) { reloaded <- err }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Replace atomically so no reload sees a half-written file.
	tmp := filepath.Join(dir, "questions.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(catalogYAML), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}
	assert.Contains(t, l.Cached(), "PSS-4")

	w.Stop()
}

func TestWatcher_BadEditKeepsPreviousCatalog(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0644))

	src := &FileSource{Path: path}
	l := NewLoader(src, nil, nil)
	_, err := l.Get(context.Background())
	require.NoError(t, err)

	w, err := NewWatcher(src, l, nil)
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	reloaded := make(chan error, 4)
	w.OnReload = func(_ Catalog, err error) { reloaded <- err }
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`{"broken": `), 0644))

	select {
	case err := <-reloaded:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload attempt")
	}
	assert.Contains(t, l.Cached(), "GAD-7")
}
