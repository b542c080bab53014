// Package catalog loads the assessment catalog: a map from assessment-type
// key to assessment definition, read from the backend or a local file.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mindful/internal/assessment"
)

// Catalog maps assessment-type keys to their definitions.
type Catalog map[string]*assessment.Assessment

// Keys returns the assessment-type keys in sorted order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the assessment for key.
func (c Catalog) Lookup(key string) (*assessment.Assessment, error) {
	a, ok := c[key]
	if !ok || a == nil {
		return nil, &NotFoundError{Type: key, Available: c.Keys()}
	}
	return a, nil
}

// NotFoundError reports an assessment type missing from the catalog.
type NotFoundError struct {
	Type      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("assessment type %q not found in catalog", e.Type)
}

// InvalidError reports an assessment type whose catalog entry is malformed.
// Other types in the same catalog are unaffected.
type InvalidError struct {
	Type string
	Err  error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("catalog entry %q is invalid: %v", e.Type, e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// EntryError lists the entries Decode dropped. It is returned together with
// the valid part of the catalog.
type EntryError struct {
	Entries map[string]error
}

func (e *EntryError) Error() string {
	keys := make([]string, 0, len(e.Entries))
	for k := range e.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%q: %v", k, e.Entries[k])
	}
	return "invalid catalog entries: " + strings.Join(parts, "; ")
}

// Decode parses a catalog document. JSON is decoded directly; anything else
// is read as YAML with the same field names. Each assessment is decoded and
// validated on its own: bad entries are left out and reported in an
// *EntryError next to the remaining catalog. A catalog with no valid entry
// returns nil.
func Decode(data []byte) (Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	if trimmed[0] != '{' {
		var doc map[string]any
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert catalog yaml: %w", err)
		}
		trimmed = converted
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	cat := make(Catalog, len(raw))
	bad := make(map[string]error)
	for key, entry := range raw {
		var a assessment.Assessment
		if err := json.Unmarshal(entry, &a); err != nil {
			bad[key] = err
			continue
		}
		if err := a.Validate(); err != nil {
			bad[key] = err
			continue
		}
		cat[key] = &a
	}

	switch {
	case len(bad) == 0:
		return cat, nil
	case len(cat) == 0:
		return nil, &EntryError{Entries: bad}
	default:
		return cat, &EntryError{Entries: bad}
	}
}
