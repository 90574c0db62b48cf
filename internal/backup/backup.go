// Package backup moves every collection in and out of a single JSON file.
// Each key is a collection name and each value is that collection's raw JSON
// text as a string, or null when the collection is unset.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"park-ops/internal/store"
)

var ErrInvalidBackup = errors.New("backup: invalid backup file")

// File is the decoded form of a backup.
type File map[string]*string

// Export reads every collection.
func Export(ctx context.Context, s store.SnapshotStore) (File, error) {
	out := make(File, len(store.Paths))
	for _, path := range store.Paths {
		raw, err := s.Get(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", path, err)
		}
		if store.IsUnset(raw) {
			out[path] = nil
			continue
		}
		text := string(raw)
		out[path] = &text
	}
	return out, nil
}

// Marshal renders f as indented JSON.
func Marshal(f File) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Parse checks a backup completely before anything is applied: the document
// must be a JSON object, every key a known collection and every non-null
// value a string holding valid JSON.
func Parse(data []byte) (File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidBackup)
	}

	var unknown []string
	for key, value := range f {
		if !store.KnownPath(key) {
			unknown = append(unknown, key)
			continue
		}
		if value != nil && !json.Valid([]byte(*value)) {
			return nil, fmt.Errorf("%w: %s does not hold valid JSON", ErrInvalidBackup, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown collections %v", ErrInvalidBackup, unknown)
	}
	return f, nil
}

// Import validates data and then writes each key verbatim. Collections absent
// from the file are left alone; null values unset the collection. It returns
// the collections written, in order.
func Import(ctx context.Context, s store.SnapshotStore, data []byte) ([]string, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, path := range store.Paths {
		value, ok := f[path]
		if !ok {
			continue
		}
		var raw json.RawMessage
		if value != nil {
			raw = json.RawMessage(*value)
		}
		if err := s.Set(ctx, path, raw); err != nil {
			return applied, fmt.Errorf("import %s: %w", path, err)
		}
		applied = append(applied, path)
	}
	return applied, nil
}
