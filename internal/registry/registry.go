// Package registry stores the named model references offered for classification.
//
// Entries are heterogeneous: older entries are bare model names, newer ones carry
// a structured Record. Callers normalize both shapes.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is the structured form of a registry entry. Every field is optional.
type Record struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name,omitempty"`
	HuggingfaceURL string `json:"huggingfaceUrl,omitempty"`
	UploadedBy     string `json:"uploadedBy,omitempty"`
	UploadedAt     string `json:"uploadedAt,omitempty"`
}

// Entry is one registry item addressed by Name. Record is nil for bare-name entries.
type Entry struct {
	Name   string
	Record *Record
}

// Registry lists, adds and removes named model references.
type Registry interface {
	List(ctx context.Context) ([]Entry, error)
	// Add stores the entry unless the name exists and reports whether it was stored.
	Add(ctx context.Context, name string, rec *Record) (bool, error)
	// Remove deletes the entry and reports whether it existed.
	Remove(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Seed adds bare-name entries for names that are not registered yet.
func Seed(ctx context.Context, reg Registry, names []string) (int, error) {
	added := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ok, err := reg.Add(ctx, name, nil)
		if err != nil {
			return added, fmt.Errorf("seed model %s: %w", name, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func encode(rec *Record) ([]byte, error) {
	if rec == nil {
		return []byte{}, nil
	}
	return json.Marshal(rec)
}

func decode(name, raw string) Entry {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{Name: name}
	}
	var rec Record
	if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
		return Entry{Name: name}
	}
	return Entry{Name: name, Record: &rec}
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}
