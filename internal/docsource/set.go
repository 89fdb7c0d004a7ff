package docsource

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// DocumentSet maps document identifiers (URLs or file paths) to their full
// extracted plain text. It is the grounding input for the extraction
// pipeline.
type DocumentSet map[string]string

// Loader assembles document sets from mixed URL and file sources
type Loader struct {
	fetcher *Fetcher
}

// NewLoader creates a loader using the given fetcher for URL sources
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load reads every source into a document set. URLs are fetched, everything
// else is treated as a local file path. The first failure aborts: an
// extraction grounded on a partial document set would silently pass claims
// from the missing documents.
func (l *Loader) Load(ctx context.Context, sources []string) (DocumentSet, error) {
	set := make(DocumentSet, len(sources))
	for _, source := range sources {
		text, err := l.loadOne(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", source, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("load %s: document is empty", source)
		}
		set[source] = text
	}
	return set, nil
}

func (l *Loader) loadOne(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if l.fetcher == nil {
			return "", fmt.Errorf("no fetcher configured for URL sources")
		}
		return l.fetcher.Fetch(ctx, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", err
	}
	return HTMLToText(string(data)), nil
}

// IDs returns the document identifiers in sorted order
func (s DocumentSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CombinedExcerpt concatenates documents into one prompt-sized excerpt,
// labeled by id, truncated to maxChars.
func (s DocumentSet) CombinedExcerpt(maxChars int) string {
	var b strings.Builder
	for _, id := range s.IDs() {
		b.WriteString("=== Document: " + id + " ===\n")
		b.WriteString(s[id])
		b.WriteString("\n\n")
	}
	text := b.String()
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
