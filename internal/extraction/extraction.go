// Package extraction pulls institution-like headings out of stored artifact
// text. It enriches what viewers display; verification decisions never
// consult it.
package extraction

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"unicode"

	"medichain/internal/artifact"
)

// Institution keywords a heading must contain to be considered one.
var institutionMarkers = []string{
	"hospital", "clinic", "medical", "health", "insurance", "laboratory", "institute",
}

// maxHeadings caps how many headings one artifact yields.
const maxHeadings = 32

// Extractor scans artifacts for institution headings.
type Extractor struct {
	store artifact.Store
}

func New(store artifact.Store) *Extractor {
	return &Extractor{store: store}
}

// Extract returns institution-like headings found in the artifact, in
// document order, deduplicated case-insensitively.
func (e *Extractor) Extract(ctx context.Context, hash string) ([]string, error) {
	data, err := e.store.Retrieve(ctx, hash)
	if err != nil {
		return nil, err
	}
	return Headings(data), nil
}

// Headings scans text for lines that look like institution headings: short,
// title-like lines mentioning a medical or insurance institution.
func Headings(data []byte) []string {
	var out []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() && len(out) < maxHeadings {
		line := strings.TrimSpace(scanner.Text())
		if !looksLikeHeading(line) {
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, line)
	}
	return out
}

func looksLikeHeading(line string) bool {
	if line == "" || len(line) > 80 {
		return false
	}
	// Headings read as titles, not sentences.
	if strings.HasSuffix(line, ".") {
		return false
	}
	first := []rune(line)[0]
	if !unicode.IsUpper(first) && !unicode.IsDigit(first) {
		return false
	}
	lower := strings.ToLower(line)
	for _, marker := range institutionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
