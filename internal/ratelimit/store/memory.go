// Package store tracks request counts per key over a sliding window.
package store

import (
	"context"
	"sync"
	"time"

	"medichain/internal/ratelimit/models"
)

// InMemory is a sliding-window counter store. A sliding window avoids the
// burst-at-boundary problem of fixed windows.
type InMemory struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	timestamps []time.Time
	span       time.Duration
}

func NewInMemory() *InMemory {
	return &InMemory{windows: make(map[string]*window)}
}

// Allow records an attempt under key and reports whether it fits within
// limit attempts per span.
func (s *InMemory) Allow(ctx context.Context, key string, limit int, span time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w := s.windows[key]
	if w == nil || w.span != span {
		w = &window{span: span}
		s.windows[key] = w
	}
	w.prune(now)

	if len(w.timestamps) >= limit {
		return &models.Result{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   w.timestamps[0].Add(span),
		}, nil
	}

	w.timestamps = append(w.timestamps, now)
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(span),
	}, nil
}

// Reset clears the counter for a key.
func (s *InMemory) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept
}
