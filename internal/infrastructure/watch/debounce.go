// Package watch reports changes to ticket records on disk.
package watch

import (
	"sync"
	"time"
)

// Batcher collects keyed values and flushes them together once the window
// passes with no new values. A later value for a key replaces the earlier one.
type Batcher[T any] struct {
	window  time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]T
	flush   func(map[string]T)
}

// NewBatcher creates a batcher with the given quiet window.
func NewBatcher[T any](window time.Duration, flush func(map[string]T)) *Batcher[T] {
	return &Batcher[T]{
		window:  window,
		pending: make(map[string]T),
		flush:   flush,
	}
}

// Add records a value and restarts the window.
func (b *Batcher[T]) Add(key string, value T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[key] = value
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.fire)
}

func (b *Batcher[T]) fire() {
	b.mu.Lock()
	batch := b.pending
	b.pending = make(map[string]T)
	b.mu.Unlock()

	if len(batch) > 0 && b.flush != nil {
		b.flush(batch)
	}
}

// Stop cancels any pending flush and drops collected values.
func (b *Batcher[T]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.pending = make(map[string]T)
}
