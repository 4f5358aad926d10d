// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package debounce

import (
	"sync"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
)

// Window remembers keys for a fixed interval. It is an idempotency window,
// not a lock: the first Seen call for a key wins and repeats inside the
// interval are reported as duplicates.
type Window[K comparable] struct {
	mu       sync.Mutex
	interval time.Duration
	seen     *ttlcache.Cache[K, time.Time]
	now      func() time.Time
}

// NewWindow creates a window. An interval <= 0 disables duplicate detection.
func NewWindow[K comparable](interval time.Duration) *Window[K] {
	ttl := interval
	if ttl <= 0 {
		ttl = time.Second
	}
	return &Window[K]{
		interval: interval,
		// entries outlive the interval a little; Seen compares timestamps itself
		seen: ttlcache.New(ttlcache.Options[K, time.Time]{}.SetDefaultTTL(2 * ttl)),
		now:  time.Now,
	}
}

// Seen records key and reports whether it was already recorded within the
// interval.
func (w *Window[K]) Seen(key K) bool {
	if w.interval <= 0 {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if at, ok := w.seen.Get(key); ok && now.Sub(at) < w.interval {
		return true
	}

	w.seen.Set(key, now, ttlcache.DefaultTTL)
	return false
}

// Forget drops key so the next Seen call for it is accepted.
func (w *Window[K]) Forget(key K) {
	w.seen.Delete(key)
}

func (w *Window[K]) Close() {
	w.seen.Close()
}
