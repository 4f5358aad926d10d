// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package debounce

import (
	"sync"
	"time"
)

// Keyed holds one Debouncer per key, created on first use.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	delay time.Duration
	items map[K]*Debouncer
}

func NewKeyed[K comparable](delay time.Duration) *Keyed[K] {
	return &Keyed[K]{delay: delay, items: make(map[K]*Debouncer)}
}

// Do schedules fn on the debouncer for key.
func (k *Keyed[K]) Do(key K, fn func()) {
	k.mu.Lock()
	d, ok := k.items[key]
	if !ok {
		d = New(k.delay)
		k.items[key] = d
	}
	k.mu.Unlock()

	d.Do(fn)
}

// Flush runs the pending function for key, if any, and releases its debouncer.
func (k *Keyed[K]) Flush(key K) {
	k.mu.Lock()
	d, ok := k.items[key]
	delete(k.items, key)
	k.mu.Unlock()

	if ok {
		d.Stop()
	}
}

// Len returns the number of live debouncers.
func (k *Keyed[K]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.items)
}

// Stop flushes and releases every debouncer.
func (k *Keyed[K]) Stop() {
	k.mu.Lock()
	items := k.items
	k.items = make(map[K]*Debouncer)
	k.mu.Unlock()

	for _, d := range items {
		d.Stop()
	}
}
