// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package debounce coalesces bursts of events.
//
// Debouncer and Keyed run only the latest submitted function once a burst has
// settled. Window answers "was this exact event already seen recently" and is
// used to drop duplicate deliveries of the same update.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently submitted function once per delay period.
type Debouncer struct {
	delay time.Duration

	// mu guards stopped and the close of submissions, so a submission can
	// never be sent on a closed channel.
	mu          sync.RWMutex
	stopped     bool
	submissions chan func()
	done        chan struct{}

	pending sync.Mutex
	timer   <-chan time.Time
	latest  func()
}

// New creates a Debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	d := &Debouncer{
		delay:       delay,
		submissions: make(chan func(), 64),
		done:        make(chan struct{}),
	}

	go d.run()

	return d
}

func (d *Debouncer) run() {
	defer close(d.done)

	for {
		d.pending.Lock()
		timer := d.timer
		d.pending.Unlock()

		select {
		case <-timer:
			d.fire()
		case fn, ok := <-d.submissions:
			if !ok {
				// flush whatever is pending before exiting
				d.fire()
				return
			}
			d.pending.Lock()
			d.latest = fn
			if d.timer == nil {
				d.timer = time.After(d.delay)
			}
			d.pending.Unlock()
		}
	}
}

func (d *Debouncer) fire() {
	d.pending.Lock()
	d.timer = nil
	fn := d.latest
	d.latest = nil
	d.pending.Unlock()

	if fn != nil {
		fn()
	}
}

// Do schedules fn. Within one delay period only the last fn runs. After Stop,
// fn runs synchronously.
func (d *Debouncer) Do(fn func()) {
	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		fn()
		return
	}

	select {
	case d.submissions <- fn:
	default:
		// buffer full: drop, a newer submission is already pending
	}
	d.mu.RUnlock()
}

// Queued reports whether a run is pending.
func (d *Debouncer) Queued() bool {
	d.pending.Lock()
	defer d.pending.Unlock()
	return d.timer != nil
}

// Stop flushes the pending function and shuts the goroutine down. It is safe
// to call concurrently with Do and more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.stopped = true
	close(d.submissions)
	d.mu.Unlock()

	<-d.done
}
