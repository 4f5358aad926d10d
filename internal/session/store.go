// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/rs/zerolog/log"
)

// Store holds open sessions keyed by owner id.
type Store interface {
	Get(owner int64) (BatchSession, bool)
	// Update edits the session for owner in place, atomically with respect to
	// expiry. exists is false when no session is open; fn then fills in a new
	// one and returns whether it should be stored. The return value is ignored
	// for an existing session.
	Update(owner int64, fn func(s *BatchSession, exists bool) bool)
	// Take removes and returns the open session.
	Take(owner int64) (BatchSession, bool)
	// Len is the number of open sessions.
	Len() int
}

type storeEntry struct {
	session BatchSession
	// removed is set once the entry is taken or expired. A removed entry is
	// never edited again, even if the cache still holds it.
	removed bool
}

// ExpireFunc is called when an open session is dropped for inactivity.
type ExpireFunc func(owner int64, s BatchSession)

// MemoryStore keeps sessions in process memory. With a positive idle TTL an
// untouched session is dropped after the TTL elapses.
type MemoryStore struct {
	mu       sync.Mutex
	cache    *ttlcache.Cache[int64, *storeEntry]
	ttl      time.Duration
	onExpire ExpireFunc
	owners   map[int64]struct{}
}

// NewMemoryStore creates a store. idleTTL <= 0 disables expiry.
func NewMemoryStore(idleTTL time.Duration, onExpire ExpireFunc) *MemoryStore {
	s := &MemoryStore{onExpire: onExpire, ttl: ttlcache.DefaultTTL, owners: make(map[int64]struct{})}

	opts := ttlcache.Options[int64, *storeEntry]{}.
		SetDeallocationFunc(func(owner int64, e *storeEntry, _ ttlcache.DeallocationReason) {
			s.expired(owner, e)
		})
	if idleTTL > 0 {
		opts = opts.SetDefaultTTL(idleTTL)
	} else {
		s.ttl = ttlcache.NoTTL
	}

	s.cache = ttlcache.New(opts)

	return s
}

func (s *MemoryStore) expired(owner int64, e *storeEntry) {
	s.mu.Lock()
	removed := e.removed
	e.removed = true
	if !removed {
		delete(s.owners, owner)
	}
	s.mu.Unlock()

	if removed {
		return
	}

	log.Warn().
		Int64("owner", owner).
		Int("files", len(e.session.Files)).
		Time("updated", e.session.UpdatedAt).
		Msg("session: dropping idle sequence")

	if s.onExpire != nil {
		s.onExpire(owner, e.session)
	}
}

func (s *MemoryStore) Get(owner int64) (BatchSession, bool) {
	e, ok := s.cache.Get(owner)
	if !ok {
		return BatchSession{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.removed {
		return BatchSession{}, false
	}
	return e.session.clone(), true
}

// Update looks the entry up first, which also restarts its idle timer, then
// edits it under mu. An expiry that lands in between marks the entry removed
// and Update starts a fresh session instead of reviving the old one.
func (s *MemoryStore) Update(owner int64, fn func(bs *BatchSession, exists bool) bool) {
	e, ok := s.cache.Get(owner)

	s.mu.Lock()
	if ok && !e.removed {
		fn(&e.session, true)
		s.mu.Unlock()
		return
	}

	fresh := &storeEntry{}
	if !fn(&fresh.session, false) {
		s.mu.Unlock()
		return
	}
	s.owners[owner] = struct{}{}
	s.mu.Unlock()

	s.cache.Set(owner, fresh, s.ttl)
}

func (s *MemoryStore) Take(owner int64) (BatchSession, bool) {
	e, ok := s.cache.Get(owner)
	if !ok {
		return BatchSession{}, false
	}

	s.mu.Lock()
	if e.removed {
		s.mu.Unlock()
		return BatchSession{}, false
	}
	e.removed = true
	delete(s.owners, owner)
	bs := e.session.clone()
	s.mu.Unlock()

	// removed is already set, so the deallocation hook stays quiet
	s.cache.Delete(owner)

	return bs, true
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners)
}

// Close stops the expiry timer.
func (s *MemoryStore) Close() {
	s.cache.Close()
}
