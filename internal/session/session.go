// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package session tracks per-user sequences: files collected between an open
// and a close, later handed to the sorter.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/renamarr/internal/metadata"
)

var (
	ErrAlreadyActive   = errors.New("sequence already active")
	ErrNoActiveSession = errors.New("no active sequence")
	ErrEmptySequence   = errors.New("no files received in this sequence")
)

// BatchSession is one open sequence.
type BatchSession struct {
	OwnerID   int64
	Files     []metadata.FileRecord
	CreatedAt time.Time
	UpdatedAt time.Time
	// StatusMessages are bot replies to clean up once the sequence closes.
	StatusMessages []int
}

func (s BatchSession) clone() BatchSession {
	s.Files = slices.Clone(s.Files)
	s.StatusMessages = slices.Clone(s.StatusMessages)
	return s
}

// Drained is the outcome of closing a sequence.
type Drained struct {
	Files          []metadata.FileRecord
	StatusMessages []int
}

// Manager applies the open/append/close state machine on top of a Store.
// Operations for one owner are serialised.
type Manager struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Open starts a sequence. It returns ErrAlreadyActive, leaving the existing
// queue untouched, when one is already open.
func (m *Manager) Open(owner int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active bool
	m.store.Update(owner, func(s *BatchSession, exists bool) bool {
		if exists {
			active = true
			return false
		}
		now := m.now()
		*s = BatchSession{OwnerID: owner, CreatedAt: now, UpdatedAt: now}
		return true
	})
	if active {
		return ErrAlreadyActive
	}

	log.Debug().Int64("owner", owner).Msg("session: opened sequence")
	return nil
}

// Append queues f, opening a sequence first when none is active. It returns
// the queue length after the append and whether this call opened the sequence.
func (m *Manager) Append(owner int64, f metadata.FileRecord) (count int, opened bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.store.Update(owner, func(s *BatchSession, exists bool) bool {
		if !exists {
			*s = BatchSession{OwnerID: owner, CreatedAt: now}
			opened = true
		}
		s.Files = append(s.Files, f)
		s.UpdatedAt = now
		count = len(s.Files)
		return true
	})

	return count, opened
}

// TrackMessage remembers a status message id for cleanup at close. It is a
// no-op without an open sequence.
func (m *Manager) TrackMessage(owner int64, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.Update(owner, func(s *BatchSession, exists bool) bool {
		if !exists {
			return false
		}
		s.StatusMessages = append(s.StatusMessages, messageID)
		return true
	})
}

// Close ends the sequence and returns its files in arrival order. The session
// is removed in every case where one existed; ErrEmptySequence is returned
// together with the status messages when no file was queued.
func (m *Manager) Close(owner int64) (Drained, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.store.Take(owner)
	if !ok {
		return Drained{}, ErrNoActiveSession
	}

	d := Drained{Files: s.Files, StatusMessages: s.StatusMessages}
	if len(s.Files) == 0 {
		return d, ErrEmptySequence
	}

	log.Debug().Int64("owner", owner).Int("files", len(s.Files)).Msg("session: closed sequence")
	return d, nil
}

// Active reports whether owner has an open sequence.
func (m *Manager) Active(owner int64) bool {
	_, ok := m.store.Get(owner)
	return ok
}

// Len returns the number of queued files, 0 when no sequence is open.
func (m *Manager) Len(owner int64) int {
	s, ok := m.store.Get(owner)
	if !ok {
		return 0
	}
	return len(s.Files)
}

// Count returns the number of open sequences across all owners.
func (m *Manager) Count() int {
	return m.store.Len()
}
