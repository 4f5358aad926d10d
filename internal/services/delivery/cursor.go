// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package delivery

import (
	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/sequence"
)

// Cursor walks an ordered batch. The position only moves forward once a file
// is settled, so a retried send resumes at the same file.
type Cursor struct {
	files   []metadata.FileRecord
	markers []bool
	pos     int
	// markerSent guards against repeating a quality marker when the file
	// after it is resent.
	markerSent int
}

func NewCursor(files []metadata.FileRecord) *Cursor {
	return &Cursor{
		files:      files,
		markers:    sequence.QualityChanges(files),
		markerSent: -1,
	}
}

func (c *Cursor) Done() bool {
	return c.pos >= len(c.files)
}

// Current returns the file at the cursor.
func (c *Cursor) Current() metadata.FileRecord {
	return c.files[c.pos]
}

// NeedsMarker reports whether a quality marker precedes the current file and
// has not been sent yet.
func (c *Cursor) NeedsMarker() bool {
	return c.markers[c.pos] && c.markerSent != c.pos
}

func (c *Cursor) MarkerSent() {
	c.markerSent = c.pos
}

func (c *Cursor) Advance() {
	c.pos++
}

func (c *Cursor) Position() int {
	return c.pos
}

// Remaining is the unsent suffix.
func (c *Cursor) Remaining() []metadata.FileRecord {
	return c.files[c.pos:]
}
