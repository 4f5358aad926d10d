// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metadata extracts season, episode, chapter, volume and quality tokens
// from free-form file names and captions, and renders rename templates from them.
package metadata

import (
	"path/filepath"
	"strings"
)

// MediaKind is the attachment variant a file arrived as.
type MediaKind string

const (
	MediaDocument MediaKind = "document"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
)

// FileRecord is the uniform projection of an inbound attachment. Everything
// downstream (extraction, rendering, sorting) works against this type rather
// than the per-variant Telegram payloads.
type FileRecord struct {
	Ref     string    `json:"ref"`
	Name    string    `json:"name"`
	Caption string    `json:"caption,omitempty"`
	Size    int64     `json:"size"`
	Kind    MediaKind `json:"kind"`
	// ThumbRef is the attachment's own thumbnail, if Telegram provided one.
	ThumbRef string `json:"thumbRef,omitempty"`
}

// Extension returns the file's extension, falling back to a per-kind default
// when the original name carries none.
func (f FileRecord) Extension() string {
	if ext := filepath.Ext(f.Name); ext != "" && !strings.ContainsAny(ext, " /") {
		return ext
	}
	switch f.Kind {
	case MediaVideo:
		return ".mp4"
	case MediaAudio:
		return ".mp3"
	default:
		return ""
	}
}

// ExtractionMode selects which text of a file is parsed.
type ExtractionMode string

const (
	ModeFilename ExtractionMode = "filename"
	ModeCaption  ExtractionMode = "caption"
)

// ParseExtractionMode maps stored values to a mode, defaulting to filename.
func ParseExtractionMode(s string) ExtractionMode {
	if ExtractionMode(strings.ToLower(strings.TrimSpace(s))) == ModeCaption {
		return ModeCaption
	}
	return ModeFilename
}

// SourceText picks the text to parse. Caption mode falls back to the file
// name when the message carried no caption.
func SourceText(mode ExtractionMode, f FileRecord) string {
	if mode == ModeCaption && strings.TrimSpace(f.Caption) != "" {
		return f.Caption
	}
	return f.Name
}
