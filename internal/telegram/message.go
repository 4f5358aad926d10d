// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/autobrr/renamarr/internal/metadata"
)

// FileFromMessage projects whichever attachment a message carries onto a
// FileRecord. ok is false when the message has no document, video or audio.
func FileFromMessage(m *tgbotapi.Message) (rec metadata.FileRecord, ok bool) {
	if m == nil {
		return rec, false
	}

	switch {
	case m.Document != nil:
		rec = metadata.FileRecord{
			Ref:  m.Document.FileID,
			Name: m.Document.FileName,
			Size: int64(m.Document.FileSize),
			Kind: metadata.MediaDocument,
		}
		if m.Document.Thumbnail != nil {
			rec.ThumbRef = m.Document.Thumbnail.FileID
		}
	case m.Video != nil:
		rec = metadata.FileRecord{
			Ref:  m.Video.FileID,
			Name: nameOr(m.Video.FileName, "video"),
			Size: int64(m.Video.FileSize),
			Kind: metadata.MediaVideo,
		}
		if m.Video.Thumbnail != nil {
			rec.ThumbRef = m.Video.Thumbnail.FileID
		}
	case m.Audio != nil:
		rec = metadata.FileRecord{
			Ref:  m.Audio.FileID,
			Name: nameOr(m.Audio.FileName, "audio"),
			Size: int64(m.Audio.FileSize),
			Kind: metadata.MediaAudio,
		}
		if m.Audio.Thumbnail != nil {
			rec.ThumbRef = m.Audio.Thumbnail.FileID
		}
	default:
		return rec, false
	}

	rec.Caption = m.Caption
	return rec, true
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// LargestPhoto returns the reference of the biggest size of a photo message.
func LargestPhoto(m *tgbotapi.Message) (string, bool) {
	if m == nil || len(m.Photo) == 0 {
		return "", false
	}
	best := m.Photo[0]
	for _, p := range m.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best.FileID, true
}
