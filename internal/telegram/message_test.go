// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package telegram

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/renamarr/internal/metadata"
)

func TestFileFromMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want metadata.FileRecord
		ok   bool
	}{
		{
			name: "document",
			msg: &tgbotapi.Message{
				Caption:  "cap",
				Document: &tgbotapi.Document{FileID: "doc", FileName: "Show.S01E01.mkv", FileSize: 10},
			},
			want: metadata.FileRecord{Ref: "doc", Name: "Show.S01E01.mkv", Caption: "cap", Size: 10, Kind: metadata.MediaDocument},
			ok:   true,
		},
		{
			name: "video without name",
			msg: &tgbotapi.Message{
				Video: &tgbotapi.Video{FileID: "vid", FileSize: 20, Thumbnail: &tgbotapi.PhotoSize{FileID: "thumb"}},
			},
			want: metadata.FileRecord{Ref: "vid", Name: "video", Size: 20, Kind: metadata.MediaVideo, ThumbRef: "thumb"},
			ok:   true,
		},
		{
			name: "audio",
			msg:  &tgbotapi.Message{Audio: &tgbotapi.Audio{FileID: "aud", FileName: "track.flac"}},
			want: metadata.FileRecord{Ref: "aud", Name: "track.flac", Kind: metadata.MediaAudio},
			ok:   true,
		},
		{
			name: "text only",
			msg:  &tgbotapi.Message{Text: "hello"},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := FileFromMessage(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLargestPhoto(t *testing.T) {
	t.Parallel()

	ref, ok := LargestPhoto(&tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 1280, Height: 720},
		{FileID: "medium", Width: 320, Height: 320},
	}})
	require.True(t, ok)
	assert.Equal(t, "large", ref)

	_, ok = LargestPhoto(&tgbotapi.Message{})
	assert.False(t, ok)
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, translate(nil))

	flood := translate(fmt.Errorf("send: %w", &tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7},
	}))
	var fw *FloodWaitError
	require.ErrorAs(t, flood, &fw)
	assert.Equal(t, 7*time.Second, fw.RetryAfter)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))

	notFlood := &tgbotapi.Error{Code: 400, Message: "Bad Request"}
	assert.NotErrorAs(t, translate(notFlood), &fw)
}
