// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package ffmpeg rewrites container metadata by remuxing through ffmpeg.
package ffmpeg

// Fields are the metadata values written into the output container. Empty
// values are written as empty tags, clearing whatever the source carried.
type Fields struct {
	Title      string
	Artist     string
	Author     string
	VideoTitle string
	AudioTitle string
	Subtitle   string
}

// BuildArgs returns the argument list for a stream-copy remux of in to out
// with every metadata field set. Streams are never re-encoded.
func BuildArgs(in, out string, f Fields) []string {
	return []string{
		"-i", in,
		"-metadata", "title=" + f.Title,
		"-metadata", "artist=" + f.Artist,
		"-metadata", "author=" + f.Author,
		"-metadata:s:v", "title=" + f.VideoTitle,
		"-metadata:s:a", "title=" + f.AudioTitle,
		"-metadata:s:s", "title=" + f.Subtitle,
		"-map", "0",
		"-c", "copy",
		"-loglevel", "error",
		"-y",
		out,
	}
}
