// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"strings"

	"github.com/moistari/rls"
)

var (
	videoNameHints = []string{
		"2160p", "1080p", "720p", "576p", "480p", "4k", "remux", "hdr", "uhd",
		"bluray", "blu-ray", "bdrip", "web-dl", "webdl", "webrip", "hdtv", "x264", "x265", "hevc",
	}
	videoCodecHints = []string{"x264", "x265", "h264", "h265", "hevc", "av1", "xvid", "divx"}
)

// looksLikeVideoRelease catches video files rls could not classify, such as
// bare "Title.2024.1080p" names.
func looksLikeVideoRelease(r *rls.Release) bool {
	if r.Resolution != "" || len(r.HDR) > 0 {
		return true
	}
	for _, codec := range r.Codec {
		if containsAny(codec, videoCodecHints) {
			return true
		}
	}
	return containsAny(r.Title, videoNameHints) || containsAny(r.Source, videoNameHints)
}

func containsAny(value string, tokens []string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
