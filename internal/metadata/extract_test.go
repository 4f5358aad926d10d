// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestExtract_SeasonEpisodeForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "tight", text: "Show.S02E07.1080p.mkv"},
		{name: "tight ep", text: "Show S02EP07 720p"},
		{name: "words", text: "Show Season 2 Episode 7"},
		{name: "words lowercase", text: "show season 2 episode 7"},
		{name: "bracketed", text: "[S02][E07] Show"},
		{name: "separated", text: "Show S02 - E07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Extract(tt.text)
			require.NotNil(t, res.Season)
			assert.Equal(t, 2, *res.Season)
			assert.Equal(t, KindEpisode, res.Kind)
			assert.Equal(t, "7", res.Value)
		})
	}
}

func TestExtract_TightRuleWinsOverTrailingNumber(t *testing.T) {
	t.Parallel()

	// Rule 5 would also match and read "2" from "E02" differently if it ran first.
	res := ExtractEpisode("S01E02 part 9")
	require.NotNil(t, res.Season)
	assert.Equal(t, 1, *res.Season)
	assert.Equal(t, "2", res.Value)

	// Without an E token the trailing-number rule applies.
	res = ExtractEpisode("Show S03 13")
	require.NotNil(t, res.Season)
	assert.Equal(t, 3, *res.Season)
	assert.Equal(t, "13", res.Value)
	assert.Equal(t, KindEpisode, res.Kind)
}

func TestExtract_ChapterVolumeAndFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		season *int
		value  string
		kind   ValueKind
	}{
		{text: "Manga Chapter 14", value: "14", kind: KindChapter},
		{text: "manga chapter14", value: "14", kind: KindChapter},
		// "Volume 3" also satisfies the earlier episode-only rule ("e 3").
		{text: "Novel Volume 3", value: "3", kind: KindEpisode},
		{text: "Show Episode 5", value: "5", kind: KindEpisode},
		{text: "Show ep12", value: "12", kind: KindEpisode},
		{text: "Some show 042 final", value: "42", kind: KindEpisode},
		{text: "no digits here", value: "", kind: KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			res := ExtractEpisode(tt.text)
			assert.Equal(t, tt.season, res.Season)
			assert.Equal(t, tt.value, res.Value)
			assert.Equal(t, tt.kind, res.Kind)
		})
	}
}

func TestExtract_NoDigits(t *testing.T) {
	t.Parallel()

	res := Extract("just a title")
	assert.Nil(t, res.Season)
	assert.Empty(t, res.Value)
	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, QualityUnknown, res.Quality)
}

func TestExtract_NormalisesLeadingZeros(t *testing.T) {
	t.Parallel()

	res := Extract("S01E007")
	assert.Equal(t, intPtr(1), res.Season)
	assert.Equal(t, "7", res.Value)
}

func TestExtract_OversizedNumbers(t *testing.T) {
	t.Parallel()

	res := Extract("Episode 99999999999999999999999")
	assert.Nil(t, res.Season)
	assert.Equal(t, KindEpisode, res.Kind)
	assert.Equal(t, "99999999999999999999999", res.Value)

	res = Extract("S99999999999999999999E01")
	assert.Nil(t, res.Season, "season does not fit an int")
	assert.Equal(t, KindEpisode, res.Kind)
	assert.Equal(t, "1", res.Value)

	res = Extract("Chapter 000")
	assert.Equal(t, KindChapter, res.Kind)
	assert.Equal(t, "0", res.Value)
}

func TestExtract_KindSetIffValueSet(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"", "abc", "S1E2", "Chapter 1", "Volume 9", "Episode 3", "100", "S", "[S1][E2]",
		"Season Episode", "HDTV", "a 1080p b",
	}
	for _, in := range inputs {
		res := Extract(in)
		assert.Equal(t, res.Value != "", res.Kind != KindNone, "input %q", in)
	}
}

func TestRules_EachRuleIndependently(t *testing.T) {
	t.Parallel()

	samples := map[string]string{
		"season-episode-tight":     "S1E2",
		"season-episode-separated": "S1 E2",
		"season-episode-words":     "Season 1 Episode 2",
		"season-episode-bracketed": "[S1][E2]",
		"season-trailing-number":   "S1 x 2",
		"episode-only":             "Episode 2",
		"chapter":                  "Chapter 2",
		"volume":                   "Volume 2",
		"standalone-number":        "part 2",
	}

	rs := Rules()
	require.Len(t, rs, len(samples))

	for _, rule := range rs {
		text, ok := samples[rule.Name]
		require.True(t, ok, "missing sample for %s", rule.Name)

		_, value, matched := rule.apply(text)
		assert.True(t, matched, rule.Name)
		assert.Equal(t, "2", value, rule.Name)
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	t.Parallel()

	rs := Rules()
	rs[0] = ParseRule{Name: "changed"}
	assert.Equal(t, "season-episode-tight", Rules()[0].Name)
}

func TestExtractQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{text: "Show.2160p.mkv", want: "4k"},
		{text: "Show.1440p.mkv", want: "2k"},
		{text: "Show.720p.mkv", want: "720p"},
		{text: "Show.1080i.mkv", want: "1080i"},
		{text: "Show.1080P.mkv", want: "1080P"},
		{text: "[1080p]", want: "1080p"},
		{text: "Show 4K remaster", want: "4k"},
		{text: "Show 2k", want: "2k"},
		{text: "Show.HDTV.x264", want: "HDTV"},
		{text: "show hdrip", want: "hdrip"},
		{text: "Show 4kX264", want: "4kX264"},
		{text: "Show.mkv", want: QualityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractQuality(tt.text))
		})
	}
}

func TestSourceText(t *testing.T) {
	t.Parallel()

	f := FileRecord{Name: "file.S01E01.mkv", Caption: "Caption S02E02"}
	assert.Equal(t, f.Name, SourceText(ModeFilename, f))
	assert.Equal(t, f.Caption, SourceText(ModeCaption, f))

	f.Caption = "  "
	assert.Equal(t, f.Name, SourceText(ModeCaption, f))
}

func TestParseExtractionMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ModeCaption, ParseExtractionMode("Caption"))
	assert.Equal(t, ModeFilename, ParseExtractionMode("filename"))
	assert.Equal(t, ModeFilename, ParseExtractionMode(""))
	assert.Equal(t, ModeFilename, ParseExtractionMode("bogus"))
}

func TestFileRecord_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".mkv", FileRecord{Name: "a.mkv", Kind: MediaVideo}.Extension())
	assert.Equal(t, ".mp4", FileRecord{Name: "video", Kind: MediaVideo}.Extension())
	assert.Equal(t, ".mp3", FileRecord{Name: "audio", Kind: MediaAudio}.Extension())
	assert.Equal(t, "", FileRecord{Name: "notes", Kind: MediaDocument}.Extension())
}
