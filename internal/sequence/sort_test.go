// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/renamarr/internal/metadata"
)

func records(names ...string) []metadata.FileRecord {
	out := make([]metadata.FileRecord, len(names))
	for i, n := range names {
		out[i] = metadata.FileRecord{Ref: "ref-" + n, Name: n, Kind: metadata.MediaDocument}
	}
	return out
}

func names(files []metadata.FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestOrder_EpisodeMode(t *testing.T) {
	t.Parallel()

	in := records("S01E10.1080p", "S01E02.720p", "S02E01.480p")
	got := Order(in, ModeEpisode)

	assert.Equal(t, []string{"S01E02.720p", "S01E10.1080p", "S02E01.480p"}, names(got))
	// input untouched
	assert.Equal(t, []string{"S01E10.1080p", "S01E02.720p", "S02E01.480p"}, names(in))
}

func TestOrder_QualityMode(t *testing.T) {
	t.Parallel()

	in := records("Show.S01E02.1080p", "Show.S01E01.1080p", "Show.S01E03.480p", "Show.S01E01.720p")
	got := Order(in, ModeQuality)

	assert.Equal(t, []string{
		"Show.S01E03.480p",
		"Show.S01E01.720p",
		"Show.S01E01.1080p",
		"Show.S01E02.1080p",
	}, names(got))
}

func TestOrder_TitleAndBoth(t *testing.T) {
	t.Parallel()

	in := records("b.S01E01.720p", "A.S01E02.480p", "a.S01E01.1080p")

	assert.Equal(t, []string{"a.S01E01.1080p", "A.S01E02.480p", "b.S01E01.720p"}, names(Order(in, ModeTitle)))
	assert.Equal(t, []string{"a.S01E01.1080p", "A.S01E02.480p", "b.S01E01.720p"}, names(Order(in, ModeBoth)))
}

func TestOrder_Idempotent(t *testing.T) {
	t.Parallel()

	in := records(
		"Show.S02E01.2160p.mkv",
		"Show.S01E10.720p.mkv",
		"show.s01e02.1080p.mkv",
		"Other Episode 4 480p",
		"Manga Chapter 3",
		"plain",
		"Show.S01E02.1080p.mkv",
	)

	for _, mode := range Modes {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			once := Order(in, mode)
			twice := Order(once, mode)
			assert.Equal(t, once, twice)
			assert.Len(t, once, len(in))
		})
	}
}

func TestOrder_StableForEqualKeys(t *testing.T) {
	t.Parallel()

	in := []metadata.FileRecord{
		{Ref: "first", Name: "Show.S01E01.720p"},
		{Ref: "second", Name: "Show.S01E01.720p"},
		{Ref: "third", Name: "Show.S01E01.720p"},
	}

	for _, mode := range Modes {
		got := Order(in, mode)
		require.Len(t, got, 3)
		assert.Equal(t, "first", got[0].Ref, mode)
		assert.Equal(t, "second", got[1].Ref, mode)
		assert.Equal(t, "third", got[2].Ref, mode)
	}
}

func TestOrder_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Order(nil, ModeEpisode))
}

func TestDerive(t *testing.T) {
	t.Parallel()

	d := Derive(metadata.FileRecord{Name: "Show.S03E07.1080p.mkv", Caption: "S09E09"})
	assert.Equal(t, 3, d.Season)
	assert.Equal(t, 7, d.Episode)
	assert.Equal(t, "0007", d.PaddedEpisode)
	assert.Equal(t, 6, d.Priority)
	assert.Equal(t, "show.s03e07.1080p.mkv", d.Name)

	d = Derive(metadata.FileRecord{Name: "nothing"})
	assert.Equal(t, 0, d.Season)
	assert.Equal(t, 0, d.Episode)
	assert.Equal(t, "0000", d.PaddedEpisode)
	assert.Equal(t, UnrankedPriority, d.Priority)
}

func TestPriority(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"x.144p":  1,
		"x.240p":  2,
		"x.360p":  3,
		"x.480p":  4,
		"x.720p":  5,
		"x.1080p": 6,
		"x.FHD":   6,
		"x.1440p": 7,
		"x.2K":    7,
		"x.2160p": 8,
		"x.4k":    8,
		"x.576p":  UnrankedPriority,
		"x":       UnrankedPriority,
	}
	for name, want := range tests {
		assert.Equal(t, want, Priority(name), name)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ModeQuality, ParseMode("quality"))
	assert.Equal(t, ModeTitle, ParseMode("Title"))
	assert.Equal(t, ModeBoth, ParseMode(" both "))
	assert.Equal(t, ModeEpisode, ParseMode("episode"))
	assert.Equal(t, ModeEpisode, ParseMode(""))
	assert.Equal(t, ModeEpisode, ParseMode("random"))
}

func TestKey_UnknownModeIsEpisode(t *testing.T) {
	t.Parallel()

	f := metadata.FileRecord{Name: "Show.S01E02.720p"}
	assert.Equal(t, Key(f, ModeEpisode), Key(f, Mode("nope")))
}

func TestQualityChanges(t *testing.T) {
	t.Parallel()

	files := records("a.720p", "b.720p", "c.1080p", "d.1080p", "e", "f.720p")
	assert.Equal(t, []bool{false, false, true, false, true, true}, QualityChanges(files))
	assert.Empty(t, QualityChanges(nil))
}
