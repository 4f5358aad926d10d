// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package sequence orders a closed batch of files for redelivery.
package sequence

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/autobrr/renamarr/internal/metadata"
)

// Mode selects which derived fields dominate the ordering.
type Mode string

const (
	ModeQuality Mode = "quality"
	ModeTitle   Mode = "title"
	ModeBoth    Mode = "both"
	ModeEpisode Mode = "episode"
)

// Modes lists every sort mode in display order.
var Modes = []Mode{ModeQuality, ModeTitle, ModeBoth, ModeEpisode}

// ParseMode maps a stored or user supplied value to a Mode. Unknown values
// fall back to ModeEpisode.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeQuality, ModeTitle, ModeBoth:
		return m
	default:
		return ModeEpisode
	}
}

// UnrankedPriority is the priority of qualities missing from the table.
const UnrankedPriority = 9

var qualityPriority = map[string]int{
	"144p":  1,
	"240p":  2,
	"360p":  3,
	"480p":  4,
	"720p":  5,
	"1080p": 6,
	"1440p": 7,
	"2160p": 8,
}

var (
	seasonRe       = regexp.MustCompile(`s(\d+)`)
	episodeRe      = regexp.MustCompile(`e(\d+)`)
	episodeLooseRe = regexp.MustCompile(`ep?(\d+)`)
)

// normaliseRules is the coarse quality detector used for ordering only. It is
// independent of metadata.ExtractQuality.
var normaliseRules = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`2160p|4k`), "2160p"},
	{regexp.MustCompile(`1440p|2k`), "1440p"},
	{regexp.MustCompile(`1080p|fhd`), "1080p"},
	{regexp.MustCompile(`720p|hd`), "720p"},
	{regexp.MustCompile(`480p|sd`), "480p"},
}

var resolutionRe = regexp.MustCompile(`(\d{3,4})p`)

func normaliseQuality(lowerName string) string {
	for _, r := range normaliseRules {
		if r.pattern.MatchString(lowerName) {
			return r.label
		}
	}
	if m := resolutionRe.FindStringSubmatch(lowerName); m != nil {
		return m[1] + "p"
	}
	return metadata.QualityUnknown
}

// Priority returns the rank of a file name's quality, 1 (lowest) to 8, or
// UnrankedPriority.
func Priority(name string) int {
	if p, ok := qualityPriority[normaliseQuality(strings.ToLower(name))]; ok {
		return p
	}
	return UnrankedPriority
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Fields are the per-file values every sort mode is built from.
type Fields struct {
	Season        int
	Episode       int
	PaddedEpisode string
	Priority      int
	Name          string
}

// Derive computes the sort fields from the lowercased display name. The
// caption is never consulted.
func Derive(f metadata.FileRecord) Fields {
	name := strings.ToLower(f.Name)

	season, _ := firstInt(seasonRe, name)
	episode, ok := firstInt(episodeRe, name)
	if !ok {
		episode, _ = firstInt(episodeLooseRe, name)
	}

	return Fields{
		Season:        season,
		Episode:       episode,
		PaddedEpisode: fmt.Sprintf("%04d", episode),
		Priority:      Priority(name),
		Name:          name,
	}
}

// field is one tuple element; exactly one of num or str is meaningful.
type field struct {
	num   int
	str   string
	isStr bool
}

func num(n int) field    { return field{num: n} }
func str(s string) field { return field{str: s, isStr: true} }

func (a field) compare(b field) int {
	if a.isStr {
		return strings.Compare(a.str, b.str)
	}
	return cmp.Compare(a.num, b.num)
}

// SortKey is compared element by element. Keys produced for the same mode
// always have the same shape.
type SortKey [4]field

// Compare returns -1, 0 or +1.
func (k SortKey) Compare(o SortKey) int {
	for i := range k {
		if c := k[i].compare(o[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Key builds the comparison tuple of f for mode.
func Key(f metadata.FileRecord, mode Mode) SortKey {
	d := Derive(f)

	switch ParseMode(string(mode)) {
	case ModeQuality:
		return SortKey{num(d.Priority), num(d.Season), str(d.PaddedEpisode), str(d.Name)}
	case ModeTitle:
		return SortKey{str(d.Name), num(d.Season), str(d.PaddedEpisode), num(d.Priority)}
	case ModeBoth:
		return SortKey{str(d.Name), num(d.Priority), num(d.Season), str(d.PaddedEpisode)}
	default:
		return SortKey{num(d.Season), str(d.PaddedEpisode), num(d.Priority), str(d.Name)}
	}
}

// Order returns files sorted ascending by Key under mode. The sort is stable
// and the input slice is not modified.
func Order(files []metadata.FileRecord, mode Mode) []metadata.FileRecord {
	type keyed struct {
		key  SortKey
		file metadata.FileRecord
	}

	items := make([]keyed, len(files))
	for i, f := range files {
		items[i] = keyed{key: Key(f, mode), file: f}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return a.key.Compare(b.key)
	})

	out := make([]metadata.FileRecord, len(items))
	for i, it := range items {
		out[i] = it.file
	}
	return out
}

// QualityChanges reports, for each position of an ordered batch, whether a
// quality marker should be sent before that file. The first file never gets
// one.
func QualityChanges(files []metadata.FileRecord) []bool {
	out := make([]bool, len(files))
	last := ""
	for i, f := range files {
		q := metadata.ExtractQuality(f.Name)
		if i > 0 && last != q {
			out[i] = true
		}
		last = q
	}
	return out
}
