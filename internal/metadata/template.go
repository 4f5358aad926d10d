// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metadata

import (
	"strconv"
	"strings"
)

// Placeholder for a missing or mismatched value.
const Missing = "XX"

type slot int

const (
	slotSeason slot = iota
	slotEpisode
	slotChapter
	slotVolume
	slotQuality
)

type placeholder struct {
	token string
	slot  slot
}

// Bracketed tokens are matched case-insensitively, so {Season} and {QUALITY}
// behave like {season} and {quality}.
var bracketed = []placeholder{
	{"{season}", slotSeason},
	{"{episode}", slotEpisode},
	{"{chapter}", slotChapter},
	{"{volume}", slotVolume},
	{"{quality}", slotQuality},
}

// Bare words are matched exactly.
var bareWords = []placeholder{
	{"Season", slotSeason},
	{"Episode", slotEpisode},
	{"Chapter", slotChapter},
	{"Volume", slotVolume},
	{"QUALITY", slotQuality},
}

func (r Result) valueFor(s slot) string {
	switch s {
	case slotSeason:
		if r.Season == nil {
			return Missing
		}
		return strconv.Itoa(*r.Season)
	case slotEpisode:
		return r.valueIfKind(KindEpisode)
	case slotChapter:
		return r.valueIfKind(KindChapter)
	case slotVolume:
		return r.valueIfKind(KindVolume)
	case slotQuality:
		if r.Quality == "" {
			return QualityUnknown
		}
		return r.Quality
	}
	return Missing
}

func (r Result) valueIfKind(k ValueKind) string {
	if r.Kind != k || r.Value == "" {
		return Missing
	}
	return r.Value
}

// Render substitutes the extracted values into template.
//
// The template is scanned once from left to right. At each position a
// bracketed token is tried first, then a bare word; inserted values are
// written to the output and never scanned again. Anything else, including
// unknown placeholders, is copied through unchanged.
func Render(template string, r Result) string {
	var b strings.Builder
	b.Grow(len(template) + 16)

	for i := 0; i < len(template); {
		if p, ok := matchAt(template, i, bracketed, true); ok {
			b.WriteString(r.valueFor(p.slot))
			i += len(p.token)
			continue
		}
		if p, ok := matchAt(template, i, bareWords, false); ok {
			b.WriteString(r.valueFor(p.slot))
			i += len(p.token)
			continue
		}
		b.WriteByte(template[i])
		i++
	}

	return b.String()
}

func matchAt(s string, i int, set []placeholder, fold bool) (placeholder, bool) {
	rest := s[i:]
	for _, p := range set {
		if len(rest) < len(p.token) {
			continue
		}
		head := rest[:len(p.token)]
		if head == p.token || (fold && strings.EqualFold(head, p.token)) {
			return p, true
		}
	}
	return placeholder{}, false
}
