// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ValueKind names the semantic slot of an extracted value.
type ValueKind string

const (
	KindNone    ValueKind = "none"
	KindEpisode ValueKind = "episode"
	KindChapter ValueKind = "chapter"
	KindVolume  ValueKind = "volume"
)

// QualityUnknown is returned when no quality token is present.
const QualityUnknown = "unknown"

// Result holds the tokens extracted from one piece of text.
// Kind is KindNone exactly when Value is empty.
type Result struct {
	Season  *int
	Value   string
	Kind    ValueKind
	Quality string
}

// HasSeason reports whether a season number was extracted.
func (r Result) HasSeason() bool {
	return r.Season != nil
}

// ParseRule is one entry of the extraction cascade.
type ParseRule struct {
	Name    string
	Pattern *regexp.Regexp
	// SeasonGroup is the capture index holding the season, 0 when the rule has none.
	SeasonGroup int
	ValueGroup  int
	Kind        ValueKind
}

// apply runs the rule against text. Numbers keep every digit: leading zeros
// are dropped, and a season too large for an int is left unset.
func (p ParseRule) apply(text string) (season *int, value string, ok bool) {
	m := p.Pattern.FindStringSubmatch(text)
	if m == nil {
		return nil, "", false
	}

	if p.SeasonGroup > 0 {
		if n, err := strconv.Atoi(m[p.SeasonGroup]); err == nil {
			season = &n
		}
	}

	return season, trimZeros(m[p.ValueGroup]), true
}

func trimZeros(digits string) string {
	if t := strings.TrimLeft(digits, "0"); t != "" {
		return t
	}
	return "0"
}

// rules is evaluated top to bottom; the first match wins.
var rules = []ParseRule{
	{
		Name:        "season-episode-tight",
		Pattern:     regexp.MustCompile(`S(\d+)(?:E|EP)(\d+)`),
		SeasonGroup: 1,
		ValueGroup:  2,
		Kind:        KindEpisode,
	},
	{
		Name:        "season-episode-separated",
		Pattern:     regexp.MustCompile(`S(\d+)[\s-]*(?:E|EP)(\d+)`),
		SeasonGroup: 1,
		ValueGroup:  2,
		Kind:        KindEpisode,
	},
	{
		Name:        "season-episode-words",
		Pattern:     regexp.MustCompile(`(?i)Season\s*(\d+)\s*Episode\s*(\d+)`),
		SeasonGroup: 1,
		ValueGroup:  2,
		Kind:        KindEpisode,
	},
	{
		Name:        "season-episode-bracketed",
		Pattern:     regexp.MustCompile(`\[S(\d+)\]\[E(\d+)\]`),
		SeasonGroup: 1,
		ValueGroup:  2,
		Kind:        KindEpisode,
	},
	{
		Name:        "season-trailing-number",
		Pattern:     regexp.MustCompile(`S(\d+)\D*(\d+)`),
		SeasonGroup: 1,
		ValueGroup:  2,
		Kind:        KindEpisode,
	},
	{
		Name:       "episode-only",
		Pattern:    regexp.MustCompile(`(?i)(?:E|EP|Episode)\s*(\d+)`),
		ValueGroup: 1,
		Kind:       KindEpisode,
	},
	{
		Name:       "chapter",
		Pattern:    regexp.MustCompile(`(?i)Chapter\s*(\d+)`),
		ValueGroup: 1,
		Kind:       KindChapter,
	},
	{
		Name:       "volume",
		Pattern:    regexp.MustCompile(`(?i)Volume\s*(\d+)`),
		ValueGroup: 1,
		Kind:       KindVolume,
	},
	{
		Name:       "standalone-number",
		Pattern:    regexp.MustCompile(`\b(\d+)\b`),
		ValueGroup: 1,
		Kind:       KindEpisode,
	},
}

// Rules returns a copy of the extraction cascade in evaluation order.
func Rules() []ParseRule {
	out := make([]ParseRule, len(rules))
	copy(out, rules)
	return out
}

// Extract parses season, episode family value and quality from text.
// It never fails; unmatched fields are left absent.
func Extract(text string) Result {
	res := ExtractEpisode(text)
	res.Quality = ExtractQuality(text)
	return res
}

// ExtractEpisode runs only the season/episode cascade. Quality is left empty.
func ExtractEpisode(text string) Result {
	for _, rule := range rules {
		season, value, ok := rule.apply(text)
		if !ok {
			continue
		}

		ev := log.Debug().Str("rule", rule.Name).Str("value", value).Str("kind", string(rule.Kind))
		if season != nil {
			ev = ev.Int("season", *season)
		}
		ev.Msg("metadata: matched extraction rule")

		return Result{Season: season, Value: value, Kind: rule.Kind}
	}

	log.Debug().Str("text", text).Msg("metadata: no extraction rule matched")
	return Result{Kind: KindNone}
}
