// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metadata

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// QualityRule is one entry of the quality cascade.
type QualityRule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(m []string) string
}

func literal(m []string) string { return m[1] }

// qualityRules is evaluated top to bottom, independent of the episode cascade.
var qualityRules = []QualityRule{
	{
		Name:    "resolution",
		Pattern: regexp.MustCompile(`(?i)\b(\d{3,4}[pi])\b`),
		Extract: func(m []string) string {
			// 2160p and 1440p are caught here before the named-resolution rules
			// below, so fold them to the same labels those rules produce.
			switch strings.ToLower(m[1]) {
			case "2160p":
				return "4k"
			case "1440p":
				return "2k"
			}
			return m[1]
		},
	},
	{
		Name:    "4k",
		Pattern: regexp.MustCompile(`(?i)\b(4k|2160p)\b`),
		Extract: func([]string) string { return "4k" },
	},
	{
		Name:    "2k",
		Pattern: regexp.MustCompile(`(?i)\b(2k|1440p)\b`),
		Extract: func([]string) string { return "2k" },
	},
	{
		Name:    "source",
		Pattern: regexp.MustCompile(`(?i)\b(HDRip|HDTV)\b`),
		Extract: literal,
	},
	{
		Name:    "codec",
		Pattern: regexp.MustCompile(`(?i)\b(4kX264|4kx265)\b`),
		Extract: literal,
	},
	{
		Name:    "bracketed-resolution",
		Pattern: regexp.MustCompile(`(?i)\[(\d{3,4}[pi])\]`),
		Extract: literal,
	},
}

// QualityRules returns a copy of the quality cascade in evaluation order.
func QualityRules() []QualityRule {
	out := make([]QualityRule, len(qualityRules))
	copy(out, qualityRules)
	return out
}

// ExtractQuality returns the first quality token found in text, or
// QualityUnknown.
func ExtractQuality(text string) string {
	for _, rule := range qualityRules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		q := rule.Extract(m)
		log.Debug().Str("rule", rule.Name).Str("quality", q).Msg("metadata: matched quality rule")
		return q
	}
	return QualityUnknown
}
