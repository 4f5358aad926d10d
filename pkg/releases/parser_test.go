// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"testing"
	"time"

	"github.com/moistari/rls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("nil parser returns empty release", func(t *testing.T) {
		t.Parallel()

		var parser *Parser
		assert.NotNil(t, parser.Parse("Show.S01E01.1080p.WEB-DL"))
	})

	t.Run("blank name returns empty release", func(t *testing.T) {
		t.Parallel()

		parser := NewParser(time.Minute)
		assert.Equal(t, &rls.Release{}, parser.Parse("   "))
	})

	t.Run("caches by trimmed name", func(t *testing.T) {
		t.Parallel()

		parser := NewDefaultParser()
		first := parser.Parse("  Show.S01E01.1080p.WEB-DL-GRP ")
		second := parser.Parse("Show.S01E01.1080p.WEB-DL-GRP")
		assert.Same(t, first, second)

		parser.Clear("Show.S01E01.1080p.WEB-DL-GRP")
		third := parser.Parse("Show.S01E01.1080p.WEB-DL-GRP")
		assert.NotSame(t, first, third)
		assert.Equal(t, first.Title, third.Title)
	})

	t.Run("clear on nil parser is a no-op", func(t *testing.T) {
		t.Parallel()

		var parser *Parser
		parser.Clear("x")
	})
}

func TestParser_Describe(t *testing.T) {
	t.Parallel()

	parser := NewDefaultParser()

	info := parser.Describe("The.Show.S02E07.1080p.WEB-DL.x264-GRP.mkv")
	require.NotEmpty(t, info.Title)
	assert.Equal(t, "The Show", info.Title)
	assert.Equal(t, 2, info.Series)
	assert.Equal(t, 7, info.Episode)
	assert.Equal(t, "tv", info.ContentType)

	info = parser.Describe("notes")
	assert.NotEmpty(t, info.Title)
}
