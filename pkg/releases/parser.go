// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package releases wraps rls release-name parsing with a small cache.
package releases

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/moistari/rls"
)

// Parser parses release names and caches the result.
type Parser struct {
	cache *ttlcache.Cache[string, *rls.Release]
}

func NewParser(ttl time.Duration) *Parser {
	return &Parser{
		cache: ttlcache.New(ttlcache.Options[string, *rls.Release]{}.SetDefaultTTL(ttl)),
	}
}

// NewDefaultParser returns a parser with a 30 minute cache.
func NewDefaultParser() *Parser {
	return NewParser(30 * time.Minute)
}

// Parse returns the parsed release for name. It never returns nil.
func (p *Parser) Parse(name string) *rls.Release {
	name = strings.TrimSpace(name)
	if p == nil || name == "" {
		return &rls.Release{}
	}

	if cached, ok := p.cache.Get(name); ok {
		return cached
	}

	release := rls.ParseString(name)
	p.cache.Set(name, &release, ttlcache.DefaultTTL)
	return &release
}

// Clear drops the cached entry for name.
func (p *Parser) Clear(name string) {
	name = strings.TrimSpace(name)
	if p == nil || name == "" {
		return
	}
	p.cache.Delete(name)
}

// Info is the subset of a parsed release used in captions.
type Info struct {
	Title      string
	Year       int
	Series     int
	Episode    int
	Resolution string
	Group      string
	// ContentType is "tv", "movie" or "unknown".
	ContentType string
}

// Describe parses a file name, ignoring its extension, and summarises it.
func (p *Parser) Describe(filename string) Info {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	r := p.Parse(base)

	info := Info{
		Title:       r.Title,
		Year:        r.Year,
		Series:      r.Series,
		Episode:     r.Episode,
		Resolution:  r.Resolution,
		Group:       r.Group,
		ContentType: contentType(r),
	}
	if info.Title == "" {
		info.Title = base
	}
	return info
}

func contentType(r *rls.Release) string {
	switch {
	case r.Type == rls.Episode || r.Type == rls.Series || r.Series > 0 || r.Episode > 0:
		return "tv"
	case r.Type == rls.Movie:
		return "movie"
	case looksLikeVideoRelease(r):
		return "movie"
	default:
		return "unknown"
	}
}
