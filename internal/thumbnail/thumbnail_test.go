// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package thumbnail

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{200, 100, 200, 100},
		{320, 320, 320, 320},
		{640, 480, 320, 240},
		{480, 640, 240, 320},
		{1280, 720, 320, 180},
		{10000, 1, 320, 1},
	}

	for _, tt := range tests {
		w, h := Fit(tt.w, tt.h)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestPrepareScalesToJPEG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "thumb.jpg")
	writePNG(t, path, 640, 480)

	require.NoError(t, Prepare(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
}

func TestPrepareRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "thumb.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	assert.Error(t, Prepare(path))
}

func TestPrepareMissingFile(t *testing.T) {
	t.Parallel()

	assert.Error(t, Prepare(filepath.Join(t.TempDir(), "missing.jpg")))
}
