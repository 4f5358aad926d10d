// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package thumbnail converts downloaded thumbnails into the JPEG form
// Telegram accepts for uploads.
package thumbnail

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"

	// decoders for thumbnails set from photos, PNG documents or stickers
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxSide is the largest width or height Telegram keeps for a thumbnail.
const MaxSide = 320

const jpegQuality = 90

// Fit scales w x h down to fit inside MaxSide, keeping the aspect ratio.
func Fit(w, h int) (int, int) {
	if w <= MaxSide && h <= MaxSide {
		return w, h
	}
	if w >= h {
		return MaxSide, max(1, h*MaxSide/w)
	}
	return max(1, w*MaxSide/h), MaxSide
}

// Prepare rewrites the image at path in place as an RGB JPEG no larger than
// MaxSide on either side.
func Prepare(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy())

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out.Close()
}
