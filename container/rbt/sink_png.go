/*
NAME
  sink_png.go

DESCRIPTION
  sink_png.go implements DirSink.Cel: per spec.md §6, a frame with a
  palette is written as one RGBA PNG per cel, while a frame without a
  palette is written as a raw 8-bit indexed dump instead. filter/basic.go
  is the teacher's own precedent for reaching straight into stdlib
  image/image/color/image/jpeg rather than gocv for a plain pixel-buffer
  dump; PNG is the lossless counterpart used here since Robot cels are
  palette-indexed sprite data, not lossy camera frames.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Cel writes img as a PNG if a palette was available, or indices as a
// raw width*height byte dump otherwise.
func (s *DirSink) Cel(frameIndex, celIndex int, img *image.RGBA, indices []byte, width, height int) error {
	if img != nil {
		return s.writeCelPNG(frameIndex, celIndex, img)
	}
	return s.writeCelRaw(frameIndex, celIndex, indices)
}

func (s *DirSink) writeCelPNG(frameIndex, celIndex int, img *image.RGBA) error {
	path := filepath.Join(s.Dir, celFilename(frameIndex, celIndex, "png"))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "rbt: creating %q", path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "rbt: encoding %q", path)
	}
	return f.Close()
}

func (s *DirSink) writeCelRaw(frameIndex, celIndex int, indices []byte) error {
	path := filepath.Join(s.Dir, celFilename(frameIndex, celIndex, "idx"))
	if err := os.WriteFile(path, indices, 0o644); err != nil {
		return errors.Wrapf(err, "rbt: writing %q", path)
	}
	return nil
}
