/*
NAME
  dirsink.go

DESCRIPTION
  dirsink.go implements DirSink, the reference Sink (see sink.go) that
  writes a Robot extraction to a plain directory: one PNG (or raw
  index dump) per cel, a single palette.raw dump if the palette failed
  to parse, one WAV file for the reassembled audio, and a manifest.json
  describing the whole extraction, per spec.md §6's output contract.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DirSink writes an extraction's outputs under Dir, which must already
// exist (see NewDirSink).
type DirSink struct {
	Dir string
}

// NewDirSink creates dir (and any missing parents) and returns a DirSink
// rooted there.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "rbt: creating output directory %q", dir)
	}
	return &DirSink{Dir: dir}, nil
}

// PaletteRaw writes the original, undecodeable HunkPalette blob to
// palette.raw, per spec.md §6: "If palette parse fails: a single
// palette.raw dump of the original blob, one-shot."
func (s *DirSink) PaletteRaw(blob []byte) error {
	path := filepath.Join(s.Dir, "palette.raw")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return errors.Wrapf(err, "rbt: writing %q", path)
	}
	return nil
}

// Manifest writes m as indented JSON to manifest.json.
func (s *DirSink) Manifest(m *Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "rbt: marshaling manifest")
	}
	path := filepath.Join(s.Dir, "manifest.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "rbt: writing %q", path)
	}
	return nil
}

// celFilename names a cel's output file, one per (frame, cel) pair,
// matching the manifest's frame_index/cel ordering.
func celFilename(frameIndex, celIndex int, ext string) string {
	return fmt.Sprintf("frame%05d_cel%02d.%s", frameIndex, celIndex, ext)
}
