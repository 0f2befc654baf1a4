/*
NAME
  sink.go

DESCRIPTION
  sink.go defines the output trait the orchestrator drives: per spec.md
  §9's re-architecture note ("make the orchestrator generic over a sink
  trait/interface that the caller supplies"), C9 never opens files or
  encodes images/audio itself — it hands decoded data to a Sink. This
  keeps the core a straight, single-threaded loop with no I/O concerns
  of its own, mirroring revid/pipeline.go's construct-then-drive shape.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import "image"

// Sink receives an extraction's outputs as the orchestrator produces
// them. Implementations decide how (or whether) to persist each call;
// none of them block the orchestrator on anything but their own I/O.
type Sink interface {
	// Cel is called once per decoded cel of a non-empty frame. img is
	// nil when no palette was available to convert indices to RGBA, in
	// which case indices (width*height palette-index bytes) should be
	// used instead.
	Cel(frameIndex, celIndex int, img *image.RGBA, indices []byte, width, height int) error

	// PaletteRaw is called at most once per extraction, with the
	// original undecodeable HunkPalette blob, when palette parsing
	// failed.
	PaletteRaw(blob []byte) error

	// Audio is called once with the final interleaved mono 16-bit PCM
	// stream at 22050 Hz, after the reassembler has finalized both
	// channels. Not called if audio extraction was disabled or the
	// container has no audio.
	Audio(samples []int16) error

	// Manifest is called once, after every frame has been processed.
	Manifest(m *Manifest) error
}
