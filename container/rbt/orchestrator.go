/*
NAME
  orchestrator.go

DESCRIPTION
  orchestrator.go implements the Robot container extraction orchestrator
  (C9): parse the header, feed the primer and every frame's video and
  audio payloads through C7/C8 in order, finalize the audio reassembler,
  and hand everything to the caller-supplied Sink. Per spec.md §9's
  re-architecture note, this is a straight, single-threaded loop with no
  goroutines or suspension points, mirroring revid/pipeline.go's
  construct-then-drive shape.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/robotrbt/codec/hunkpalette"
	"github.com/ausocean/robotrbt/container/rbt/audio"
)

// Extract drives a full Robot container extraction from src, honouring
// opts, and delivers every output through sink. It returns the parsed
// header for callers that want to inspect it further (frame rate,
// resolution, and so on) alongside any fatal error.
func Extract(src io.ReadSeeker, opts *Options, sink Sink) (*Header, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := NewReader(src, binary.LittleEndian)
	h, err := ParseHeader(r, opts)
	if err != nil {
		return nil, err
	}

	pal := resolvePalette(h)
	paletteRawWritten := false

	var reassembler *audio.Reassembler
	if opts.ExtractAudio && h.HasAudio {
		reassembler = audio.New(opts.Logger, opts.Quiet)
		if !h.Primer.Valid {
			return nil, errors.Wrap(ErrPrimerFlagsCorrupt, "has_audio set but no valid primer")
		}
		if err := reassembler.FeedEvenPrimer(h.Primer.Even, h.Primer.ZeroCompressed); err != nil {
			return nil, err
		}
		if err := reassembler.FeedOddPrimer(h.Primer.Odd, h.Primer.ZeroCompressed); err != nil {
			return nil, err
		}
	}

	manifest := NewManifest(h)
	for i := 0; i < h.NumFrames; i++ {
		frame, audioBlock, err := DecodeFrame(r, h, i, pal, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}

		mf := ManifestFrame{FrameIndex: frame.Index, PaletteRequired: frame.PaletteRequired}
		if pal != nil && !pal.Valid {
			mf.PaletteParseFailed = true
			if !paletteRawWritten {
				if err := sink.PaletteRaw(h.PaletteBlob); err != nil {
					return nil, err
				}
				paletteRawWritten = true
			}
			mf.PaletteRaw = paletteRawWritten
		}

		for ci, cel := range frame.Cels {
			mf.Cels = append(mf.Cels, ManifestCel{Width: cel.Width, Height: cel.Height, X: cel.X, Y: cel.Y})
			if err := sink.Cel(i, ci, cel.RGBA, cel.Indices, cel.Width, cel.Height); err != nil {
				return nil, err
			}
		}
		manifest.Frames = append(manifest.Frames, mf)

		if reassembler != nil && audioBlock != nil {
			if err := reassembler.FeedPacket(audioBlock.Position, audioBlock.Payload); err != nil {
				return nil, err
			}
		}
	}

	if reassembler != nil {
		if err := sink.Audio(reassembler.Finalize()); err != nil {
			return nil, err
		}
	}

	if err := sink.Manifest(manifest); err != nil {
		return nil, err
	}
	return h, nil
}

// resolvePalette parses the container's palette blob, if any. It
// returns nil when the container has no palette section at all
// (frame.go treats that as PaletteRequired), or a Palette whose Valid
// field reflects whether parsing actually succeeded: an invalid
// palette still triggers the one-shot palette.raw dump, latched in
// Extract once the first affected frame is reached, matching the
// reference's one-shot behavior.
func resolvePalette(h *Header) *hunkpalette.Palette {
	if !h.HasPalette {
		return nil
	}
	pal := hunkpalette.Parse(h.PaletteBlob)
	return &pal
}
