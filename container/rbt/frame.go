/*
NAME
  frame.go

DESCRIPTION
  frame.go implements the per-frame record decoder (C7): reads one
  frame's cel headers and compressed chunks, dispatches each chunk to
  the LZS decoder or a raw copy, runs the vertical-scale expander, looks
  up the palette to produce an RGBA buffer, and locates the frame's
  trailing audio sub-block for forwarding to the reassembler.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"bytes"
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/ausocean/robotrbt/codec/celexpand"
	"github.com/ausocean/robotrbt/codec/hunkpalette"
	"github.com/ausocean/robotrbt/codec/lzs"
)

// Cel header byte layout (22 bytes total): vertical scale % (u8) at 1,
// width (u16) at 2, height (u16) at 4, x (i16) at 10, y (i16) at 12,
// data size (u16) at 14, chunk count (u16) at 16. The width and height
// offsets are also used by header.go's table-disambiguation probe.
const (
	celHeaderSize      = 22
	celHeaderScaleOff  = 1
	celHeaderWidthOff  = 2
	celHeaderHeightOff = 4
	celHeaderXOff      = 10
	celHeaderYOff      = 12
	celHeaderDataOff   = 14
	celHeaderChunksOff = 16

	chunkHeaderSize = 10

	compressionLZS = 0
	compressionRaw = 2

	maxCelPixelBudget = 20_000_000

	audioSubBlockHeaderSize = 8
)

// Cel is one decoded, fully-expanded video layer.
type Cel struct {
	Width, Height int
	X, Y          int

	// Indices holds Width*Height palette-index bytes.
	Indices []byte

	// RGBA is populated only when a valid palette was available at
	// decode time.
	RGBA *image.RGBA
}

// FrameResult is the outcome of decoding one frame record's video
// payload.
type FrameResult struct {
	Index int
	Cels  []Cel

	// PaletteRequired is set when no palette was available at all (not
	// merely one that failed to parse — see the orchestrator for the
	// one-shot palette.raw handling of a parse failure).
	PaletteRequired bool
}

// AudioBlock is a frame's trailing compressed audio sub-block, ready to
// be forwarded to the reassembler.
type AudioBlock struct {
	Position int32
	Payload  []byte
}

// DecodeFrame decodes frame index i: its video payload (cels) and, if
// present, the compressed audio sub-block appended after it. pal may be
// nil (no palette section present at all) or non-nil with Valid=false
// (palette parse failed).
func DecodeFrame(r *Reader, h *Header, index int, pal *hunkpalette.Palette, opts *Options) (*FrameResult, *AudioBlock, error) {
	if index < 0 || index >= len(h.RecordPositions) {
		return nil, nil, errors.Errorf("rbt: frame index %d out of range", index)
	}
	recordSize := int(h.PacketSizes[index])
	result := &FrameResult{Index: index, PaletteRequired: pal == nil}

	if recordSize == 0 {
		return result, nil, nil
	}

	if err := r.Seek(h.RecordPositions[index]); err != nil {
		return nil, nil, err
	}
	raw, err := r.Exact(recordSize)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrFrameSizeOverflow, "frame %d: %v", index, err)
	}

	// The video payload occupies the first VideoSizes[index] bytes of
	// the record; anything beyond it belongs to the audio sub-block.
	videoSize := int(h.VideoSizes[index])
	if videoSize > len(raw) {
		opts.warn("video size exceeds frame record, clamping", "frame", index, "videoSize", videoSize, "recordSize", len(raw))
		videoSize = len(raw)
	}
	video := raw[:videoSize]

	if len(video) >= 2 {
		sub := NewReader(bytes.NewReader(video), h.Order)
		numCels, err := sub.U16()
		if err != nil {
			return nil, nil, err
		}
		switch {
		case numCels > maxCelsHardLimit:
			opts.warn("frame has more cels than the hard cap, skipping video payload", "frame", index, "numCels", numCels)
		default:
			if int(numCels) > h.MaxCelsPerFrame {
				opts.warn("frame cel count exceeds tracked maximum, auto-expanding", "frame", index, "numCels", numCels, "previousMax", h.MaxCelsPerFrame)
				h.MaxCelsPerFrame = int(numCels)
			}
			cels, err := decodeCels(sub, len(video), int(numCels), pal, opts)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "frame %d", index)
			}
			result.Cels = cels
		}
	} else if len(video) > 0 {
		opts.warn("frame shorter than its cel-count field, treating as empty", "frame", index)
	}

	audioBlock, err := extractAudioSubBlock(raw, videoSize, h, index, opts)
	if err != nil {
		return nil, nil, err
	}
	return result, audioBlock, nil
}

func decodeCels(sub *Reader, videoLen, numCels int, pal *hunkpalette.Palette, opts *Options) ([]Cel, error) {
	cels := make([]Cel, 0, numCels)
	for j := 0; j < numCels; j++ {
		hdr, err := sub.Exact(celHeaderSize)
		if err != nil {
			return nil, errors.Wrapf(err, "cel %d header", j)
		}
		order := sub.Order()
		scale := int(hdr[celHeaderScaleOff])
		width := int(order.Uint16(hdr[celHeaderWidthOff : celHeaderWidthOff+2]))
		height := int(order.Uint16(hdr[celHeaderHeightOff : celHeaderHeightOff+2]))
		x := int(int16(order.Uint16(hdr[celHeaderXOff : celHeaderXOff+2])))
		y := int(int16(order.Uint16(hdr[celHeaderYOff : celHeaderYOff+2])))
		dataSize := int(order.Uint16(hdr[celHeaderDataOff : celHeaderDataOff+2]))
		numChunks := int(order.Uint16(hdr[celHeaderChunksOff : celHeaderChunksOff+2]))

		if width < 1 || height < 1 || scale < 1 || scale > 100 {
			return nil, errors.Wrapf(ErrCelDimensionsInvalid, "cel %d: %dx%d scale=%d", j, width, height, scale)
		}
		if width*height > maxCelPixelBudget {
			return nil, errors.Wrapf(ErrCelPixelBudgetExceeded, "cel %d: %d pixels", j, width*height)
		}
		if pos, err := sub.Pos(); err == nil && pos+int64(dataSize) > int64(videoLen) {
			return nil, errors.Wrapf(ErrFrameSizeOverflow, "cel %d: data size %d exceeds video payload", j, dataSize)
		}

		sourceHeight := (height * scale) / 100
		if sourceHeight < 1 {
			sourceHeight = 1
		}
		expectedBytes := width * sourceHeight

		celBuf := make([]byte, 0, expectedBytes)
		for c := 0; c < numChunks; c++ {
			chunkHdr, err := sub.Exact(chunkHeaderSize)
			if err != nil {
				return nil, errors.Wrapf(err, "cel %d chunk %d header", j, c)
			}
			compSize := int(order.Uint32(chunkHdr[0:4]))
			decompSize := int(order.Uint32(chunkHdr[4:8]))
			compType := int(order.Uint16(chunkHdr[8:10]))

			compData, err := sub.Exact(compSize)
			if err != nil {
				return nil, errors.Wrapf(err, "cel %d chunk %d payload", j, c)
			}

			var decoded []byte
			switch compType {
			case compressionLZS:
				decoded, err = lzs.Decode(compData, decompSize, celBuf)
				if err != nil {
					return nil, wrapLzsError(err, j, c)
				}
			case compressionRaw:
				if compSize != decompSize {
					return nil, errors.Wrapf(ErrBadCompressionType, "cel %d chunk %d: raw size mismatch %d != %d", j, c, compSize, decompSize)
				}
				decoded = compData
			default:
				return nil, errors.Wrapf(ErrBadCompressionType, "cel %d chunk %d: type %d", j, c, compType)
			}

			if len(celBuf)+len(decoded) > expectedBytes {
				return nil, errors.Wrapf(ErrCelPixelBudgetExceeded, "cel %d chunk %d: exceeds expected %d bytes", j, c, expectedBytes)
			}
			celBuf = append(celBuf, decoded...)
		}

		indices := make([]byte, width*height)
		celexpand.Expand(opts.Logger, indices, celBuf, width, height, scale)

		cel := Cel{Width: width, Height: height, X: x, Y: y, Indices: indices}
		if pal != nil && pal.Valid {
			cel.RGBA = applyPalette(indices, width, height, pal)
		}
		cels = append(cels, cel)
	}
	return cels, nil
}

// applyPalette maps palette-index pixels to RGBA, opaque black for any
// index the palette doesn't carry (per spec: "otherwise emit opaque
// black").
func applyPalette(indices []byte, width, height int, pal *hunkpalette.Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, idx := range indices {
		e := pal.Entries[idx]
		var c color.RGBA
		if e.Present {
			c = color.RGBA{R: e.R, G: e.G, B: e.B, A: 0xFF}
		} else {
			c = color.RGBA{A: 0xFF}
		}
		img.Set(i%width, i/width, c)
	}
	return img
}

func wrapLzsError(err error, cel, chunk int) error {
	switch {
	case errors.Is(err, lzs.ErrBadOffset):
		return errors.Wrapf(ErrLzsBadOffset, "cel %d chunk %d: %v", cel, chunk, err)
	case errors.Is(err, lzs.ErrBadLength):
		return errors.Wrapf(ErrLzsBadLength, "cel %d chunk %d: %v", cel, chunk, err)
	case errors.Is(err, lzs.ErrOutputOverflow):
		return errors.Wrapf(ErrLzsOutputOverflow, "cel %d chunk %d: %v", cel, chunk, err)
	case errors.Is(err, lzs.ErrTruncatedStream):
		return errors.Wrapf(ErrLzsTruncated, "cel %d chunk %d: %v", cel, chunk, err)
	case errors.Is(err, lzs.ErrTooLarge):
		return errors.Wrapf(ErrLzsTooLarge, "cel %d chunk %d: %v", cel, chunk, err)
	default:
		return errors.Wrapf(err, "cel %d chunk %d", cel, chunk)
	}
}

// extractAudioSubBlock locates a frame's trailing audio sub-block using
// the disambiguated video-size table: the video payload occupies the
// first VideoSizes[index] bytes of the frame record, and whatever
// remains up to PacketSizes[index] is the audio sub-block.
func extractAudioSubBlock(raw []byte, videoSize int, h *Header, index int, opts *Options) (*AudioBlock, error) {
	if !h.HasAudio {
		return nil, nil
	}
	packetSize := int(h.PacketSizes[index])
	audioLen := packetSize - videoSize
	if audioLen <= 0 {
		return nil, nil
	}
	if videoSize+audioSubBlockHeaderSize > len(raw) {
		opts.warn("audio sub-block header truncated, dropping", "frame", index)
		return nil, nil
	}
	sub := NewReader(bytes.NewReader(raw[videoSize:]), h.Order)
	g := sub.Guarded()
	position := g.I32()
	payloadSize := g.U32()
	if err := g.Err(); err != nil {
		opts.warn("audio sub-block header truncated, dropping", "frame", index)
		return nil, nil
	}

	available := len(raw) - videoSize - audioSubBlockHeaderSize
	n := int(payloadSize)
	if n > available {
		return nil, errors.Wrapf(ErrOversizedAudioBlock, "frame %d: declared %d, available %d", index, n, available)
	}
	payload, err := sub.Exact(n)
	if err != nil {
		return nil, err
	}
	return &AudioBlock{Position: position, Payload: payload}, nil
}
