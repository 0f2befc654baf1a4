/*
NAME
  header_test.go

DESCRIPTION
  header_test.go drives the header/index parser and the frame decoder
  against a hand-assembled single-frame v5 container: endianness
  detection, sector-aligned record positions, the table-disambiguation
  probe, and a raw-chunk cel decode.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildSingleFrameV5 assembles a little-endian v5 container with one
// frame holding one 2x2 cel stored as a single raw (type 2) chunk.
func buildSingleFrameV5(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian
	w := func(v interface{}) { must(t, binary.Write(&buf, le, v)) }

	w(uint16(signatureValue))
	buf.Write(tagBytes[:])
	w(uint16(5))   // version
	w(uint32(0))   // audio block size
	w(uint16(0))   // zero compress
	w(uint32(1))   // num frames
	w(uint32(0))   // palette size
	w(uint32(0))   // primer reserved size
	w(uint16(320)) // x res
	w(uint16(200)) // y res
	w(uint16(0))   // has palette
	w(uint16(0))   // has audio
	w(uint16(10))  // frame rate
	w(uint16(0))   // hi res
	w(uint16(0))   // max skippable packets
	w(uint16(1))   // max cels per frame
	buf.Write(make([]byte, 60-42))
	w(uint32(0)) // v5 reserved
	w(uint32(0))

	// One frame: video payload = cel count + cel header + one raw chunk.
	const videoSize = 2 + celHeaderSize + chunkHeaderSize + 4
	w(uint16(videoSize)) // video sizes table
	w(uint16(videoSize)) // packet sizes table

	buf.Write(make([]byte, numCueTimes*4+numCueValues*2))

	// Pad to the 2048-byte sector holding the frame record.
	if pad := sectorSize - buf.Len()%sectorSize; pad != sectorSize {
		buf.Write(make([]byte, pad))
	}

	w(uint16(1)) // num cels
	cel := make([]byte, celHeaderSize)
	cel[celHeaderScaleOff] = 100
	le.PutUint16(cel[celHeaderWidthOff:], 2)
	le.PutUint16(cel[celHeaderHeightOff:], 2)
	le.PutUint16(cel[celHeaderDataOff:], chunkHeaderSize+4)
	le.PutUint16(cel[celHeaderChunksOff:], 1)
	buf.Write(cel)

	w(uint32(4)) // compressed size
	w(uint32(4)) // decompressed size
	w(uint16(2)) // compression type: raw
	buf.Write([]byte{1, 2, 3, 4})

	return buf.Bytes()
}

func TestParseHeaderSingleFrame(t *testing.T) {
	data := buildSingleFrameV5(t)
	opts := &Options{Quiet: true}
	must(t, opts.Validate())

	r := NewReader(bytes.NewReader(data), binary.LittleEndian)
	h, err := ParseHeader(r, opts)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	if h.Version != 5 || h.NumFrames != 1 {
		t.Fatalf("version/frames = %d/%d, want 5/1", h.Version, h.NumFrames)
	}
	if h.Order != binary.ByteOrder(binary.LittleEndian) {
		t.Errorf("detected order = %v, want little-endian", h.Order)
	}
	if len(h.RecordPositions) != 1 {
		t.Fatalf("got %d record positions, want 1", len(h.RecordPositions))
	}
	if pos := h.RecordPositions[0]; pos%sectorSize != 0 {
		t.Errorf("record position %d not sector-aligned", pos)
	}
	if h.FileOffset != 0 {
		t.Errorf("resolved file offset = %d, want 0", h.FileOffset)
	}
	if h.VideoSizes[0] != h.PacketSizes[0] {
		t.Errorf("video/packet sizes = %d/%d, want equal for an audioless frame", h.VideoSizes[0], h.PacketSizes[0])
	}
}

func TestDecodeFrameRawChunk(t *testing.T) {
	data := buildSingleFrameV5(t)
	opts := &Options{Quiet: true}
	must(t, opts.Validate())

	r := NewReader(bytes.NewReader(data), binary.LittleEndian)
	h, err := ParseHeader(r, opts)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	frame, audioBlock, err := DecodeFrame(r, h, 0, nil, opts)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if audioBlock != nil {
		t.Error("got an audio block from an audioless container")
	}
	if !frame.PaletteRequired {
		t.Error("PaletteRequired not set for a paletteless container")
	}
	if len(frame.Cels) != 1 {
		t.Fatalf("got %d cels, want 1", len(frame.Cels))
	}
	cel := frame.Cels[0]
	if cel.Width != 2 || cel.Height != 2 {
		t.Errorf("cel is %dx%d, want 2x2", cel.Width, cel.Height)
	}
	if !bytes.Equal(cel.Indices, []byte{1, 2, 3, 4}) {
		t.Errorf("cel indices = %v, want [1 2 3 4]", cel.Indices)
	}
	if cel.RGBA != nil {
		t.Error("got an RGBA buffer with no palette available")
	}
}

func TestDetectEndian(t *testing.T) {
	le := make([]byte, 8)
	le[6], le[7] = 0x05, 0x00 // LE version 5 reads as BE 0x0500
	be := make([]byte, 8)
	be[6], be[7] = 0x00, 0x05 // BE version 5 reads as BE 0x0005

	tests := []struct {
		name string
		data []byte
		opts Options
		want bool
	}{
		{"little-endian file", le, Options{}, false},
		{"big-endian file", be, Options{}, true},
		{"forced big-endian", le, Options{ForceBigEndian: true}, true},
		{"forced little-endian", be, Options{ForceLittleEndian: true}, false},
	}
	for _, tt := range tests {
		r := NewReader(bytes.NewReader(tt.data), binary.LittleEndian)
		got, err := detectEndian(r, &tt.opts)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: detected big-endian=%v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAlignRelativeToOffset(t *testing.T) {
	tests := []struct {
		pos, rel, want int64
	}{
		{0, 0, 0},
		{1, 0, 2048},
		{2048, 0, 2048},
		{2049, 0, 4096},
		{2048, 6, 2054},
		{2054, 6, 2054},
	}
	for _, tt := range tests {
		if got := align(tt.pos, tt.rel); got != tt.want {
			t.Errorf("align(%d, %d) = %d, want %d", tt.pos, tt.rel, got, tt.want)
		}
	}
}
