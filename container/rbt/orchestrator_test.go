/*
NAME
  orchestrator_test.go

DESCRIPTION
  orchestrator_test.go drives Extract end to end against a minimal,
  hand-assembled v5 container with no frames, no palette, and no audio
  (spec.md §8 scenario 1), checking that the orchestrator reaches the
  manifest stage and hands the caller-supplied Sink exactly what it
  should for the empty case.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"
)

// fakeSink records every call Extract makes to it, for assertions.
type fakeSink struct {
	paletteRaw [][]byte
	audio      [][]int16
	manifest   *Manifest
	cels       int
}

func (s *fakeSink) Cel(frameIndex, celIndex int, img *image.RGBA, indices []byte, width, height int) error {
	s.cels++
	return nil
}

func (s *fakeSink) PaletteRaw(blob []byte) error {
	s.paletteRaw = append(s.paletteRaw, blob)
	return nil
}

func (s *fakeSink) Audio(samples []int16) error {
	s.audio = append(s.audio, samples)
	return nil
}

func (s *fakeSink) Manifest(m *Manifest) error {
	s.manifest = m
	return nil
}

// buildMinimalV5 assembles a minimal little-endian v5 Robot container
// header: no palette, no audio, zero frames, all-zero cue tables.
func buildMinimalV5(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer

	// Signature + tag.
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(signatureValue)))
	buf.Write(tagBytes[:])

	// Fixed fields.
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(5)))   // version
	must(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))   // audio block size
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))   // zero compress
	must(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))   // num frames
	must(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))   // palette size
	must(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))   // primer reserved size
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(320))) // x res
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(200))) // y res
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))   // has palette
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))   // has audio
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(12)))  // frame rate
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))   // hi res
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))   // max skippable packets
	must(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))   // max cels per frame
	buf.Write(make([]byte, 60-42))                                // reserved padding

	// Version 5 reserved fields (no CelAreaFields; that's v6 only).
	must(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))
	must(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))

	// No primer (has_audio == 0), no palette (has_palette == 0), no size
	// table entries (num_frames == 0): nothing to write for any of those.

	// Cue tables: 256 int32 times + 256 uint16 values, unconditional.
	buf.Write(make([]byte, numCueTimes*4+numCueValues*2))

	return buf.Bytes()
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
}

func TestExtractMinimalEmptyContainer(t *testing.T) {
	data := buildMinimalV5(t)
	src := bytes.NewReader(data)

	sink := &fakeSink{}
	h, err := Extract(src, &Options{Quiet: true}, sink)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if h.Version != 5 {
		t.Errorf("Version = %d, want 5", h.Version)
	}
	if h.NumFrames != 0 {
		t.Errorf("NumFrames = %d, want 0", h.NumFrames)
	}
	if h.HasAudio || h.HasPalette {
		t.Errorf("HasAudio/HasPalette = %v/%v, want false/false", h.HasAudio, h.HasPalette)
	}

	if sink.manifest == nil {
		t.Fatal("Manifest was never called")
	}
	if len(sink.manifest.Frames) != 0 {
		t.Errorf("manifest has %d frames, want 0", len(sink.manifest.Frames))
	}
	if sink.manifest.XRes != 320 || sink.manifest.YRes != 200 {
		t.Errorf("manifest resolution = %dx%d, want 320x200", sink.manifest.XRes, sink.manifest.YRes)
	}
	if sink.cels != 0 {
		t.Errorf("Cel was called %d times, want 0", sink.cels)
	}
	if len(sink.paletteRaw) != 0 {
		t.Errorf("PaletteRaw was called, want no calls for a paletteless container")
	}
	if len(sink.audio) != 0 {
		t.Errorf("Audio was called, want no calls when has_audio is false")
	}
}

func TestExtractRejectsConflictingEndianOverride(t *testing.T) {
	data := buildMinimalV5(t)
	src := bytes.NewReader(data)
	_, err := Extract(src, &Options{ForceBigEndian: true, ForceLittleEndian: true}, &fakeSink{})
	if err != ErrConflictingEndianOverride {
		t.Fatalf("err = %v, want ErrConflictingEndianOverride", err)
	}
}
