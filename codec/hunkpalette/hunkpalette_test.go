/*
NAME
  hunkpalette_test.go

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package hunkpalette

import "testing"

// TestParseWorkedExample checks the worked HunkPalette example: one
// sub-palette, start_color=3, num_colors=2, shared_used=0, with per-color
// used flags (used=1,10,20,30) and (used=0,40,50,60).
func TestParseWorkedExample(t *testing.T) {
	blob := make([]byte, 45)
	blob[paletteCountOff] = 1 // numPalettes = 1

	// offset table: one little-endian uint16 pointing at the entry header.
	blob[13] = 15
	blob[14] = 0

	// 22-byte entry header at offset 15.
	const entryOff = 15
	blob[entryOff+10] = 3 // start color
	blob[entryOff+14] = 2 // num colors (LE)
	blob[entryOff+15] = 0
	blob[entryOff+16] = 0 // default used
	blob[entryOff+17] = 0 // shared_used = false -> 4 bytes/entry
	blob[entryOff+18] = 1 // format version (LE u32)

	data := entryOff + entryHeaderSize
	blob[data+0], blob[data+1], blob[data+2], blob[data+3] = 1, 10, 20, 30
	blob[data+4], blob[data+5], blob[data+6], blob[data+7] = 0, 40, 50, 60

	pal := Parse(blob)
	if !pal.Valid {
		t.Fatal("expected Valid palette")
	}
	if pal.FirstStartColor != 3 || pal.ColorCount != 2 {
		t.Errorf("got startColor=%d colorCount=%d, want 3,2", pal.FirstStartColor, pal.ColorCount)
	}
	if pal.SharedUsed {
		t.Error("expected SharedUsed=false")
	}
	if pal.FormatVersion != 1 {
		t.Errorf("FormatVersion = %d, want 1", pal.FormatVersion)
	}

	e0 := pal.Entries[3]
	if !e0.Present || !e0.Used || e0.R != 10 || e0.G != 20 || e0.B != 30 {
		t.Errorf("slot 3: got %+v", e0)
	}
	e1 := pal.Entries[4]
	if !e1.Present || e1.Used || e1.R != 40 || e1.G != 50 || e1.B != 60 {
		t.Errorf("slot 4: got %+v", e1)
	}
	if pal.Entries[0].Present {
		t.Error("slot 0 should be untouched")
	}
	if len(pal.RemapTail) != 0 {
		t.Errorf("got remap tail %v, want none", pal.RemapTail)
	}
}

// TestParseEmptyPaletteCount checks a HunkPalette with zero sub-palettes.
func TestParseEmptyPaletteCount(t *testing.T) {
	blob := make([]byte, 20)
	pal := Parse(blob)
	if !pal.Valid {
		t.Fatal("expected Valid palette")
	}
	for i, e := range pal.Entries {
		if e.Present {
			t.Fatalf("slot %d unexpectedly present", i)
		}
	}
}

// TestParseClampsOutOfRangeCount checks that a sub-palette whose
// start_color+num_colors would exceed 256 slots is clamped rather than
// overflowing the Entries array.
func TestParseClampsOutOfRangeCount(t *testing.T) {
	blob := make([]byte, 45)
	blob[paletteCountOff] = 1
	blob[13], blob[14] = 15, 0

	const entryOff = 15
	blob[entryOff+10] = 255 // start color near the top of the range
	blob[entryOff+14] = 10  // num colors (LE) -- would overflow past slot 256
	blob[entryOff+15] = 0
	blob[entryOff+17] = 1 // shared_used = true -> 3 bytes/entry, no used byte

	data := entryOff + entryHeaderSize
	blob = append(blob, make([]byte, 3*10)...)
	blob[data], blob[data+1], blob[data+2] = 100, 110, 120

	pal := Parse(blob)
	if !pal.Valid {
		t.Fatal("expected Valid palette")
	}
	if pal.ColorCount > 1 {
		t.Errorf("got colorCount=%d, want clamp to 1 (start 255, 256 slots)", pal.ColorCount)
	}
	e := pal.Entries[255]
	if !e.Present || e.R != 100 || e.G != 110 || e.B != 120 {
		t.Errorf("slot 255: got %+v", e)
	}
}

// TestParseTruncatedNeverErrors checks that malformed/truncated input
// reports Valid=false instead of panicking or returning an error, while
// an empty blob counts as a valid empty palette.
func TestParseTruncatedNeverErrors(t *testing.T) {
	if pal := Parse(nil); !pal.Valid {
		t.Error("empty blob: want valid empty palette")
	}
	for i, blob := range [][]byte{
		{0x01, 0x02},
		make([]byte, hunkHeaderSize-1),
	} {
		if pal := Parse(blob); pal.Valid {
			t.Errorf("case %d: expected invalid for short blob", i)
		}
	}

	short := make([]byte, hunkHeaderSize)
	short[paletteCountOff] = 5
	if pal := Parse(short); pal.Valid {
		t.Error("expected invalid palette for truncated offset table")
	}
}

// TestParseRemapTail checks that with no sub-palettes everything after
// the 13-byte hunk header is captured as the remap tail (a short tail,
// well under the maxRemapTail cap).
func TestParseRemapTail(t *testing.T) {
	blob := make([]byte, hunkHeaderSize)
	blob[paletteCountOff] = 0
	extra := []byte{1, 2, 3, 4, 5}
	blob = append(blob, extra...)

	pal := Parse(blob)
	if !pal.Valid {
		t.Fatal("expected Valid palette")
	}
	if len(pal.RemapTail) != len(extra) {
		t.Fatalf("got remap tail len %d, want %d", len(pal.RemapTail), len(extra))
	}
	for i, b := range extra {
		if pal.RemapTail[i] != b {
			t.Errorf("remap tail[%d] = %d, want %d", i, pal.RemapTail[i], b)
		}
	}
}
