/*
NAME
  dpcm16_test.go

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package dpcm16

import "testing"

// TestDecodePrimer checks the worked DPCM16 primer example: predictor
// seeded at 0, one sample produced per input byte.
func TestDecodePrimer(t *testing.T) {
	in := []byte{0x10, 0x32, 0x54, 0x76, 0x98, 0xBA, 0xDC, 0xFE, 0x13, 0x57, 0x9B, 0xDF}
	want := []int16{240, 888, 1808, 5136, 4768, 4056, 3072, -9216, -8928, -7984, -8400, -9408}

	got, predictor := Decode(in, 0)
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if predictor != -9408 {
		t.Errorf("final predictor: got %d, want -9408", predictor)
	}
}

// TestDecodeDeterministic checks that decoding the same bytes with the
// predictor seeded to 0 always produces the same sample sequence.
func TestDecodeDeterministic(t *testing.T) {
	in := []byte{0x01, 0x82, 0x7F, 0x00, 0xFF}
	a, pa := Decode(in, 0)
	b, pb := Decode(in, 0)
	if pa != pb {
		t.Fatalf("predictors differ: %d vs %d", pa, pb)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("sample %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

// TestSkipMatchesDecodePredictor checks that Skip reaches the same final
// predictor as Decode without building an output slice.
func TestSkipMatchesDecodePredictor(t *testing.T) {
	in := []byte{0x10, 0x32, 0x54, 0x76, 0x98, 0xBA, 0xDC, 0xFE}
	_, want := Decode(in, 0)
	got := Skip(in, 0)
	if got != want {
		t.Errorf("Skip predictor = %d, want %d", got, want)
	}
}

// TestBlockDropsRunway checks that Block discards exactly the first
// RunwayBytes decoded samples.
func TestBlockDropsRunway(t *testing.T) {
	runway := make([]byte, RunwayBytes)
	for i := range runway {
		runway[i] = byte(i + 1)
	}
	payload := []byte{0x10, 0x32, 0x54, 0x76}
	in := append(append([]byte{}, runway...), payload...)

	full, _ := Decode(in, 0)
	got := Block(in)
	want := full[RunwayBytes:]

	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

// TestBlockShorterThanRunway checks that a block with no usable samples
// beyond the runway returns nil rather than panicking.
func TestBlockShorterThanRunway(t *testing.T) {
	in := make([]byte, RunwayBytes)
	if got := Block(in); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

// TestWrapAround checks 16-bit wraparound (not saturation) on overflow.
func TestWrapAround(t *testing.T) {
	// stepTable[127] = 0x4000 = 16384; starting near the positive edge
	// and adding should wrap to a negative value rather than clamp.
	got := step(30000, 127)
	want := int16(int32(30000) + 0x4000 - 65536)
	if got != want {
		t.Errorf("step wraparound: got %d, want %d", got, want)
	}
}
