/*
NAME
  dpcm16.go

DESCRIPTION
  dpcm16.go implements the Robot variant of 16-bit differential PCM:
  one predictor-update per input byte, driven by a 128-entry signed
  step table, with 16-bit wraparound (not saturating) arithmetic.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

// Package dpcm16 decodes the Robot container's DPCM16 audio encoding.
package dpcm16

// RunwayBytes is the number of bytes at the start of every audio block
// (primer or per-frame packet) that exist only to re-establish the
// predictor state; the samples they produce are never emitted.
const RunwayBytes = 8

// stepTable maps a 7-bit magnitude to the signed delta applied to the
// running predictor.
var stepTable = [128]int16{
	0x0000, 0x0008, 0x0010, 0x0020, 0x0030, 0x0040, 0x0050, 0x0060,
	0x0070, 0x0080, 0x0090, 0x00A0, 0x00B0, 0x00C0, 0x00D0, 0x00E0,
	0x00F0, 0x0100, 0x0110, 0x0120, 0x0130, 0x0140, 0x0150, 0x0160,
	0x0170, 0x0180, 0x0190, 0x01A0, 0x01B0, 0x01C0, 0x01D0, 0x01E0,
	0x01F0, 0x0200, 0x0208, 0x0210, 0x0218, 0x0220, 0x0228, 0x0230,
	0x0238, 0x0240, 0x0248, 0x0250, 0x0258, 0x0260, 0x0268, 0x0270,
	0x0278, 0x0280, 0x0288, 0x0290, 0x0298, 0x02A0, 0x02A8, 0x02B0,
	0x02B8, 0x02C0, 0x02C8, 0x02D0, 0x02D8, 0x02E0, 0x02E8, 0x02F0,
	0x02F8, 0x0300, 0x0308, 0x0310, 0x0318, 0x0320, 0x0328, 0x0330,
	0x0338, 0x0340, 0x0348, 0x0350, 0x0358, 0x0360, 0x0368, 0x0370,
	0x0378, 0x0380, 0x0388, 0x0390, 0x0398, 0x03A0, 0x03A8, 0x03B0,
	0x03B8, 0x03C0, 0x03C8, 0x03D0, 0x03D8, 0x03E0, 0x03E8, 0x03F0,
	0x03F8, 0x0400, 0x0440, 0x0480, 0x04C0, 0x0500, 0x0540, 0x0580,
	0x05C0, 0x0600, 0x0640, 0x0680, 0x06C0, 0x0700, 0x0740, 0x0780,
	0x07C0, 0x0800, 0x0900, 0x0A00, 0x0B00, 0x0C00, 0x0D00, 0x0E00,
	0x0F00, 0x1000, 0x1400, 0x1800, 0x1C00, 0x2000, 0x3000, 0x4000,
}

// step applies one control byte to predictor, returning the updated
// predictor value after 16-bit wraparound.
func step(predictor int16, control byte) int16 {
	v := int32(predictor)
	delta := int32(stepTable[control&0x7F])
	if control&0x80 != 0 {
		v -= delta
	} else {
		v += delta
	}
	switch {
	case v > 32767:
		v -= 65536
	case v < -32768:
		v += 65536
	}
	return int16(v)
}

// Decode decodes in, one sample per input byte, starting from predictor.
// It returns the decoded samples and the predictor value after the last
// byte, which callers may inspect but never need to chain into a later
// call: every block reseeds the predictor to 0 (see Block).
func Decode(in []byte, predictor int16) ([]int16, int16) {
	out := make([]int16, len(in))
	for i, b := range in {
		predictor = step(predictor, b)
		out[i] = predictor
	}
	return out, predictor
}

// Skip advances predictor through in without allocating an output buffer;
// used to consume a runway prefix whose samples are discarded anyway.
func Skip(in []byte, predictor int16) int16 {
	for _, b := range in {
		predictor = step(predictor, b)
	}
	return predictor
}

// Block decodes a full audio block (primer or per-frame packet) with the
// predictor seeded to 0, as every Robot DPCM16 block does — blocks never
// chain predictor state across block boundaries. The first RunwayBytes
// decoded samples (the "runway") are dropped; only the samples beyond
// them are returned.
func Block(in []byte) []int16 {
	samples, _ := Decode(in, 0)
	if len(samples) <= RunwayBytes {
		return nil
	}
	return samples[RunwayBytes:]
}
