/*
NAME
  hunkpalette.go

DESCRIPTION
  hunkpalette.go parses the SCI "HunkPalette" blob embedded in a Robot
  container's optional palette section into a sparse 256-entry RGB
  palette plus a remap tail. Malformed input never panics or returns an
  error here — it reports Valid=false so the frame decoder can fall back
  to a raw palette dump, per the container format's established failure
  policy.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

// Package hunkpalette parses SCI HunkPalette blobs.
package hunkpalette

import "encoding/binary"

const (
	hunkHeaderSize  = 13
	paletteCountOff = 10
	entryHeaderSize = 22
	maxRemapTail    = 1200
	numPaletteSlots = 256
)

// Entry is one slot of a parsed palette.
type Entry struct {
	Present bool
	Used    bool
	R, G, B uint8
}

// Palette is the result of parsing a HunkPalette blob.
type Palette struct {
	Valid bool

	Entries [numPaletteSlots]Entry

	// RemapTail holds any trailing bytes after the last palette entry,
	// up to maxRemapTail bytes.
	RemapTail []byte

	// Summary fields, populated only when Valid.
	FirstStartColor int
	ColorCount      int
	SharedUsed      bool
	DefaultUsed     bool
	FormatVersion   int
}

// paletteEntryHeader describes one HunkPalette sub-palette, after
// endianness normalisation.
type paletteEntryHeader struct {
	startColor int
	numColors  int
	used       bool
	sharedUsed bool
	version    int
}

// Parse parses a HunkPalette blob. It never returns an error: a blob too
// short for its hunk header or offset table yields a Palette with Valid
// set to false. Sub-palettes whose 22-byte header lies outside the blob
// are skipped, and color counts are clamped to the bytes present; in
// both cases Valid stays true.
func Parse(blob []byte) Palette {
	var pal Palette
	if len(blob) == 0 {
		pal.Valid = true
		return pal
	}
	if len(blob) < hunkHeaderSize {
		return pal
	}

	numPalettes := int(blob[paletteCountOff])
	if numPalettes == 0 {
		pal.Valid = true
		pal.RemapTail = remapTail(blob, hunkHeaderSize)
		return pal
	}

	offsetTableStart := hunkHeaderSize
	offsetTableEnd := offsetTableStart + 2*numPalettes
	if offsetTableEnd > len(blob) {
		return pal
	}

	bigEndian := scoreEndianness(blob, offsetTableStart, numPalettes, offsetTableEnd)
	order := binary.ByteOrder(binary.LittleEndian)
	if bigEndian {
		order = binary.BigEndian
	}

	offsets := make([]int, numPalettes)
	for i := 0; i < numPalettes; i++ {
		offsets[i] = int(order.Uint16(blob[offsetTableStart+2*i:]))
	}
	sortInts(offsets)

	lastEntryEnd := offsetTableEnd
	firstEntry := true
	maxEnd := 0
	for _, off := range offsets {
		hdr, ok := parseEntryHeader(blob, off, order)
		if !ok {
			continue
		}
		entryDataStart := off + entryHeaderSize
		stride := 3
		if !hdr.sharedUsed {
			stride = 4
		}

		maxByCapacity := numPaletteSlots - hdr.startColor
		if maxByCapacity < 0 {
			maxByCapacity = 0
		}
		maxByExtent := 0
		if entryDataStart <= len(blob) {
			maxByExtent = (len(blob) - entryDataStart) / stride
		}
		n := hdr.numColors
		if n > maxByCapacity {
			n = maxByCapacity
		}
		if n > maxByExtent {
			n = maxByExtent
		}

		for c := 0; c < n; c++ {
			src := entryDataStart + c*stride
			slot := hdr.startColor + c
			if slot < 0 || slot >= numPaletteSlots {
				continue
			}
			e := Entry{Present: true}
			if hdr.sharedUsed {
				e.Used = hdr.used
				e.R, e.G, e.B = blob[src], blob[src+1], blob[src+2]
			} else {
				e.Used = blob[src] != 0
				e.R, e.G, e.B = blob[src+1], blob[src+2], blob[src+3]
			}
			pal.Entries[slot] = e
		}

		if end := entryDataStart + n*stride; end > lastEntryEnd {
			lastEntryEnd = end
		}
		if n == 0 {
			continue
		}

		endColor := hdr.startColor + n
		if firstEntry {
			pal.FirstStartColor = hdr.startColor
			pal.ColorCount = n
			pal.SharedUsed = hdr.sharedUsed
			pal.DefaultUsed = hdr.used
			pal.FormatVersion = hdr.version
			firstEntry = false
			maxEnd = endColor
		} else {
			if hdr.startColor < pal.FirstStartColor {
				pal.FirstStartColor = hdr.startColor
			}
			if endColor > maxEnd {
				maxEnd = endColor
			}
			pal.ColorCount = maxEnd - pal.FirstStartColor
			pal.SharedUsed = pal.SharedUsed && hdr.sharedUsed
		}
	}

	pal.Valid = true
	pal.RemapTail = remapTail(blob, lastEntryEnd)
	return pal
}

// parseEntryHeader reads the 22-byte sub-palette header at off.
func parseEntryHeader(blob []byte, off int, order binary.ByteOrder) (paletteEntryHeader, bool) {
	if off < 0 || off+entryHeaderSize > len(blob) {
		return paletteEntryHeader{}, false
	}
	h := blob[off : off+entryHeaderSize]
	return paletteEntryHeader{
		startColor: int(h[10]),
		numColors:  int(order.Uint16(h[14:16])),
		used:       h[16] != 0,
		sharedUsed: h[17] != 0,
		version:    int(order.Uint32(h[18:22])),
	}, true
}

// scoreEndianness picks LE or BE for the offset table by the fraction of
// offsets that land within [tableEnd, blobEnd] under each interpretation.
func scoreEndianness(blob []byte, tableStart, count, tableEnd int) bool {
	scoreFor := func(order binary.ByteOrder) int {
		score := 0
		for i := 0; i < count; i++ {
			v := int(order.Uint16(blob[tableStart+2*i:]))
			if v >= tableEnd && v <= len(blob) {
				score++
			}
		}
		return score
	}
	le := scoreFor(binary.LittleEndian)
	be := scoreFor(binary.BigEndian)
	return be > le
}

// remapTail returns up to maxRemapTail trailing bytes starting at from.
func remapTail(blob []byte, from int) []byte {
	if from < 0 || from >= len(blob) {
		return nil
	}
	tail := blob[from:]
	if len(tail) > maxRemapTail {
		tail = tail[:maxRemapTail]
	}
	out := make([]byte, len(tail))
	copy(out, tail)
	return out
}

// sortInts is a tiny insertion sort; HunkPalette sub-palette counts are
// always small (almost always 1), so this avoids pulling in sort for a
// handful of elements.
func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
