/*
NAME
  header.go

DESCRIPTION
  header.go implements the Robot container's header, audio primer,
  palette blob, size/cue table, and record-position parsing (C6):
  endianness auto-detection, signature/tag validation, the fixed header
  fields, the audio primer (including synthesized zero-primers), the raw
  palette blob capture, the two frame-indexed size tables, the cue
  tables, and the deterministic (file_offset, swap) plausibility probe
  that disambiguates which size table is "packet sizes" versus "video
  sizes".

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	signatureValue = 0x16
	sectorSize     = 2048

	minVersion = 4
	maxVersion = 6

	maxAudioBlockSize     = 100_000_000
	maxPaletteSize        = 10_000_000
	maxPrimerReservedSize = 100_000_000

	zeroPrimerEvenSize = 19922
	zeroPrimerOddSize  = 21024

	// primerHeaderSize covers the primer's total-size, compression-type,
	// even-size, and odd-size fields.
	primerHeaderSize = 16

	probeFrameLimit  = 8
	probeReadSize    = 18
	maxCelsHardLimit = 10
)

var tagBytes = [4]byte{'S', 'O', 'L', 0}

// Cue is one (time, value) pair carried through from the container's cue
// tables into the output manifest verbatim.
type Cue struct {
	Time  int32
	Value uint16
}

// AudioPrimer holds the raw (still DPCM-compressed) pre-roll bytes for
// each channel, as read from the header or synthesized from the
// zero-compress flag.
type AudioPrimer struct {
	Valid bool
	Even  []byte
	Odd   []byte

	// ZeroCompressed marks primers synthesized from the header's
	// zero-compress flag; the reassembler stamps their samples so real
	// packet data may replace them without raising a conflict.
	ZeroCompressed bool
}

// Header is the fully parsed container header: fixed fields, primer,
// palette blob, size/cue tables, and resolved record positions.
type Header struct {
	Version int
	Order   binary.ByteOrder

	AudioBlockSize      uint32
	PrimerZeroCompress  bool
	NumFrames           int
	PaletteSize         uint32
	PrimerReservedSize  uint32
	XRes, YRes          int
	HasPalette          bool
	HasAudio            bool
	FrameRate           int
	HiRes               bool
	MaxSkippablePackets int
	MaxCelsPerFrame     int

	// CelAreaFields is populated only for version 6.
	CelAreaFields [4]uint32
	// Reserved is populated only for version 5 and 6.
	Reserved [2]uint32

	Primer      AudioPrimer
	PaletteBlob []byte

	VideoSizes  []uint32
	PacketSizes []uint32
	Cues        []Cue

	// FileOffset is the resolved sector-alignment origin: the caller's
	// container offset plus whichever probe candidate won (0 or 6).
	FileOffset int64

	RecordPositions []int64
}

// align rounds pos up to the next multiple of sectorSize relative to
// relativeTo; pos already on a boundary is left unchanged.
func align(pos, relativeTo int64) int64 {
	rel := pos - relativeTo
	if rel < 0 {
		rel = 0
	}
	aligned := ((rel + sectorSize - 1) / sectorSize) * sectorSize
	return relativeTo + aligned
}

// ParseHeader parses a full Robot container header, primer, palette
// blob, size/cue tables, and record positions from r, honouring opts.
func ParseHeader(r *Reader, opts *Options) (*Header, error) {
	bigEndian, err := detectEndian(r, opts)
	if err != nil {
		return nil, err
	}
	order := binary.ByteOrder(binary.LittleEndian)
	if bigEndian {
		order = binary.BigEndian
	}
	r.SetOrder(order)

	if err := r.Seek(opts.FileOffset); err != nil {
		return nil, err
	}
	if err := checkSignatureAndTag(r); err != nil {
		return nil, err
	}

	h := &Header{Order: order}
	if err := h.parseFixedFields(r, opts); err != nil {
		return nil, err
	}

	if err := h.parsePrimer(r, opts); err != nil {
		return nil, err
	}
	if err := h.parsePalette(r); err != nil {
		return nil, err
	}
	if err := h.parseSizeTables(r); err != nil {
		return nil, err
	}
	if err := h.parseCueTables(r); err != nil {
		return nil, err
	}
	if err := h.resolveTableOrderAndPositions(r, opts); err != nil {
		return nil, err
	}
	return h, nil
}

// detectEndian reads the 16-bit field at byte offset 6 (relative to the
// container's start) as big-endian; a plausible small version number
// (1..0xFF) implies big-endian, anything else implies little-endian. A
// caller override always wins.
func detectEndian(r *Reader, opts *Options) (bool, error) {
	if opts.ForceBigEndian {
		return true, nil
	}
	if opts.ForceLittleEndian {
		return false, nil
	}
	if err := r.Seek(opts.FileOffset + 6); err != nil {
		return false, err
	}
	b, err := r.Exact(2)
	if err != nil {
		return false, errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	v := binary.BigEndian.Uint16(b)
	return v >= 1 && v <= 0x00FF, nil
}

func checkSignatureAndTag(r *Reader) error {
	g := r.Guarded()
	sig := g.U16()
	tag := g.Exact(4)
	if err := g.Err(); err != nil {
		return errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	if sig != signatureValue {
		return errors.Wrapf(ErrBadSignature, "got 0x%x", sig)
	}
	if len(tag) != 4 || tag[0] != tagBytes[0] || tag[1] != tagBytes[1] || tag[2] != tagBytes[2] || tag[3] != tagBytes[3] {
		return errors.Wrapf(ErrBadTag, "got %v", tag)
	}
	return nil
}

// parseFixedFields reads the 60-byte fixed header (offsets 0-5 already
// consumed by checkSignatureAndTag) plus any version-gated extended
// fields.
func (h *Header) parseFixedFields(r *Reader, opts *Options) error {
	g := r.Guarded()
	version := g.U16()
	audioBlockSize := g.U32()
	zeroCompress := g.U16()
	numFrames := g.U32()
	paletteSize := g.U32()
	primerReserved := g.U32()
	xRes := g.U16()
	yRes := g.U16()
	hasPalette := g.U16()
	hasAudio := g.U16()
	frameRate := g.U16()
	hiRes := g.U16()
	maxSkippable := g.U16()
	maxCelsPerFrame := g.U16()
	_ = g.Exact(60 - 42) // reserved padding rounding out the fixed 60-byte header
	if err := g.Err(); err != nil {
		return errors.Wrap(ErrTruncatedHeader, err.Error())
	}

	if version < minVersion || version > maxVersion {
		return errors.Wrapf(ErrUnsupportedVersion, "got %d", version)
	}
	h.Version = int(version)

	if version >= 6 {
		g := r.Guarded()
		for i := range h.CelAreaFields {
			h.CelAreaFields[i] = g.U32()
		}
		if err := g.Err(); err != nil {
			return errors.Wrap(ErrTruncatedHeader, err.Error())
		}
	}
	if version >= 5 {
		g := r.Guarded()
		for i := range h.Reserved {
			h.Reserved[i] = g.U32()
		}
		if err := g.Err(); err != nil {
			return errors.Wrap(ErrTruncatedHeader, err.Error())
		}
	}

	if audioBlockSize > maxAudioBlockSize {
		return errors.Wrapf(ErrAllocationTooLarge, "audio block size %d", audioBlockSize)
	}
	if hasAudio != 0 && audioBlockSize < audioSubBlockHeaderSize {
		return errors.Wrapf(ErrBadAudioBlockSize, "got %d, need at least %d", audioBlockSize, audioSubBlockHeaderSize)
	}
	if paletteSize > maxPaletteSize {
		return errors.Wrapf(ErrAllocationTooLarge, "palette size %d", paletteSize)
	}
	if primerReserved > maxPrimerReservedSize {
		return errors.Wrapf(ErrAllocationTooLarge, "primer reserved size %d", primerReserved)
	}
	if int(xRes) > opts.MaxXRes || int(yRes) > opts.MaxYRes {
		return errors.Wrapf(ErrResolutionOutOfRange, "%dx%d", xRes, yRes)
	}

	if zeroCompress > 1 {
		opts.warn("non-standard primer_zero_compress value, treating as set", "got", zeroCompress)
	}

	h.AudioBlockSize = audioBlockSize
	h.PrimerZeroCompress = zeroCompress != 0
	h.NumFrames = int(numFrames)
	h.PaletteSize = paletteSize
	h.PrimerReservedSize = primerReserved
	h.XRes = int(xRes)
	h.YRes = int(yRes)
	h.HasPalette = hasPalette != 0
	h.HasAudio = hasAudio != 0
	h.HiRes = hiRes != 0
	h.MaxSkippablePackets = int(maxSkippable)

	h.FrameRate = int(frameRate)
	if h.FrameRate < 1 {
		opts.warn("frame_rate <= 0, clamping to 1", "got", frameRate)
		h.FrameRate = 1
	}

	h.MaxCelsPerFrame = int(maxCelsPerFrame)
	if h.MaxCelsPerFrame > maxCelsHardLimit {
		opts.warn("max_cels_per_frame exceeds hard cap, tracked maximum auto-expands", "got", maxCelsPerFrame, "hardCap", maxCelsHardLimit)
	}

	if h.NumFrames == 0 {
		opts.warn("num_frames is zero")
	}

	return nil
}

// parsePrimer implements spec step 4: read the primer header and raw
// channel bytes if present, synthesize a zero primer if the
// zero-compress flag says to, or mark the primer invalid and defer
// failure until audio is actually requested.
func (h *Header) parsePrimer(r *Reader, opts *Options) error {
	if !h.HasAudio {
		return nil
	}

	if h.PrimerReservedSize > 0 {
		primerStart, err := r.Pos()
		if err != nil {
			return err
		}
		g := r.Guarded()
		totalSize := g.U32()
		compressionType := g.U32()
		evenSize := g.U32()
		oddSize := g.U32()
		if err := g.Err(); err != nil {
			return errors.Wrap(ErrTruncatedPrimer, err.Error())
		}
		if compressionType != 0 {
			return errors.Wrapf(ErrBadCompressionType, "primer compression type %d", compressionType)
		}

		if totalSize == 0 {
			h.Primer = AudioPrimer{Valid: true}
			return r.Seek(primerStart + int64(h.PrimerReservedSize))
		}
		if expected := primerHeaderSize + int64(evenSize) + int64(oddSize); int64(totalSize) != expected {
			opts.warn("primer total size incoherent with channel sizes", "total", totalSize, "expected", expected)
		}

		even, err := readZeroPadded(r, int(evenSize), opts, "even")
		if err != nil {
			return err
		}
		odd, err := readZeroPadded(r, int(oddSize), opts, "odd")
		if err != nil {
			return err
		}
		h.Primer = AudioPrimer{Valid: true, Even: even, Odd: odd}

		target := primerStart + int64(h.PrimerReservedSize)
		cur, err := r.Pos()
		if err != nil {
			return err
		}
		if cur != target {
			if err := r.Seek(target); err != nil {
				return err
			}
		}
		return nil
	}

	if h.PrimerZeroCompress {
		h.Primer = AudioPrimer{
			Valid:          true,
			Even:           make([]byte, zeroPrimerEvenSize),
			Odd:            make([]byte, zeroPrimerOddSize),
			ZeroCompressed: true,
		}
		return nil
	}

	h.Primer = AudioPrimer{Valid: false}
	return nil
}

// readZeroPadded reads up to n bytes, zero-padding the remainder if the
// source runs out before n bytes are available, rather than failing.
func readZeroPadded(r *Reader, n int, opts *Options, channel string) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	got, err := r.ReadAvailable(n)
	if err != nil {
		return nil, err
	}
	if len(got) < n {
		opts.warn("primer channel payload shorter than declared, zero-padding remainder", "channel", channel, "want", n, "got", len(got))
	}
	out := make([]byte, n)
	copy(out, got)
	return out, nil
}

func (h *Header) parsePalette(r *Reader) error {
	if !h.HasPalette {
		return nil
	}
	b, err := r.Exact(int(h.PaletteSize))
	if err != nil {
		return errors.Wrap(ErrTruncatedPalette, err.Error())
	}
	h.PaletteBlob = b
	return nil
}

// parseSizeTables reads the two parallel, not-yet-disambiguated
// frame-indexed size arrays: u16 entries for version < 6, u32 for
// version 6.
func (h *Header) parseSizeTables(r *Reader) error {
	entryWidth := 2
	if h.Version >= 6 {
		entryWidth = 4
	}

	readTable := func() ([]uint32, error) {
		out := make([]uint32, h.NumFrames)
		g := r.Guarded()
		for i := range out {
			if entryWidth == 2 {
				out[i] = uint32(g.U16())
			} else {
				out[i] = g.U32()
			}
		}
		if err := g.Err(); err != nil {
			return nil, errors.Wrap(ErrTruncatedHeader, err.Error())
		}
		return out, nil
	}

	a, err := readTable()
	if err != nil {
		return err
	}
	b, err := readTable()
	if err != nil {
		return err
	}
	h.VideoSizes = a  // provisional; may be swapped by resolveTableOrderAndPositions
	h.PacketSizes = b // provisional
	return nil
}

const (
	numCueTimes  = 256
	numCueValues = 256
)

func (h *Header) parseCueTables(r *Reader) error {
	times := make([]int32, numCueTimes)
	g := r.Guarded()
	for i := range times {
		times[i] = g.I32()
	}
	values := make([]uint16, numCueValues)
	for i := range values {
		values[i] = g.U16()
	}
	if err := g.Err(); err != nil {
		return errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	cues := make([]Cue, numCueTimes)
	for i := range cues {
		cues[i] = Cue{Time: times[i], Value: values[i]}
	}
	h.Cues = cues
	return nil
}

// resolveTableOrderAndPositions implements spec step 8 and 9: probe
// each (fileOffset, swap) candidate's plausibility over up to 8 frames,
// pick the winner (ties broken by iteration order below), then compute
// every record position from the winning packet-size table.
func (h *Header) resolveTableOrderAndPositions(r *Reader, opts *Options) error {
	afterCues, err := r.Pos()
	if err != nil {
		return err
	}
	srcLen, err := r.Len()
	if err != nil {
		return err
	}

	type candidate struct {
		fileOffset int64
		swap       bool
	}
	// Each candidate's fileOffset is the sector-alignment origin it
	// would impose, relative to the caller's container offset. Order
	// matters: on equal plausibility scores, the first candidate in
	// this slice wins.
	candidates := []candidate{
		{0, false},
		{0, true},
		{6, false},
		{6, true},
	}

	bestScore := -1
	var bestCandidate candidate
	for _, c := range candidates {
		score := h.probeCandidate(r, afterCues, opts.FileOffset+c.fileOffset, c.swap, srcLen)
		if opts.DebugIndex {
			opts.debug("table disambiguation candidate probed", "fileOffset", c.fileOffset, "swap", c.swap, "score", score)
		}
		if score > bestScore {
			bestScore = score
			bestCandidate = c
		}
	}

	if bestCandidate.swap {
		h.VideoSizes, h.PacketSizes = h.PacketSizes, h.VideoSizes
	}
	h.FileOffset = opts.FileOffset + bestCandidate.fileOffset

	positions := make([]int64, h.NumFrames)
	for i := 0; i < h.NumFrames; i++ {
		if i == 0 {
			positions[i] = align(afterCues, h.FileOffset)
			continue
		}
		positions[i] = align(positions[i-1]+int64(h.PacketSizes[i-1]), h.FileOffset)
	}
	if h.NumFrames > 0 {
		last := positions[h.NumFrames-1] + int64(h.PacketSizes[h.NumFrames-1])
		if last > srcLen {
			return errors.Wrapf(ErrFrameSizeOverflow, "last record end %d exceeds source length %d", last, srcLen)
		}
	}
	h.RecordPositions = positions
	return nil
}

// probeCandidate scores a single (fileOffset, swap) combination by
// counting how many of the first probeFrameLimit frames look like
// plausible frame records at their predicted position.
func (h *Header) probeCandidate(r *Reader, afterCues, fileOffset int64, swap bool, srcLen int64) int {
	packetSizes := h.PacketSizes
	if swap {
		packetSizes = h.VideoSizes
	}

	n := h.NumFrames
	if n > probeFrameLimit {
		n = probeFrameLimit
	}

	score := 0
	pos := align(afterCues, fileOffset)
	for i := 0; i < n; i++ {
		if pos < 0 || pos+probeReadSize > srcLen {
			break
		}
		if err := r.Seek(pos); err != nil {
			break
		}
		buf, err := r.Exact(probeReadSize)
		if err != nil {
			break
		}
		if plausibleFrameProbe(buf, h.Order) {
			score++
		}
		if i+1 < len(packetSizes) {
			pos = align(pos+int64(packetSizes[i]), fileOffset)
		}
	}
	return score
}

// plausibleFrameProbe tests the two plausibility conditions from spec
// step 8 against the first probeReadSize bytes of a candidate frame
// record: a u16 cel count followed by the start of the first cel
// header (see frame.go's celHeaderWidthOff/celHeaderHeightOff).
func plausibleFrameProbe(buf []byte, order binary.ByteOrder) bool {
	if len(buf) < probeReadSize {
		return false
	}
	numCels := order.Uint16(buf[0:2])
	if numCels > maxCelsHardLimit {
		return false
	}
	celHeader := buf[2:]
	if len(celHeader) < celHeaderHeightOff+2 {
		return false
	}
	width := int(order.Uint16(celHeader[celHeaderWidthOff : celHeaderWidthOff+2]))
	height := int(order.Uint16(celHeader[celHeaderHeightOff : celHeaderHeightOff+2]))
	area := width * height
	return area > 0 && area <= maxCelPixelBudget
}
