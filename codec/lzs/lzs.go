/*
NAME
  lzs.go

DESCRIPTION
  lzs.go implements the Robot variant of Stac-LZS decompression: an
  MSB-first bitstream of literal bytes and back-references into a
  dictionary built from an optional history prefix plus all bytes
  produced so far.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

// Package lzs decodes the Robot container's LZS-family cel compression.
package lzs

import (
	"bytes"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// MaxOutputSize is the largest decompressed size Decode will accept.
const MaxOutputSize = 10_000_000

// MaxHistorySize is the largest history prefix that ever takes part in
// back-reference resolution; the Robot format's 11-bit offset field can
// never address further back than this.
const MaxHistorySize = 2047

var (
	// ErrTooLarge is returned when expectedSize exceeds MaxOutputSize.
	ErrTooLarge = errors.New("lzs: expected size too large")
	// ErrBadOffset is returned for a zero or out-of-range back-reference offset.
	ErrBadOffset = errors.New("lzs: invalid back-reference offset")
	// ErrBadLength is returned for a zero-length back-reference.
	ErrBadLength = errors.New("lzs: invalid back-reference length")
	// ErrOutputOverflow is returned when a literal or copy would exceed expectedSize.
	ErrOutputOverflow = errors.New("lzs: produced more than the expected size")
	// ErrTruncatedStream is returned when the bitstream runs out before expectedSize bytes are produced.
	ErrTruncatedStream = errors.New("lzs: truncated compressed stream")
)

// Decode decompresses in, which must encode exactly expectedSize bytes in
// the Robot LZS bitstream format, optionally continuing a dictionary
// seeded from history (the tail of up to MaxHistorySize bytes already
// decoded for the same cel). On success len(result) == expectedSize.
func Decode(in []byte, expectedSize int, history []byte) ([]byte, error) {
	if expectedSize > MaxOutputSize {
		return nil, errors.Wrapf(ErrTooLarge, "%d > %d", expectedSize, MaxOutputSize)
	}

	histTail := history
	if len(histTail) > MaxHistorySize {
		histTail = histTail[len(histTail)-MaxHistorySize:]
	}

	dict := make([]byte, 0, len(histTail)+expectedSize)
	dict = append(dict, histTail...)

	out := make([]byte, 0, expectedSize)
	br := bitio.NewReader(bytes.NewReader(in))

	eof := func(err error) error {
		return errors.Wrap(ErrTruncatedStream, err.Error())
	}

	literal := func(b byte) error {
		if len(out) >= expectedSize {
			return ErrOutputOverflow
		}
		dict = append(dict, b)
		out = append(out, b)
		return nil
	}

	copyMatch := func(offset, length int) error {
		if offset == 0 || offset > len(dict) {
			return ErrBadOffset
		}
		src := len(dict) - offset
		for i := 0; i < length; i++ {
			if src >= len(dict) {
				return ErrBadOffset
			}
			if err := literal(dict[src]); err != nil {
				return err
			}
			src++
		}
		return nil
	}

	readLength := func() (int, error) {
		v, err := br.ReadBits(2)
		if err != nil {
			return 0, eof(err)
		}
		switch v {
		case 0:
			return 2, nil
		case 1:
			return 3, nil
		case 2:
			return 4, nil
		}
		v, err = br.ReadBits(2)
		if err != nil {
			return 0, eof(err)
		}
		switch v {
		case 0:
			return 5, nil
		case 1:
			return 6, nil
		case 2:
			return 7, nil
		}
		length := 8
		for {
			nibble, err := br.ReadBits(4)
			if err != nil {
				return 0, eof(err)
			}
			length += int(nibble)
			if nibble != 0xF {
				break
			}
		}
		return length, nil
	}

	for len(out) < expectedSize {
		flag, err := br.ReadBits(1)
		if err != nil {
			return nil, eof(err)
		}
		if flag == 0 {
			b, err := br.ReadBits(8)
			if err != nil {
				return nil, eof(err)
			}
			if err := literal(byte(b)); err != nil {
				return nil, err
			}
			continue
		}

		shortOffset, err := br.ReadBits(1)
		if err != nil {
			return nil, eof(err)
		}
		width := 11
		if shortOffset != 0 {
			width = 7
		}
		rawOffset, err := br.ReadBits(uint8(width))
		if err != nil {
			return nil, eof(err)
		}
		if shortOffset != 0 && rawOffset == 0 {
			// End-of-stream sentinel.
			break
		}
		offset := int(rawOffset)
		if offset == 0 {
			return nil, ErrBadOffset
		}

		length, err := readLength()
		if err != nil {
			return nil, err
		}
		if length == 0 {
			return nil, ErrBadLength
		}
		if err := copyMatch(offset, length); err != nil {
			return nil, err
		}
	}

	if len(out) != expectedSize {
		return nil, errors.Wrapf(ErrTruncatedStream, "produced %d, expected %d", len(out), expectedSize)
	}
	return out, nil
}
