/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the fatal error taxonomy for the Robot container
  reader. Every value here is returned (wrapped with context via
  github.com/pkg/errors) rather than panicked; the package never panics
  on malformed input.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import "github.com/pkg/errors"

// Fatal errors abort extraction outright.
var (
	ErrBadSignature              = errors.New("rbt: bad signature")
	ErrBadTag                    = errors.New("rbt: bad tag")
	ErrUnsupportedVersion        = errors.New("rbt: unsupported version")
	ErrResolutionOutOfRange      = errors.New("rbt: resolution out of range")
	ErrConflictingEndianOverride = errors.New("rbt: both force_big_endian and force_little_endian set")
	ErrTruncatedHeader           = errors.New("rbt: truncated header")
	ErrBadAudioBlockSize         = errors.New("rbt: audio block size out of range")
	ErrTruncatedPrimer           = errors.New("rbt: truncated audio primer")
	ErrTruncatedPalette          = errors.New("rbt: truncated palette blob")
	ErrBadCompressionType        = errors.New("rbt: unknown chunk compression type")
	ErrCelDimensionsInvalid      = errors.New("rbt: invalid cel dimensions")
	ErrCelPixelBudgetExceeded    = errors.New("rbt: cel pixel budget exceeded")
	ErrPrimerFlagsCorrupt        = errors.New("rbt: audio primer flags corrupt")
	ErrOversizedAudioBlock       = errors.New("rbt: audio block exceeds its frame record")
	ErrAllocationTooLarge        = errors.New("rbt: allocation exceeds implementation cap")
	ErrFrameSizeOverflow         = errors.New("rbt: frame size sums exceed available data")

	// ErrLzsBadOffset, ErrLzsBadLength, ErrLzsOutputOverflow, ErrLzsTruncated,
	// and ErrLzsTooLarge surface codec/lzs's sentinel errors under the
	// container's own error taxonomy once wrapped by the frame decoder.
	ErrLzsBadOffset      = errors.New("rbt: lzs bad back-reference offset")
	ErrLzsBadLength      = errors.New("rbt: lzs bad back-reference length")
	ErrLzsOutputOverflow = errors.New("rbt: lzs output overflow")
	ErrLzsTruncated      = errors.New("rbt: lzs truncated stream")
	ErrLzsTooLarge       = errors.New("rbt: lzs expected size too large")
)
