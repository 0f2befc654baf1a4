/*
NAME
  options.go

DESCRIPTION
  options.go defines the flat configuration record accepted by the
  orchestrator, in the same shape as revid/config.Config: plain fields
  with doc comments, a Validate step that clamps out-of-range values and
  logs the default it fell back to, rather than a builder or an options
  bag of closures.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import "github.com/ausocean/utils/logging"

// Default resolution caps, per spec.
const (
	DefaultMaxXRes = 7680
	DefaultMaxYRes = 4320
)

// Options configures a single extraction run.
type Options struct {
	// Quiet suppresses warning-level logging; fatal errors are still
	// returned regardless of this flag.
	Quiet bool

	// ForceBigEndian and ForceLittleEndian override the header's
	// auto-detected endianness. Setting both is a configuration error.
	ForceBigEndian    bool
	ForceLittleEndian bool

	// DebugIndex enables verbose logging of every (file_offset, swap)
	// candidate considered while resolving table ordering, not just the
	// winner.
	DebugIndex bool

	// MaxXRes and MaxYRes cap the accepted header resolution; 0 means
	// "use the default".
	MaxXRes int
	MaxYRes int

	// ExtractAudio gates the audio reassembly path (C8). When false,
	// ParseHeader still reads the primer bytes into Header.Primer, but
	// they are never DPCM-decoded or reassembled.
	ExtractAudio bool

	// FileOffset is the byte at which the Robot resource begins within
	// its enclosing source; 0 for a standalone file. Sector alignment is
	// relative to this offset plus the 0 or 6 bytes chosen by the
	// table-order probe (see Header.FileOffset).
	FileOffset int64

	// Logger receives Warning/Debug/Info calls for every locally-recovered
	// condition. A nil Logger disables logging entirely.
	Logger logging.Logger
}

// Validate fills in defaults and clamps out-of-range fields, logging
// each clamp via LogInvalidField. It returns a non-nil error only for
// configuration errors that can't be resolved by clamping.
func (o *Options) Validate() error {
	if o.ForceBigEndian && o.ForceLittleEndian {
		return ErrConflictingEndianOverride
	}
	if o.MaxXRes <= 0 {
		o.LogInvalidField("MaxXRes", DefaultMaxXRes)
		o.MaxXRes = DefaultMaxXRes
	}
	if o.MaxYRes <= 0 {
		o.LogInvalidField("MaxYRes", DefaultMaxYRes)
		o.MaxYRes = DefaultMaxYRes
	}
	if o.FileOffset < 0 {
		o.LogInvalidField("FileOffset", 0)
		o.FileOffset = 0
	}
	return nil
}

// LogInvalidField logs that a field was bad or unset and has been
// defaulted, matching revid/config.Config's LogInvalidField convention.
func (o *Options) LogInvalidField(name string, def interface{}) {
	if o.Logger == nil || o.Quiet {
		return
	}
	o.Logger.Warning(name+" bad or unset, defaulting", name, def)
}

// warn logs a Warning through o.Logger unless Quiet is set, matching the
// "recovered locally" logging convention used throughout this package.
func (o *Options) warn(msg string, args ...interface{}) {
	if o.Logger == nil || o.Quiet {
		return
	}
	o.Logger.Warning(msg, args...)
}

// debug logs a Debug trace through o.Logger; used for the debug_index
// probe trace and similar diagnostics, independent of Quiet.
func (o *Options) debug(msg string, args ...interface{}) {
	if o.Logger == nil {
		return
	}
	o.Logger.Debug(msg, args...)
}
