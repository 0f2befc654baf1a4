/*
NAME
  audio.go

DESCRIPTION
  audio.go implements the Robot container's audio reassembler (C8): the
  stateful object that owns the even and odd half-rate channel buffers,
  accepts the primer and every per-frame packet as they're decoded, and
  resolves position, parity, overlap, and conflict to produce a single
  interleaved mono PCM stream once the container has been fully walked.

  Per spec.md §9's re-architecture note, the two channels never
  reference each other directly; Reassembler owns two independent
  channel values and the only cross-channel step is the joint-origin
  alignment performed once, at Finalize.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

// Package audio implements the Robot container's dual-channel DPCM16
// audio reassembly engine.
package audio

import (
	"github.com/pkg/errors"

	"github.com/ausocean/robotrbt/codec/dpcm16"
	"github.com/ausocean/utils/logging"
)

// ErrAllocationTooLarge is returned when a channel would need to grow
// past MaxChannelSamples to accept a block.
var ErrAllocationTooLarge = errors.New("audio: channel growth exceeds implementation cap")

// MaxChannelSamples bounds how large a single channel's sample buffer
// may grow, per spec.md §5's "implementations should enforce an
// explicit upper bound and fail with AllocationTooLarge rather than
// OOM". 32 MiB samples (64 MiB of int16) is far beyond any real Robot
// file's frame count times its per-frame sample count.
const MaxChannelSamples = 32 << 20

// outcome reports what appending one block to a channel actually did,
// for logging at the call site.
type outcome int

const (
	outcomeWritten outcome = iota
	outcomeResend
	outcomeEmpty
	outcomeConflict
	outcomeParityMismatch
)

// channel holds one half-rate sub-channel's reassembly state (see
// spec.md §3 "Channel audio").
type channel struct {
	samples        []int16
	occupied       []bool
	zeroCompressed []bool

	startHalfPos     int64
	startInitialised bool

	// seenNonPrimerBlock marks that at least one per-frame packet (as
	// opposed to a primer) has reached this channel.
	seenNonPrimerBlock bool

	// predictor is the DPCM predictor value left over after the most
	// recently appended block's decode. It is purely informational
	// (spec.md §3): blocks never chain predictor state, so nothing in
	// this package reads it back.
	predictor     int16
	predictorSeen bool
}

// floorDiv2 divides a half-position delta by two, flooring toward
// negative infinity rather than truncating toward zero.
func floorDiv2(v int64) int64 {
	if v >= 0 {
		return v / 2
	}
	return (v - 1) / 2
}

// ensureLen grows the channel's parallel slices to at least n entries,
// zero/false-initialising the new tail.
func (c *channel) ensureLen(n int) error {
	if n <= len(c.samples) {
		return nil
	}
	if n > MaxChannelSamples {
		return errors.Wrapf(ErrAllocationTooLarge, "wanted %d samples", n)
	}
	grownSamples := make([]int16, n)
	copy(grownSamples, c.samples)
	c.samples = grownSamples

	grownOccupied := make([]bool, n)
	copy(grownOccupied, c.occupied)
	c.occupied = grownOccupied

	grownZC := make([]bool, n)
	copy(grownZC, c.zeroCompressed)
	c.zeroCompressed = grownZC
	return nil
}

// append integrates one block of already-DPCM-decoded samples at
// absolute half-position p into the channel, implementing spec.md
// §4.8.3 end to end. zcPrefix is how many leading samples of the block
// came from synthesized zeros (in this package, only a zero-compressed
// primer sets it; FeedPacket always passes 0); those slots are stamped
// so that later real data may replace them without raising a conflict.
//
// A block that precedes the channel's established origin never moves
// the origin: its leading samples are trimmed away instead, so that
// whatever remains lands at intra-channel sample 0 and is subjected to
// the usual overlap/conflict walk. A preceding block whose
// half-position delta is odd can never line up with this channel and
// is rejected outright.
func (c *channel) append(p int64, samples []int16, zcPrefix int) (outcome, error) {
	if len(samples) == 0 {
		return outcomeEmpty, nil
	}

	trim := 0
	if !c.startInitialised {
		if p < 0 {
			// A first block reaching back before the stream start: the
			// samples that would land at negative positions are dropped
			// and the origin is the first in-stream half-position.
			trim = int(-floorDiv2(p))
			if trim >= len(samples) {
				return outcomeEmpty, nil
			}
			p += 2 * int64(trim)
		}
		c.startHalfPos = p
		c.startInitialised = true
	} else if p < c.startHalfPos {
		delta := c.startHalfPos - p
		if delta%2 != 0 {
			return outcomeParityMismatch, nil
		}
		trim = int(delta / 2)
		if trim >= len(samples) {
			return outcomeEmpty, nil
		}
		p = c.startHalfPos
	}

	avail := samples[trim:]
	if zcPrefix > trim {
		zcPrefix -= trim
	} else {
		zcPrefix = 0
	}
	if zcPrefix > len(avail) {
		zcPrefix = len(avail)
	}

	startSample := int(floorDiv2(p - c.startHalfPos))
	required := startSample + len(avail)

	// Walk the overlap window from its leading edge. Slots already
	// holding identical data extend the leading overlap; a synthesized
	// zero that disagrees ends the walk so the real data can replace
	// it; real data that disagrees kills the whole block.
	leadingOverlap := 0
	for leadingOverlap < len(avail) {
		i := startSample + leadingOverlap
		if i >= len(c.occupied) || !c.occupied[i] {
			break
		}
		incoming := avail[leadingOverlap]
		if !c.zeroCompressed[i] {
			if c.samples[i] != incoming {
				return outcomeConflict, nil
			}
			leadingOverlap++
			continue
		}
		if c.samples[i] != incoming {
			break
		}
		leadingOverlap++
	}
	if leadingOverlap == len(avail) {
		return outcomeResend, nil
	}

	if err := c.ensureLen(required); err != nil {
		return outcomeEmpty, err
	}
	for k := leadingOverlap; k < len(avail); k++ {
		idx := startSample + k
		c.samples[idx] = avail[k]
		c.occupied[idx] = true
		c.zeroCompressed[idx] = k < zcPrefix
	}
	return outcomeWritten, nil
}

// dense resolves the channel's final sample stream: leading unoccupied
// samples become silence, interior gaps are linearly interpolated
// between their occupied neighbours, and a gap with no right-hand
// neighbour is filled with silence, per spec.md §4.8.4 step 1.
func (c *channel) dense() []int16 {
	n := len(c.samples)
	out := make([]int16, n)
	if n == 0 {
		return out
	}

	i := 0
	for i < n {
		if c.occupied[i] {
			out[i] = c.samples[i]
			i++
			continue
		}
		// Find the next occupied sample, if any.
		j := i
		for j < n && !c.occupied[j] {
			j++
		}
		if j >= n {
			// Trailing (or, for a channel with no occupied samples at
			// all, entirely) unoccupied tail: silence.
			for k := i; k < n; k++ {
				out[k] = 0
			}
			break
		}
		if i == 0 {
			// Leading gap: silence, per spec.
			for k := i; k < j; k++ {
				out[k] = 0
			}
		} else {
			a := int32(c.samples[i-1])
			b := int32(c.samples[j])
			gap := j - i
			for k := 0; k < gap; k++ {
				frac := float64(k+1) / float64(gap+1)
				v := a + int32(round(float64(b-a)*frac))
				out[i+k] = clampI16(v)
			}
		}
		i = j
	}
	return out
}

func round(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

func clampI16(v int32) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}

// Reassembler is the audio reassembly engine owning both channels.
type Reassembler struct {
	even, odd channel

	audioStartOffset            int64
	audioStartOffsetInitialised bool

	log   logging.Logger
	quiet bool
}

// New returns a Reassembler ready to accept a primer and per-frame
// packets. log may be nil to disable logging entirely.
func New(log logging.Logger, quiet bool) *Reassembler {
	return &Reassembler{log: log, quiet: quiet}
}

func (r *Reassembler) warn(msg string, args ...interface{}) {
	if r.log == nil || r.quiet {
		return
	}
	r.log.Warning(msg, args...)
}

func (r *Reassembler) debug(msg string, args ...interface{}) {
	if r.log == nil {
		return
	}
	r.log.Debug(msg, args...)
}

// FeedEvenPrimer integrates the even channel's pre-roll DPCM bytes,
// decoded as a complete block (runway stripped) and routed to
// half-position 0 in the even channel's own space, per spec.md §4.8.1.
// zeroCompressed marks a primer that was synthesized from the header's
// zero-compress flag rather than read from the container; its samples
// are stamped so later real packets may overwrite them silently.
func (r *Reassembler) FeedEvenPrimer(raw []byte, zeroCompressed bool) error {
	return r.feedPrimer(&r.even, raw, zeroCompressed)
}

// FeedOddPrimer is FeedEvenPrimer's odd-channel counterpart.
func (r *Reassembler) FeedOddPrimer(raw []byte, zeroCompressed bool) error {
	return r.feedPrimer(&r.odd, raw, zeroCompressed)
}

func (r *Reassembler) feedPrimer(c *channel, raw []byte, zeroCompressed bool) error {
	if len(raw) == 0 {
		return nil
	}
	samples, predictor := decodeBlock(raw)
	zcPrefix := 0
	if zeroCompressed {
		zcPrefix = len(samples)
	}
	outcome, err := c.append(0, samples, zcPrefix)
	if err != nil {
		return err
	}
	if outcome == outcomeWritten {
		c.predictor, c.predictorSeen = predictor, true
	}
	r.logOutcome(outcome, 0)
	return nil
}

// decodeBlock decodes a full audio block (predictor seeded to 0,
// runway stripped) and also reports the final predictor value left
// over, for channel.predictor's informational bookkeeping.
func decodeBlock(block []byte) ([]int16, int16) {
	full, predictor := dpcm16.Decode(block, 0)
	if len(full) <= dpcm16.RunwayBytes {
		return nil, predictor
	}
	return full[dpcm16.RunwayBytes:], predictor
}

// floorMultipleOf4 rounds v down to the nearest multiple of 4, correctly
// for negative v (Euclidean floor, not truncation toward zero).
func floorMultipleOf4(v int64) int64 {
	m := v % 4
	if m < 0 {
		m += 4
	}
	return v - m
}

// FeedPacket integrates one per-frame audio sub-block at absolute
// half-position p with the given (still DPCM-compressed) payload, per
// spec.md §4.8.1-§4.8.3.
func (r *Reassembler) FeedPacket(p int32, payload []byte) error {
	position := int64(p)

	block := payload
	if len(payload) < dpcm16.RunwayBytes {
		prefixLen := dpcm16.RunwayBytes - len(payload)
		r.debug("audio packet shorter than runway, synthesizing zero prefix", "position", position, "payloadLen", len(payload), "prefixLen", prefixLen)
		block = make([]byte, prefixLen+len(payload))
		copy(block[prefixLen:], payload)
	}
	samples, predictor := decodeBlock(block)
	if len(samples) == 0 {
		r.debug("audio packet produced no samples beyond its runway", "position", position)
		return nil
	}

	if !r.audioStartOffsetInitialised {
		r.audioStartOffset = floorMultipleOf4(position)
		r.audioStartOffsetInitialised = true
	}
	rel := position - r.audioStartOffset
	relParity := rel % 2
	if relParity < 0 {
		relParity += 2
	}

	c := &r.even
	if relParity != 0 {
		c = &r.odd
	}

	outcome, err := c.append(position, samples, 0)
	if err != nil {
		return err
	}
	if outcome == outcomeWritten {
		c.predictor, c.predictorSeen = predictor, true
		c.seenNonPrimerBlock = true
	}
	r.logOutcome(outcome, position)
	return nil
}

func (r *Reassembler) logOutcome(o outcome, position int64) {
	switch o {
	case outcomeConflict:
		r.warn("audio block conflicts with already-written samples, dropping", "position", position)
	case outcomeParityMismatch:
		r.warn("audio block parity contradicts its channel, dropping", "position", position)
	case outcomeResend, outcomeEmpty, outcomeWritten:
		// Nothing worth a warning; Resend is an expected idempotent
		// no-op and Empty/Written are the ordinary path.
	}
}

// Finalize resolves both channels to their dense streams, aligns them
// to a shared timeline origin, and interleaves them into the final
// mono PCM stream, per spec.md §4.8.4. It returns an empty slice if
// neither channel ever received a block.
func (r *Reassembler) Finalize() []int16 {
	if !r.even.startInitialised && !r.odd.startInitialised {
		return nil
	}

	evenDense := r.even.dense()
	oddDense := r.odd.dense()

	var jointMin int64
	switch {
	case r.even.startInitialised && r.odd.startInitialised:
		jointMin = r.even.startHalfPos
		if r.odd.startHalfPos < jointMin {
			jointMin = r.odd.startHalfPos
		}
	case r.even.startInitialised:
		jointMin = r.even.startHalfPos
	default:
		jointMin = r.odd.startHalfPos
	}

	prefixFor := func(initialised bool, start int64, isEven bool) int {
		if !initialised {
			return 0
		}
		adj := int64(0)
		if isEven && jointMin%2 != 0 {
			adj = 1
		}
		return int((start - jointMin + adj) / 2)
	}

	evenPrefix := prefixFor(r.even.startInitialised, r.even.startHalfPos, true)
	oddPrefix := prefixFor(r.odd.startInitialised, r.odd.startHalfPos, false)

	evenOut := prependZeros(evenDense, evenPrefix)
	oddOut := prependZeros(oddDense, oddPrefix)

	n := len(evenOut)
	if len(oddOut) > n {
		n = len(oddOut)
	}
	evenOut = padTo(evenOut, n)
	oddOut = padTo(oddOut, n)

	out := make([]int16, 2*n)
	for i := 0; i < n; i++ {
		out[2*i] = evenOut[i]
		out[2*i+1] = oddOut[i]
	}
	return out
}

func prependZeros(s []int16, n int) []int16 {
	if n <= 0 {
		return s
	}
	out := make([]int16, n+len(s))
	copy(out[n:], s)
	return out
}

func padTo(s []int16, n int) []int16 {
	if len(s) >= n {
		return s
	}
	out := make([]int16, n)
	copy(out, s)
	return out
}
