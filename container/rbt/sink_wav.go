/*
NAME
  sink_wav.go

DESCRIPTION
  sink_wav.go implements DirSink.Audio: the finalized interleaved mono
  16-bit PCM stream is carried as a go-audio/audio.IntBuffer and
  written out with go-audio/wav's Encoder, the same pairing
  exp/flac/decode.go already uses to turn decoded samples into a WAV
  file (there, FLAC frames; here, the reassembled Robot audio).

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// SampleRate is the fixed output rate of a Robot container's
// reassembled audio stream, per spec.md §6.
const SampleRate = 22050

const (
	wavBitDepth = 16
	wavChannels = 1
	wavFormat   = 1 // PCM
)

// Audio writes samples as a 16-bit mono 22050 Hz WAV file, audio.wav.
// It is a no-op if samples is empty (no audio extracted or present).
func (s *DirSink) Audio(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	path := filepath.Join(s.Dir, "audio.wav")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "rbt: creating %q", path)
	}

	enc := wav.NewEncoder(f, SampleRate, wavBitDepth, wavChannels, wavFormat)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: wavChannels, SampleRate: SampleRate},
		SourceBitDepth: wavBitDepth,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return errors.Wrapf(err, "rbt: writing %q", path)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return errors.Wrapf(err, "rbt: closing wav encoder for %q", path)
	}
	return f.Close()
}
