/*
NAME
  manifest.go

DESCRIPTION
  manifest.go defines the JSON manifest emitted alongside a Robot
  extraction's images and audio file.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

// ManifestCel is one cel's geometry within a manifest frame entry.
type ManifestCel struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// ManifestFrame is one frame's manifest entry.
type ManifestFrame struct {
	FrameIndex int           `json:"frame_index"`
	Cels       []ManifestCel `json:"cels"`

	PaletteRequired    bool `json:"palette_required,omitempty"`
	PaletteParseFailed bool `json:"palette_parse_failed,omitempty"`
	PaletteRaw         bool `json:"palette_raw,omitempty"`
}

// ManifestCue is one (time, value) pair, passed through from the
// container's cue tables verbatim.
type ManifestCue struct {
	Time  int32  `json:"time"`
	Value uint16 `json:"value"`
}

// Manifest is the top-level JSON document describing an extraction.
type Manifest struct {
	Version    int             `json:"version"`
	FrameRate  int             `json:"frame_rate"`
	XRes       int             `json:"x_res"`
	YRes       int             `json:"y_res"`
	HasAudio   bool            `json:"has_audio"`
	HasPalette bool            `json:"has_palette"`
	Cues       []ManifestCue   `json:"cues"`
	Frames     []ManifestFrame `json:"frames"`
}

// NewManifest builds the manifest skeleton from a parsed header; frame
// entries are appended by the orchestrator as each frame is decoded.
func NewManifest(h *Header) *Manifest {
	cues := make([]ManifestCue, len(h.Cues))
	for i, c := range h.Cues {
		cues[i] = ManifestCue{Time: c.Time, Value: c.Value}
	}
	return &Manifest{
		Version:    h.Version,
		FrameRate:  h.FrameRate,
		XRes:       h.XRes,
		YRes:       h.YRes,
		HasAudio:   h.HasAudio,
		HasPalette: h.HasPalette,
		Cues:       cues,
		Frames:     make([]ManifestFrame, 0, h.NumFrames),
	}
}
