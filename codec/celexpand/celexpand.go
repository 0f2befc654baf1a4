/*
NAME
  celexpand.go

DESCRIPTION
  celexpand.go reverses Robot's vertical cel compression: a cel may be
  stored at less than full height (a percentage of celHeight) to save
  space, on the assumption that the player will stretch it back out by
  repeating source rows. Expand performs that row repetition.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

// Package celexpand reverses the Robot container's vertical cel scaling.
package celexpand

import "github.com/ausocean/utils/logging"

// SourceHeight returns the number of rows a cel of the given full height
// actually carries when stored at verticalScalePercent.
func SourceHeight(fullHeight, verticalScalePercent int) int {
	return (fullHeight * verticalScalePercent) / 100
}

// Expand repeats rows of source (rowWidth bytes per row, sourceHeight
// rows) into dst (rowWidth bytes per row, fullHeight rows). If
// verticalScalePercent is 100, rows are copied through verbatim.
// Otherwise rows are replicated with a Bresenham-style line doubler:
// walking source rows from bottom to top, each source row is drawn
// `remainder/sourceHeight` times after accumulating `fullHeight` into
// a running remainder, so the replication count tracks the true
// fractional scale instead of rounding every row the same way.
//
// If source is shorter than sourceHeight rows requires, the missing
// rows are zero-filled and a single warning is logged rather than one
// per row.
func Expand(l logging.Logger, dst, source []byte, rowWidth, fullHeight, verticalScalePercent int) {
	if rowWidth <= 0 || fullHeight <= 0 {
		return
	}
	if len(dst) < fullHeight*rowWidth {
		return
	}

	haveRows := len(source) / rowWidth

	if verticalScalePercent == 100 {
		if haveRows < fullHeight && l != nil {
			l.Warning("cel source shorter than full height, zero-filling", "haveRows", haveRows, "wantRows", fullHeight)
		}
		for i := 0; i < fullHeight; i++ {
			dstOff := i * rowWidth
			if i >= haveRows {
				for j := 0; j < rowWidth; j++ {
					dst[dstOff+j] = 0
				}
				continue
			}
			srcOff := i * rowWidth
			copy(dst[dstOff:dstOff+rowWidth], source[srcOff:srcOff+rowWidth])
		}
		return
	}

	sourceHeight := SourceHeight(fullHeight, verticalScalePercent)
	if sourceHeight <= 0 {
		return
	}
	if haveRows < sourceHeight && l != nil {
		l.Warning("cel source shorter than vertical scale implies, zero-filling", "haveRows", haveRows, "wantRows", sourceHeight)
	}

	destRow := fullHeight - 1
	remainder := 0
	for srcRow := sourceHeight - 1; srcRow >= 0 && destRow >= 0; srcRow-- {
		remainder += fullHeight
		linesToDraw := remainder / sourceHeight
		remainder %= sourceHeight

		for ; linesToDraw > 0 && destRow >= 0; linesToDraw-- {
			dstOff := destRow * rowWidth
			if srcRow >= haveRows {
				for j := 0; j < rowWidth; j++ {
					dst[dstOff+j] = 0
				}
			} else {
				srcOff := srcRow * rowWidth
				copy(dst[dstOff:dstOff+rowWidth], source[srcOff:srcOff+rowWidth])
			}
			destRow--
		}
	}
	for ; destRow >= 0; destRow-- {
		dstOff := destRow * rowWidth
		for j := 0; j < rowWidth; j++ {
			dst[dstOff+j] = 0
		}
	}
}
