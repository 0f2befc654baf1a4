/*
NAME
  celexpand_test.go

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package celexpand

import (
	"bytes"
	"testing"
)

// TestExpandWorkedExample checks the worked vertical-scale example: a
// 3-wide, 4-tall cel stored at 50% height (2 source rows), each row one
// byte per pixel.
func TestExpandWorkedExample(t *testing.T) {
	source := []byte{1, 2, 3, 4, 5, 6}
	want := []byte{1, 2, 3, 1, 2, 3, 4, 5, 6, 4, 5, 6}

	dst := make([]byte, len(want))
	Expand(nil, dst, source, 3, 4, 50)

	if !bytes.Equal(dst, want) {
		t.Errorf("got %v, want %v", dst, want)
	}
}

// TestExpandFullScaleIsIdentity checks that a 100% scale cel copies rows
// through unchanged.
func TestExpandFullScaleIsIdentity(t *testing.T) {
	source := []byte{9, 8, 7, 6}
	dst := make([]byte, len(source))
	Expand(nil, dst, source, 2, 2, 100)
	if !bytes.Equal(dst, source) {
		t.Errorf("got %v, want %v", dst, source)
	}
}

// TestExpandShortSourceZeroFills checks that a source buffer shorter
// than the scale implies zero-fills the missing rows instead of
// panicking or reading out of bounds.
func TestExpandShortSourceZeroFills(t *testing.T) {
	source := []byte{1, 2} // only one row of width 2, but scale implies 2 rows
	dst := make([]byte, 2*4)
	Expand(nil, dst, source, 2, 4, 50)

	want := []byte{1, 2, 1, 2, 0, 0, 0, 0}
	if !bytes.Equal(dst, want) {
		t.Errorf("got %v, want %v", dst, want)
	}
}
