/*
NAME
  byteio.go

DESCRIPTION
  byteio.go implements an endian-aware scalar reader over a seekable byte
  source. It is the only way the rest of this package touches the source:
  every multi-byte field in a Robot container is read through a Reader so
  that endianness is a property of the reader instance, not of a global.

LICENSE
  Copyright (C) 2026 the robotrbt authors. All rights reserved.
*/

package rbt

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// ErrShortRead is returned by Reader.Exact when the source yields fewer
// bytes than requested; the reader's position is restored to where it
// was before the read was attempted.
var ErrShortRead = errors.New("rbt: short read")

// Reader performs endian-aware scalar reads from a seekable byte source.
type Reader struct {
	src   io.ReadSeeker
	order binary.ByteOrder
}

// NewReader returns a Reader over src using order for multi-byte fields.
func NewReader(src io.ReadSeeker, order binary.ByteOrder) *Reader {
	return &Reader{src: src, order: order}
}

// Order returns the reader's configured byte order.
func (r *Reader) Order() binary.ByteOrder { return r.order }

// SetOrder reconfigures the reader's byte order for subsequent reads.
func (r *Reader) SetOrder(order binary.ByteOrder) { r.order = order }

// Pos returns the current offset into the source.
func (r *Reader) Pos() (int64, error) {
	return r.src.Seek(0, io.SeekCurrent)
}

// Seek moves the source to an absolute offset.
func (r *Reader) Seek(offset int64) error {
	_, err := r.src.Seek(offset, io.SeekStart)
	return err
}

// Len returns the total length of the source, restoring the current
// position afterwards.
func (r *Reader) Len() (int64, error) {
	cur, err := r.Pos()
	if err != nil {
		return 0, err
	}
	end, err := r.src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if err := r.Seek(cur); err != nil {
		return 0, err
	}
	return end, nil
}

// Exact reads exactly n bytes. On a short read it rewinds the source to
// the position it held before the call and returns ErrShortRead.
func (r *Reader) Exact(n int) ([]byte, error) {
	start, err := r.Pos()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(r.src, buf)
	if err != nil {
		if seekErr := r.Seek(start); seekErr != nil {
			return nil, errors.Wrapf(seekErr, "rewind after short read of %d (got %d)", n, read)
		}
		return nil, errors.Wrapf(ErrShortRead, "wanted %d, got %d", n, read)
	}
	return buf, nil
}

// ReadAvailable reads up to n bytes, returning however many the source
// actually had left (less than n only at true end-of-stream). Unlike
// Exact, it never rewinds: whatever was read stays consumed.
func (r *Reader) ReadAvailable(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(r.src, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

// U8 reads an unsigned 8-bit scalar.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Exact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads an unsigned 16-bit scalar using the reader's byte order.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Exact(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// U32 reads an unsigned 32-bit scalar using the reader's byte order.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Exact(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// I16 reads a signed 16-bit scalar using the reader's byte order.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// I32 reads a signed 32-bit scalar using the reader's byte order.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// Guarded returns a Guard over r: a scope wrapper whose read methods
// silently no-op once any call has failed, so a long run of field reads
// can be written as a flat sequence and checked once at the end via Err,
// instead of testing an error after every single field.
func (r *Reader) Guarded() *Guard {
	return &Guard{r: r}
}

// Guard accumulates the first error encountered across a sequence of
// reads against its underlying Reader.
type Guard struct {
	r   *Reader
	err error
}

// Err returns the first error encountered by this Guard, if any.
func (g *Guard) Err() error { return g.err }

// U8 reads a u8, or returns 0 if the guard has already failed.
func (g *Guard) U8() uint8 {
	if g.err != nil {
		return 0
	}
	v, err := g.r.U8()
	if err != nil {
		g.err = err
		return 0
	}
	return v
}

// U16 reads a u16, or returns 0 if the guard has already failed.
func (g *Guard) U16() uint16 {
	if g.err != nil {
		return 0
	}
	v, err := g.r.U16()
	if err != nil {
		g.err = err
		return 0
	}
	return v
}

// U32 reads a u32, or returns 0 if the guard has already failed.
func (g *Guard) U32() uint32 {
	if g.err != nil {
		return 0
	}
	v, err := g.r.U32()
	if err != nil {
		g.err = err
		return 0
	}
	return v
}

// I16 reads an i16, or returns 0 if the guard has already failed.
func (g *Guard) I16() int16 {
	if g.err != nil {
		return 0
	}
	v, err := g.r.I16()
	if err != nil {
		g.err = err
		return 0
	}
	return v
}

// I32 reads an i32, or returns 0 if the guard has already failed.
func (g *Guard) I32() int32 {
	if g.err != nil {
		return 0
	}
	v, err := g.r.I32()
	if err != nil {
		g.err = err
		return 0
	}
	return v
}

// Exact reads n bytes, or returns nil if the guard has already failed.
func (g *Guard) Exact(n int) []byte {
	if g.err != nil {
		return nil
	}
	b, err := g.r.Exact(n)
	if err != nil {
		g.err = err
		return nil
	}
	return b
}
