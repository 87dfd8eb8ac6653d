// Package binutil contains some helpful utilities for decoding binary structures from byte slices.
package binutil

import (
	"bytes"
	"encoding/binary"
)

// Duplicate creates a full copy of the input byte slice.
func Duplicate(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

// IsOnlyZeroes returns true when the input data is all bytes of zero value and false if any of the bytes has a
// nonzero value.
func IsOnlyZeroes(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// CString interprets data as a NUL-padded string, returning everything up to (but not including) the first zero
// byte, or the whole input when no zero byte is present.
func CString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}

// Reader helps to read little-endian data from a byte slice using an offset and a data length (instead of two
// offsets when using a slice expression). For example b[2:4] yields the same as Read(2, 2) using a Reader over b.
// Convenience methods decode fixed-width integers and pointer lists directly.
//
// Note that methods that return a []byte may not necessarily copy the data, so modifying the returned slice may
// also affect the data in the Reader.
//
// Methods will panic when any offset or length is outside of the bounds of the original data.
type Reader struct {
	data []byte
}

// NewReader creates a Reader over data. The data slice is stored directly, no copy is made, so modifying the
// original slice will also affect the returned Reader.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Length returns the length of the contained data.
func (r *Reader) Length() int {
	return len(r.data)
}

// Read reads an amount of bytes as specified by length from the provided offset. The returned slice's length is
// the same as the specified length.
func (r *Reader) Read(offset int, length int) []byte {
	return r.data[offset : offset+length]
}

// ReadFrom returns all data starting at the specified offset.
func (r *Reader) ReadFrom(offset int) []byte {
	return r.data[offset:]
}

// Byte returns the byte at the position indicated by the offset.
func (r *Reader) Byte(offset int) byte {
	return r.Read(offset, 1)[0]
}

// Uint16 reads 2 bytes from the provided offset and parses them into a uint16.
func (r *Reader) Uint16(offset int) uint16 {
	return binary.LittleEndian.Uint16(r.Read(offset, 2))
}

// Uint32 reads 4 bytes from the provided offset and parses them into a uint32.
func (r *Reader) Uint32(offset int) uint32 {
	return binary.LittleEndian.Uint32(r.Read(offset, 4))
}

// Uint64 reads 8 bytes from the provided offset and parses them into a uint64.
func (r *Reader) Uint64(offset int) uint64 {
	return binary.LittleEndian.Uint64(r.Read(offset, 8))
}

// Uint32s reads count consecutive little-endian uint32 values starting at the provided offset. This is the shape
// of every block pointer list in the supported on-disk structures.
func (r *Reader) Uint32s(offset int, count int) []uint32 {
	out := make([]uint32, count)
	for i := 0; i < count; i++ {
		out[i] = r.Uint32(offset + i*4)
	}
	return out
}
