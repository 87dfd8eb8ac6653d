// Package fragment provides sequential reading of scattered byte ranges of a random-access source, used to
// reassemble file content whose blocks are spread over a disk image.
package fragment

import (
	"io"
)

// Fragment is one contiguous byte range of the source.
type Fragment struct {
	Offset int64
	Length int64
}

// TotalLength returns the summed length of all fragments.
func TotalLength(fragments []Fragment) int64 {
	total := int64(0)
	for _, f := range fragments {
		total += f.Length
	}
	return total
}

// Coalesce merges adjacent fragments (where one ends exactly where the next begins) into single fragments,
// preserving order. Fragments that are not adjacent are left untouched.
func Coalesce(fragments []Fragment) []Fragment {
	if len(fragments) == 0 {
		return []Fragment{}
	}
	out := make([]Fragment, 0, len(fragments))
	current := fragments[0]
	for _, f := range fragments[1:] {
		if current.Offset+current.Length == f.Offset {
			current.Length += f.Length
			continue
		}
		out = append(out, current)
		current = f
	}
	return append(out, current)
}

// Reader reads the fragments of a source in order, presenting them as one contiguous stream.
type Reader struct {
	src       io.ReaderAt
	fragments []Fragment
	idx       int
	pos       int64
	remaining int64
}

// NewReader creates a Reader over src that yields the content of the given fragments back to back.
func NewReader(src io.ReaderAt, fragments []Fragment) *Reader {
	return &Reader{src: src, fragments: fragments, idx: -1}
}

func (r *Reader) Read(p []byte) (n int, err error) {
	if r.idx >= len(r.fragments) {
		return 0, io.EOF
	}

	if len(p) == 0 {
		return 0, nil
	}

	for r.remaining == 0 {
		r.idx++
		if r.idx >= len(r.fragments) {
			return 0, io.EOF
		}
		next := r.fragments[r.idx]
		r.pos = next.Offset
		r.remaining = next.Length
	}

	target := p
	if int64(len(p)) > r.remaining {
		target = p[:r.remaining]
	}

	n, err = r.src.ReadAt(target, r.pos)
	r.pos += int64(n)
	r.remaining -= int64(n)
	if err == io.EOF && n == len(target) {
		err = nil
	}
	return n, err
}
