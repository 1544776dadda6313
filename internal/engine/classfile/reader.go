package classfile

import (
	"encoding/binary"
	"fmt"

	"archcheck/internal/core/errors"
)

// reader is a big-endian cursor over a byte slice. The first out-of-bounds
// read latches an error and every later read returns zero values.
type reader struct {
	data []byte
	pos  int
	err  error
	what string
}

func newReader(data []byte, what string) *reader {
	return &reader{data: data, what: what}
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	r.err = (&errors.DomainError{
		Code:    errors.CodeMalformedInput,
		Message: fmt.Sprintf(format, args...),
	}).WithContext("offset", r.pos).WithContext("section", r.what)
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail("truncated %s: need %d bytes, have %d", r.what, n, len(r.data)-r.pos)
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

// sub carves the next n bytes into an independent reader.
func (r *reader) sub(n int, what string) *reader {
	b := r.bytes(n)
	s := newReader(b, what)
	if r.err != nil {
		s.err = r.err
	}
	return s
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}
