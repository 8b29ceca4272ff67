package fast

import (
	"encoding/binary"
	"errors"
)

// buffer.go provides a lightweight, non-thread-safe wrapper around byte slices
// for the fixed-width account layouts.
//
// The Writer only appends. The Reader advances a cursor and panics with
// ErrShortBuffer when asked for more bytes than remain; decoders are expected
// to recover that panic at their boundary and report malformed input.

// ErrShortBuffer is the panic value raised by Reader on overrun.
var ErrShortBuffer = errors.New("fast: read past end of buffer")

type Reader struct {
	buf    []byte
	offset int
}

type Writer struct {
	buf []byte
}

// NewReader creates a Reader to consume the provided byte slice.
func NewReader(bb []byte) *Reader {
	return &Reader{
		buf:    bb,
		offset: 0,
	}
}

// NewWriter creates a Writer that appends to the provided initial slice.
// Often called with `make([]byte, 0, capacity)` to pre-allocate memory.
func NewWriter(bb []byte) *Writer {
	return &Writer{
		buf: bb,
	}
}

// WriteByte appends a single byte to the buffer.
func (b *Writer) WriteByte(v byte) {
	b.buf = append(b.buf, v)
}

// Write appends a slice of bytes to the buffer.
func (b *Writer) Write(v []byte) {
	b.buf = append(b.buf, v...)
}

// U32 appends v in little-endian order.
func (b *Writer) U32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// U64 appends v in little-endian order.
func (b *Writer) U64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// Read consumes and returns the next n bytes from the buffer.
// The result shares memory with the underlying buffer.
func (b *Reader) Read(n int) []byte {
	if n < 0 || n > b.Remaining() {
		panic(ErrShortBuffer)
	}
	res := b.buf[b.offset : b.offset+n]
	b.offset += n
	return res
}

// ReadByte consumes and returns a single byte.
func (b *Reader) ReadByte() byte {
	if b.Empty() {
		panic(ErrShortBuffer)
	}
	res := b.buf[b.offset]
	b.offset++
	return res
}

// U32 consumes a little-endian uint32.
func (b *Reader) U32() uint32 {
	return binary.LittleEndian.Uint32(b.Read(4))
}

// U64 consumes a little-endian uint64.
func (b *Reader) U64() uint64 {
	return binary.LittleEndian.Uint64(b.Read(8))
}

// Position returns the current cursor index of the Reader.
func (b *Reader) Position() int {
	return b.offset
}

// Remaining returns the number of unread bytes.
func (b *Reader) Remaining() int {
	return len(b.buf) - b.offset
}

// Bytes returns the entire underlying buffer of the Reader.
func (b *Reader) Bytes() []byte {
	return b.buf
}

// Bytes returns the accumulated content of the Writer.
func (b *Writer) Bytes() []byte {
	return b.buf
}

// Empty checks if the Reader has reached the end of the buffer.
func (b *Reader) Empty() bool {
	return len(b.buf) == b.offset
}
