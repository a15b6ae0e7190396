package decompression

import (
	"errors"
	"io"
)

var errBitOverflow = errors.New("overflow")

// lsbReader reads little-endian bit fields: the first bit of the stream is
// the least significant bit of the first byte. The MSB-first codecs use
// github.com/32bitkid/bitreader instead.
type lsbReader struct {
	src       []byte
	pos       int
	buffer    uint64
	remaining uint
}

func newLSBReader(src []byte) *lsbReader {
	return &lsbReader{src: src}
}

func (br *lsbReader) fill() {
	for br.remaining <= 56 && br.pos < len(br.src) {
		br.buffer |= uint64(br.src[br.pos]) << br.remaining
		br.pos++
		br.remaining += 8
	}
}

func (br *lsbReader) read(n uint) (uint32, error) {
	if n > 32 {
		return 0, errBitOverflow
	}
	if br.remaining < n {
		br.fill()
		if br.remaining < n {
			return 0, io.ErrUnexpectedEOF
		}
	}
	val := uint32(br.buffer & (1<<n - 1))
	br.buffer >>= n
	br.remaining -= n
	return val, nil
}

func (br *lsbReader) read16(n uint) (uint16, error) {
	if n > 16 {
		return 0, errBitOverflow
	}
	val, err := br.read(n)
	return uint16(val), err
}
