// Package decompression implements the fixed family of legacy codecs used
// to pack resources inside SCI volume files.
//
// Every decoder is independent: it allocates its own tables and output
// buffer per call, so Decode may be called from several goroutines at once.
package decompression

import (
	"errors"
	"fmt"
)

// Method identifies a decoder. It is not the raw tag stored in a volume
// header; see Table for the per-era tag mapping.
type Method uint8

const (
	None Method = iota
	LZW
	Huffman
	LZW1
	LZW1View
	LZW1Pic
	DCL
	STACpack
	Unknown
)

func (m Method) String() string {
	switch m {
	case None:
		return "Method(None)"
	case LZW:
		return "Method(LZW)"
	case Huffman:
		return "Method(Huffman)"
	case LZW1:
		return "Method(LZW1)"
	case LZW1View:
		return "Method(LZW1View)"
	case LZW1Pic:
		return "Method(LZW1Pic)"
	case DCL:
		return "Method(DCL)"
	case STACpack:
		return "Method(STACpack)"
	}
	return "Method(UNKNOWN)"
}

var (
	ErrSizeMismatch      = errors.New("stored size does not match declared size")
	ErrBufferOverflow    = errors.New("decompression buffer overflow")
	ErrSanity            = errors.New("decompression sanity check failed")
	ErrUnsupportedMethod = errors.New("compression method not supported")
	ErrUnknownMethod     = errors.New("unknown compression method")
)

// Table maps the compression tag found in a volume header to a Method.
type Table map[uint16]Method

// Lookup returns the method for tag, or Unknown.
func (t Table) Lookup(tag uint16) Method {
	if m, ok := t[tag]; ok {
		return m
	}
	return Unknown
}

// Tables holds the tag mapping used by each engine era. SCI0 only ever
// shipped LZW and Huffman; from SCI01 on the tags were renumbered.
var Tables = struct {
	SCI0  Table
	SCI01 Table
	SCI32 Table
}{
	SCI0: Table{
		0: None,
		1: LZW,
		2: Huffman,
	},
	SCI01: Table{
		0:  None,
		1:  Huffman,
		2:  LZW1,
		3:  LZW1View,
		4:  LZW1Pic,
		18: DCL,
		19: DCL,
		20: DCL,
	},
	SCI32: Table{
		0:  None,
		32: STACpack,
	},
}

// Decode unpacks src with method m into a new buffer of exactly size bytes.
func Decode(m Method, src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrSanity, size)
	}

	var (
		dst []byte
		err error
	)
	switch m {
	case None:
		dst, err = store(src, size)
	case LZW:
		dst, err = lzw(src, size)
	case Huffman:
		dst, err = huffman(src, size)
	case LZW1:
		dst, err = lzw1(src, size)
	case LZW1View, LZW1Pic:
		// Both run LZW1 and then reorder view/pic opcodes into the layout
		// the renderer expects; that post-pass belongs to the renderer.
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMethod, m)
	case DCL:
		dst, err = dcl(src, size)
	case STACpack:
		dst, err = lzs(src, size)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, uint8(m))
	}
	if err != nil {
		return nil, fmt.Errorf("%v: %w", m, err)
	}
	return dst, nil
}

func store(src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return nil, fmt.Errorf("%w: stored %d, declared %d", ErrSizeMismatch, len(src), size)
	}
	dst := make([]byte, size)
	copy(dst, src)
	return dst, nil
}
