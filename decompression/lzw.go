package decompression

import "fmt"

const (
	lzwResetToken   uint16 = 0x100
	lzwEndToken     uint16 = 0x101
	lzwFirstToken   uint16 = 0x102
	lzwDefaultLimit uint16 = 0x1ff
	lzwMaxBits      uint   = 12
)

// lzw decodes the SCI0 flavour of LZW: 9 to 12 bit codes packed LSB first.
// Each dictionary entry points back into the output, so an entry is the
// string it was registered with plus the byte that followed it.
//
// An end token before size bytes is accepted and the tail stays zeroed.
func lzw(src []byte, size int) ([]byte, error) {
	br := newLSBReader(src)
	dst := make([]byte, size)

	var (
		offsets [1 << lzwMaxBits]int
		lengths [1 << lzwMaxBits]int

		numBits  uint   = 9
		endToken uint16 = lzwDefaultLimit
		curToken uint16 = lzwFirstToken
		lastLen  int
		w        int
	)

	for w < size {
		token, err := br.read16(numBits)
		if err != nil {
			return nil, fmt.Errorf("%w: input ended after %d of %d bytes", ErrSanity, w, size)
		}

		switch {
		case token == lzwEndToken:
			return dst, nil
		case token == lzwResetToken:
			numBits = 9
			endToken = lzwDefaultLimit
			curToken = lzwFirstToken
			continue
		case token > 0xff:
			if token >= curToken {
				return nil, fmt.Errorf("%w: bad token %#x", ErrSanity, token)
			}
			lastLen = lengths[token] + 1
			if w+lastLen > size {
				return nil, fmt.Errorf("%w: token %#x needs %d bytes at %d of %d", ErrBufferOverflow, token, lastLen, w, size)
			}
			// The source may overlap the bytes being written.
			from := offsets[token]
			for i := 0; i < lastLen; i++ {
				dst[w] = dst[from+i]
				w++
			}
		default:
			lastLen = 1
			dst[w] = byte(token)
			w++
		}

		if curToken > endToken && numBits < lzwMaxBits {
			numBits++
			endToken = endToken<<1 + 1
		}
		if curToken <= endToken {
			offsets[curToken] = w - lastLen
			lengths[curToken] = lastLen
			curToken++
		}
	}

	return dst, nil
}
