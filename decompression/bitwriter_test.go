package decompression

// bitWriter packs test streams. lsb selects the bit order within a byte.
type bitWriter struct {
	lsb   bool
	out   []byte
	nbits uint
}

func (bw *bitWriter) bit(b uint32) {
	if bw.nbits%8 == 0 {
		bw.out = append(bw.out, 0)
	}
	if b&1 == 1 {
		pos := bw.nbits % 8
		if !bw.lsb {
			pos = 7 - pos
		}
		bw.out[len(bw.out)-1] |= 1 << pos
	}
	bw.nbits++
}

// bits writes the given bits in stream order.
func (bw *bitWriter) bits(bs ...uint32) *bitWriter {
	for _, b := range bs {
		bw.bit(b)
	}
	return bw
}

// value writes the low n bits of v in the stream's field order: least
// significant first for LSB streams, most significant first otherwise.
func (bw *bitWriter) value(v uint32, n uint) *bitWriter {
	for i := uint(0); i < n; i++ {
		if bw.lsb {
			bw.bit(v >> i)
		} else {
			bw.bit(v >> (n - 1 - i))
		}
	}
	return bw
}

func (bw *bitWriter) bytes() []byte { return bw.out }
