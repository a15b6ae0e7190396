package decompression

import "fmt"

// PKWARE Data Compression Library "implode" streams. The code tables are
// stored compactly: each byte is (repeat-1)<<4 | bit length.

const (
	dclMaxBits   = 13
	dclBinary    = 0
	dclASCII     = 1
	dclEndLength = 519
)

var (
	dclLiteralLengths = []byte{
		11, 124, 8, 7, 28, 7, 188, 13, 76, 4, 10, 8, 12, 10, 12, 10, 8, 23, 8,
		9, 7, 6, 7, 8, 7, 6, 55, 8, 23, 24, 12, 11, 7, 9, 11, 12, 6, 7, 22, 5,
		7, 24, 6, 11, 9, 6, 7, 22, 7, 11, 38, 7, 9, 8, 25, 11, 8, 11, 9, 12,
		8, 12, 5, 38, 5, 38, 5, 11, 7, 5, 6, 21, 6, 10, 53, 8, 7, 24, 10, 27,
		44, 253, 253, 253, 252, 252, 252, 13, 12, 45, 12, 45, 12, 61, 12, 45,
		44, 173,
	}
	dclLengthLengths   = []byte{2, 35, 36, 53, 38, 23}
	dclDistanceLengths = []byte{2, 20, 53, 230, 247, 151, 248}

	dclLengthBase  = [16]int{3, 2, 4, 5, 6, 7, 8, 9, 10, 12, 16, 24, 40, 72, 136, 264}
	dclLengthExtra = [16]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
)

type dclHuffman struct {
	count  [dclMaxBits + 1]int
	symbol []int
}

func newDCLHuffman(rep []byte) *dclHuffman {
	var lengths []int
	for _, b := range rep {
		for n := int(b>>4) + 1; n > 0; n-- {
			lengths = append(lengths, int(b&0x0f))
		}
	}

	h := &dclHuffman{symbol: make([]int, len(lengths))}
	for _, l := range lengths {
		h.count[l]++
	}

	var offs [dclMaxBits + 1]int
	for l := 1; l < dclMaxBits; l++ {
		offs[l+1] = offs[l] + h.count[l]
	}
	for sym, l := range lengths {
		if l != 0 {
			h.symbol[offs[l]] = sym
			offs[l]++
		}
	}
	return h
}

// decode reads one symbol. Codes are stored bit-inverted.
func (h *dclHuffman) decode(br *lsbReader) (int, error) {
	code, first, index := 0, 0, 0
	for l := 1; l <= dclMaxBits; l++ {
		bit, err := br.read(1)
		if err != nil {
			return 0, err
		}
		code |= int(bit) ^ 1
		count := h.count[l]
		if code < first+count {
			return h.symbol[index+code-first], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, fmt.Errorf("%w: invalid huffman code", ErrSanity)
}

var (
	dclLiterals  = newDCLHuffman(dclLiteralLengths)
	dclLengths   = newDCLHuffman(dclLengthLengths)
	dclDistances = newDCLHuffman(dclDistanceLengths)
)

func dcl(src []byte, size int) ([]byte, error) {
	br := newLSBReader(src)

	mode, err := br.read(8)
	if err != nil {
		return nil, fmt.Errorf("%w: missing mode", ErrSanity)
	}
	if mode != dclBinary && mode != dclASCII {
		return nil, fmt.Errorf("%w: mode %#02x, expected 00 or 01", ErrSanity, mode)
	}
	dict, err := br.read(8)
	if err != nil {
		return nil, fmt.Errorf("%w: missing dictionary size", ErrSanity)
	}
	if dict < 4 || dict > 6 {
		return nil, fmt.Errorf("%w: dictionary size %d", ErrSanity, dict)
	}

	dst := make([]byte, size)
	w := 0
	for {
		pair, err := br.read(1)
		if err != nil {
			break
		}

		if pair == 0 {
			var lit int
			if mode == dclASCII {
				lit, err = dclLiterals.decode(br)
			} else {
				var v uint32
				v, err = br.read(8)
				lit = int(v)
			}
			if err != nil {
				break
			}
			if w == size {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrBufferOverflow, size)
			}
			dst[w] = byte(lit)
			w++
			continue
		}

		sym, err := dclLengths.decode(br)
		if err != nil {
			break
		}
		extra, err := br.read(dclLengthExtra[sym])
		if err != nil {
			break
		}
		length := dclLengthBase[sym] + int(extra)
		if length == dclEndLength {
			break
		}

		shift := uint(dict)
		if length == 2 {
			shift = 2
		}
		hi, err := dclDistances.decode(br)
		if err != nil {
			break
		}
		lo, err := br.read(shift)
		if err != nil {
			break
		}
		dist := hi<<shift + int(lo) + 1
		if dist > w {
			return nil, fmt.Errorf("%w: distance %d beyond %d written bytes", ErrSanity, dist, w)
		}
		if w+length > size {
			return nil, fmt.Errorf("%w: copy of %d at %d of %d", ErrBufferOverflow, length, w, size)
		}
		for i := 0; i < length; i++ {
			dst[w] = dst[w-dist]
			w++
		}
	}

	if w != size {
		return nil, fmt.Errorf("%w: expected %d bytes got %d bytes", ErrSanity, size, w)
	}
	return dst, nil
}
