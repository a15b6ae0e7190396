package decompression

import (
	"bytes"
	"fmt"

	"github.com/32bitkid/bitreader"
)

// lzs decodes STACpack (Stac LZS) streams used by SCI32 volumes.
func lzs(src []byte, size int) ([]byte, error) {
	br := bitreader.NewReader(bytes.NewReader(src))
	dst := make([]byte, size)
	w := 0

	for w < size {
		flag, err := br.Read8(1)
		if err != nil {
			break
		}

		if flag == 0 {
			b, err := br.Read8(8)
			if err != nil {
				break
			}
			dst[w] = b
			w++
			continue
		}

		short, err := br.Read8(1)
		if err != nil {
			break
		}
		var offset uint16
		if short == 1 {
			if offset, err = br.Read16(7); err != nil {
				break
			}
			// A seven bit offset of zero marks the end of the stream.
			if offset == 0 {
				break
			}
		} else if offset, err = br.Read16(11); err != nil {
			break
		}

		length, err := lzsLength(br)
		if err != nil {
			break
		}
		if int(offset) > w || offset == 0 {
			return nil, fmt.Errorf("%w: offset %d beyond %d written bytes", ErrSanity, offset, w)
		}
		if w+length > size {
			return nil, fmt.Errorf("%w: copy of %d at %d of %d", ErrBufferOverflow, length, w, size)
		}
		from := w - int(offset)
		for i := 0; i < length; i++ {
			dst[w] = dst[from+i]
			w++
		}
	}

	if w != size {
		return nil, fmt.Errorf("%w: expected %d bytes got %d bytes", ErrSanity, size, w)
	}
	return dst, nil
}

func lzsLength(br bitreader.BitReader) (int, error) {
	code, err := br.Read8(2)
	if err != nil {
		return 0, err
	}
	if code < 3 {
		return int(code) + 2, nil
	}
	if code, err = br.Read8(2); err != nil {
		return 0, err
	}
	if code < 3 {
		return int(code) + 5, nil
	}

	length := 8
	for {
		nibble, err := br.Read8(4)
		if err != nil {
			return 0, err
		}
		length += int(nibble)
		if nibble != 0x0f {
			return length, nil
		}
	}
}
