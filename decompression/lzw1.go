package decompression

import (
	"bytes"
	"fmt"

	"github.com/32bitkid/bitreader"
)

type lzwToken struct {
	data uint8
	next uint16
}

const (
	lzw1StackSize = 0x1014
	lzw1TableSize = 0x1004
)

// lzw1 decodes the SCI01 LZW variant: MSB-first codes, and a dictionary of
// (byte, parent) links walked backwards onto a stack.
func lzw1(src []byte, size int) ([]byte, error) {
	br := bitreader.NewReader(bytes.NewReader(src))
	dst := make([]byte, size)

	stack := make([]uint8, lzw1StackSize)
	tokens := make([]lzwToken, lzw1TableSize)

	var (
		w int

		numBits      uint
		currentToken uint16
		endToken     uint16

		lastByte   uint8
		stackDepth int
		lastBits   uint16

		token uint16
		bits  uint16
		err   error
	)

	if size == 0 {
		return dst, nil
	}

reset:
	numBits = 9
	currentToken = lzwFirstToken
	endToken = lzwDefaultLimit

	bits, err = br.Read16(numBits)
	if err != nil {
		goto done
	}
	if bits == lzwEndToken {
		goto done
	}
	lastByte = uint8(bits & 0xff)
	dst[w] = lastByte
	w++
	if w == size {
		goto done
	}
	lastBits = bits

next:
	bits, err = br.Read16(numBits)
	if err != nil {
		goto done
	}

	if bits == lzwEndToken {
		goto done
	}

	if bits == lzwResetToken {
		goto reset
	}

	token = bits
	if token >= currentToken {
		token = lastBits
		stack[stackDepth] = lastByte
		stackDepth++
	}
	for (token > 0xff) && (token < lzw1TableSize) {
		if stackDepth >= len(stack)-1 {
			return nil, fmt.Errorf("%w: token stack overflow", ErrSanity)
		}
		stack[stackDepth] = tokens[token].data
		stackDepth++
		token = tokens[token].next
	}

	lastByte = uint8(token & 0xff)
	stack[stackDepth] = lastByte
	stackDepth++

	for stackDepth > 0 {
		stackDepth--
		dst[w] = stack[stackDepth]
		w++

		if w == size {
			goto done
		}
	}

	if currentToken <= endToken {
		tokens[currentToken].data = lastByte
		tokens[currentToken].next = lastBits
		currentToken++
		if currentToken == endToken && numBits < lzwMaxBits {
			numBits++
			endToken = (endToken << 1) + 1
		}
	}
	lastBits = bits
	goto next

done:
	if w != size {
		return nil, fmt.Errorf("%w: expected %d bytes got %d bytes", ErrSanity, size, w)
	}

	return dst, nil
}
