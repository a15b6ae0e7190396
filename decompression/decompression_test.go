package decompression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	src := []byte("resource payload")

	out, err := Decode(None, src, len(src))
	require.NoError(t, err)
	assert.Equal(t, src, out)

	// The output never aliases the input.
	src[0] = 'X'
	assert.Equal(t, byte('r'), out[0])

	_, err = Decode(None, src, len(src)+1)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	_, err = Decode(None, src, len(src)-1)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestUnsupportedAndUnknownMethods(t *testing.T) {
	for _, m := range []Method{LZW1View, LZW1Pic} {
		out, err := Decode(m, []byte{1, 2, 3}, 3)
		assert.ErrorIs(t, err, ErrUnsupportedMethod, m.String())
		assert.Nil(t, out)
	}

	_, err := Decode(Unknown, nil, 0)
	assert.ErrorIs(t, err, ErrUnknownMethod)
	_, err = Decode(Method(200), nil, 0)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestTables(t *testing.T) {
	assert.Equal(t, LZW, Tables.SCI0.Lookup(1))
	assert.Equal(t, Huffman, Tables.SCI0.Lookup(2))
	assert.Equal(t, Unknown, Tables.SCI0.Lookup(3))

	assert.Equal(t, Huffman, Tables.SCI01.Lookup(1))
	assert.Equal(t, LZW1, Tables.SCI01.Lookup(2))
	assert.Equal(t, LZW1Pic, Tables.SCI01.Lookup(4))
	assert.Equal(t, DCL, Tables.SCI01.Lookup(19))

	assert.Equal(t, STACpack, Tables.SCI32.Lookup(32))
}

// lzwStream is "A", "B", then the entry registered after "A" (which is
// "A" plus the byte that followed it), then the end token.
func lzwStream() []byte {
	bw := &bitWriter{lsb: true}
	bw.value('A', 9).value('B', 9).value(0x102, 9).value(uint32(lzwEndToken), 9)
	return bw.bytes()
}

func TestLZW(t *testing.T) {
	out, err := Decode(LZW, lzwStream(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABAB"), out)
}

func TestLZWToleratesEarlyEnd(t *testing.T) {
	out, err := Decode(LZW, lzwStream(), 6)
	require.NoError(t, err)
	assert.Equal(t, []byte{'A', 'B', 'A', 'B', 0, 0}, out)
}

func TestLZWOverflow(t *testing.T) {
	_, err := Decode(LZW, lzwStream(), 3)
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestLZWBadToken(t *testing.T) {
	bw := &bitWriter{lsb: true}
	bw.value('A', 9).value(0x1f0, 9)
	_, err := Decode(LZW, bw.bytes(), 4)
	assert.ErrorIs(t, err, ErrSanity)
}

func TestLZWTruncatedInput(t *testing.T) {
	bw := &bitWriter{lsb: true}
	bw.value('A', 9)
	_, err := Decode(LZW, bw.bytes(), 4)
	assert.ErrorIs(t, err, ErrSanity)
}

func TestLZWReset(t *testing.T) {
	bw := &bitWriter{lsb: true}
	bw.value('A', 9).value(uint32(lzwResetToken), 9).value('C', 9).value(uint32(lzwEndToken), 9)
	out, err := Decode(LZW, bw.bytes(), 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("AC"), out)
}

func TestLZW1(t *testing.T) {
	bw := &bitWriter{}
	bw.value('A', 9).value('B', 9).value(0x102, 9).value(uint32(lzwEndToken), 9)

	out, err := Decode(LZW1, bw.bytes(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABAB"), out)

	_, err = Decode(LZW1, bw.bytes(), 5)
	assert.ErrorIs(t, err, ErrSanity)
}

func TestLZW1StopsAtDeclaredSize(t *testing.T) {
	bw := &bitWriter{}
	bw.value('A', 9).value('B', 9).value(0x102, 9).value(uint32(lzwEndToken), 9)

	out, err := Decode(LZW1, bw.bytes(), 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABA"), out)
}

// huffmanStream encodes with the tree A=0, B=10, escape=11+8 bits and a
// terminator escape of 0x00.
func huffmanStream(symbols ...string) []byte {
	header := []byte{
		4, 0x00,
		0, 0x12,
		'A', 0,
		0, 0x10,
		'B', 0,
	}
	bw := &bitWriter{}
	for _, s := range symbols {
		switch s {
		case "A":
			bw.bits(0)
		case "B":
			bw.bits(1, 0)
		default:
			bw.bits(1, 1).value(uint32(s[0]), 8)
		}
	}
	bw.bits(1, 1).value(0, 8)
	return append(header, bw.bytes()...)
}

func TestHuffman(t *testing.T) {
	src := huffmanStream("A", "B", "A", "C")
	out, err := Decode(Huffman, src, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABAC"), out)
}

func TestHuffmanSizeChecks(t *testing.T) {
	src := huffmanStream("A", "B", "A")

	_, err := Decode(Huffman, src, 4)
	assert.ErrorIs(t, err, ErrSanity)

	_, err = Decode(Huffman, src, 2)
	assert.ErrorIs(t, err, ErrBufferOverflow)

	_, err = Decode(Huffman, []byte{4}, 1)
	assert.ErrorIs(t, err, ErrSanity)
}

func dclEnd(bw *bitWriter) {
	// Length symbol 15 is the all-ones 7 bit code, stored inverted.
	bw.bits(1, 0, 0, 0, 0, 0, 0, 0).value(0xff, 8)
}

func TestDCLBinary(t *testing.T) {
	bw := &bitWriter{lsb: true}
	bw.value(dclBinary, 8).value(4, 8)
	bw.bits(0).value('A', 8)
	bw.bits(0).value('B', 8)
	// Length 2 (symbol 1), distance symbol 0 with 2 low bits of 1: dist 2.
	bw.bits(1, 1, 0, 1, 1, 1).value(1, 2)
	dclEnd(bw)

	out, err := Decode(DCL, bw.bytes(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABAB"), out)

	_, err = Decode(DCL, bw.bytes(), 3)
	assert.ErrorIs(t, err, ErrBufferOverflow)

	_, err = Decode(DCL, bw.bytes(), 5)
	assert.ErrorIs(t, err, ErrSanity)
}

func TestDCLRejectsBadHeader(t *testing.T) {
	_, err := Decode(DCL, []byte{2, 4}, 0)
	assert.ErrorIs(t, err, ErrSanity)
	_, err = Decode(DCL, []byte{0, 7}, 0)
	assert.ErrorIs(t, err, ErrSanity)
}

func TestDCLTablesAreComplete(t *testing.T) {
	for name, h := range map[string]*dclHuffman{
		"literals":  dclLiterals,
		"lengths":   dclLengths,
		"distances": dclDistances,
	} {
		// A complete prefix code leaves no unused code space.
		left := 1
		for l := 1; l <= dclMaxBits; l++ {
			left <<= 1
			left -= h.count[l]
			require.GreaterOrEqual(t, left, 0, name)
		}
		assert.Equal(t, 0, left, name)
	}
	assert.Len(t, dclLiterals.symbol, 256)
	assert.Len(t, dclLengths.symbol, 16)
	assert.Len(t, dclDistances.symbol, 64)
}

func TestLZS(t *testing.T) {
	bw := &bitWriter{}
	bw.bits(0).value('A', 8)
	bw.bits(0).value('B', 8)
	bw.bits(1, 1).value(2, 7).value(0, 2)
	bw.bits(1, 1).value(0, 7)

	out, err := Decode(STACpack, bw.bytes(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABAB"), out)

	_, err = Decode(STACpack, bw.bytes(), 3)
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestLZSLongLength(t *testing.T) {
	bw := &bitWriter{}
	bw.bits(0).value('Z', 8)
	// 11 bit offset 1; length escape 11 11 then nibbles 0xf, 0x2: 8+15+2.
	bw.bits(1, 0).value(1, 11).value(3, 2).value(3, 2).value(0xf, 4).value(0x2, 4)
	bw.bits(1, 1).value(0, 7)

	out, err := Decode(STACpack, bw.bytes(), 26)
	require.NoError(t, err)
	for _, b := range out {
		require.Equal(t, byte('Z'), b)
	}
}

func TestDecodeErrorsNameTheMethod(t *testing.T) {
	_, err := Decode(LZW, nil, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSanity))
	assert.Contains(t, err.Error(), "Method(LZW)")
}
