package decompression

import (
	"bytes"
	"fmt"

	"github.com/32bitkid/bitreader"
)

// Huffman decoding

type huffmanNode struct {
	Value    uint8
	Siblings uint8
}

type huffmanState struct {
	nodes []huffmanNode
	br    bitreader.BitReader8
}

// next walks the tree from idx. The bool result reports an escaped
// literal, which is how the terminator is encoded.
func (h *huffmanState) next(idx int) (uint8, bool, error) {
	for {
		if idx >= len(h.nodes) {
			return 0, false, fmt.Errorf("%w: node %d of %d", ErrSanity, idx, len(h.nodes))
		}
		node := h.nodes[idx]
		if node.Siblings == 0 {
			return node.Value, false, nil
		}

		bit, err := h.br.Read1()
		if err != nil {
			return 0, false, err
		}

		var next int
		if bit {
			next = int(node.Siblings & 0x0f)
		} else {
			next = int(node.Siblings & 0xf0 >> 4)
		}

		if next == 0 {
			literal, err := h.br.Read8(8)
			return literal, true, err
		}
		idx += next
	}
}

func huffman(src []byte, size int) ([]byte, error) {
	if len(src) < 2 {
		return nil, fmt.Errorf("%w: missing huffman header", ErrSanity)
	}
	nodeCount, term := int(src[0]), src[1]
	if len(src) < 2+nodeCount*2 {
		return nil, fmt.Errorf("%w: huffman table truncated", ErrSanity)
	}

	nodes := make([]huffmanNode, nodeCount)
	for i := range nodes {
		nodes[i] = huffmanNode{Value: src[2+i*2], Siblings: src[3+i*2]}
	}

	h := huffmanState{
		br:    bitreader.NewReader(bytes.NewReader(src[2+nodeCount*2:])),
		nodes: nodes,
	}

	dst := make([]byte, size)
	i := 0
	for {
		c, literal, err := h.next(0)
		if err != nil {
			if i == size {
				break
			}
			return nil, fmt.Errorf("%w: read aborted early. expected(%d) != actual(%d): %v", ErrSanity, size, i, err)
		}
		if literal && c == term {
			break
		}
		if i == size {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrBufferOverflow, size)
		}
		dst[i] = c
		i++
	}

	if i != size {
		return nil, fmt.Errorf("%w: read aborted early. expected(%d) != actual(%d)", ErrSanity, size, i)
	}
	return dst, nil
}
