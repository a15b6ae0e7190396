package resource

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/32bitkid/sciresource/decompression"
)

// Volume container headers, one per layout generation:
//
//	SCI0, SCI1 middle  {wResId wPacked+4 wUnpacked wCompression}            8 bytes
//	SCI1 late          {bResType wResNumber wPacked+4 wUnpacked wCompression} 9 bytes
//	SCI1.1             {bResType wResNumber wPacked wUnpacked wCompression}   9 bytes
//	SCI32              {bResType wResNumber dwPacked dwUnpacked wCompression} 13 bytes

type sci0Header struct {
	ID                uint16
	PackedSize        uint16
	DecompressedSize  uint16
	CompressionMethod uint16
}

type sci1Header struct {
	Type              uint8
	Number            uint16
	PackedSize        uint16
	DecompressedSize  uint16
	CompressionMethod uint16
}

type sci32Header struct {
	Type              uint8
	Number            uint16
	PackedSize        uint32
	DecompressedSize  uint32
	CompressionMethod uint16
}

// containerHeader is the layout-independent view of a volume header.
type containerHeader struct {
	id         ID
	packed     int
	unpacked   int
	method     uint16
	headerSize int
}

func headerSize(f Format) int {
	switch f {
	case FormatSCI0, FormatSCI1Middle:
		return 8
	case FormatSCI1Late, FormatSCI11:
		return 9
	case FormatSCI32:
		return 13
	}
	return 0
}

func readContainerHeader(r io.Reader, f Format) (containerHeader, error) {
	h := containerHeader{headerSize: headerSize(f)}

	switch f {
	case FormatSCI0, FormatSCI1Middle:
		var raw sci0Header
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return h, fmt.Errorf("%w: %v", ErrIO, err)
		}
		h.id = NewID(Type(raw.ID>>11), Number(raw.ID&0x7ff))
		h.packed = int(raw.PackedSize) - 4
		h.unpacked = int(raw.DecompressedSize)
		h.method = raw.CompressionMethod
	case FormatSCI1Late, FormatSCI11:
		var raw sci1Header
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return h, fmt.Errorf("%w: %v", ErrIO, err)
		}
		h.id = NewID(Type(raw.Type&0x7f), Number(raw.Number))
		h.packed = int(raw.PackedSize)
		if f == FormatSCI1Late {
			h.packed -= 4
		}
		h.unpacked = int(raw.DecompressedSize)
		h.method = raw.CompressionMethod
	case FormatSCI32:
		var raw sci32Header
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return h, fmt.Errorf("%w: %v", ErrIO, err)
		}
		h.id = NewID(Type(raw.Type&0x7f), Number(raw.Number))
		h.packed = int(raw.PackedSize)
		h.unpacked = int(raw.DecompressedSize)
		h.method = raw.CompressionMethod
	default:
		return h, fmt.Errorf("%w: volume %v", ErrUndeterminedVersion, f)
	}

	if h.packed < 0 {
		return h, fmt.Errorf("%w: packed size below header size", ErrMapCorrupt)
	}
	return h, nil
}

// decompressionTable picks the tag mapping for a game. Before SCI01 the
// tags meant something else.
func decompressionTable(v Version, volume Format) decompression.Table {
	switch {
	case volume == FormatSCI32:
		return decompression.Tables.SCI32
	case v == SCI0:
		return decompression.Tables.SCI0
	}
	return decompression.Tables.SCI01
}

// readPayload reads the header at the current position of r, checks it
// against the record and decodes the payload.
func readPayload(r io.Reader, res *Resource, f Format, tags decompression.Table, maxSize int) ([]byte, error) {
	h, err := readContainerHeader(r, f)
	if err != nil {
		return nil, err
	}
	if h.id != res.id {
		return nil, fmt.Errorf("%w: header names %v", ErrDecompressionSanity, h.id)
	}
	if h.unpacked == 0 {
		return nil, ErrEmptyResource
	}
	if h.unpacked > maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrResourceTooBig, h.unpacked, maxSize)
	}
	if h.packed > maxSize {
		return nil, fmt.Errorf("%w: %d packed bytes, limit %d", ErrResourceTooBig, h.packed, maxSize)
	}

	method := tags.Lookup(h.method)
	if method == decompression.Unknown {
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownCompression, h.method)
	}

	packed := make([]byte, h.packed)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, fmt.Errorf("%w: reading %d packed bytes: %v", ErrIO, h.packed, err)
	}
	return decompression.Decode(method, packed, h.unpacked)
}
