package resource

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
)

// volumeProbeSize is how much of a volume the format detector replays.
const volumeProbeSize = 1 << 20

// detectContext carries what the format heuristics need to look at. It
// replaces any package level state: every detection runs on its own value.
type detectContext struct {
	fs      afero.Fs
	sources *Sources
	log     *slog.Logger
}

// detectMapFormat inspects the structure of the map source m.
func (dc *detectContext) detectMapFormat(m *Source) (Format, error) {
	data, err := afero.ReadFile(dc.fs, m.Location)
	if err != nil {
		return FormatUndetermined, fmt.Errorf("%w: %s: %v", ErrMapNotFound, m.Location, err)
	}
	return classifyMap(data, func(vol int) bool { return dc.sources.Volume(m, vol) != nil }), nil
}

// classifyMap applies the map heuristics to the raw map bytes. hasVolume
// reports whether a volume of the given number exists next to the map.
func classifyMap(data []byte, hasVolume func(int) bool) Format {
	size := len(data)

	// A trailing 0xFFFFFFFF can only be the end marker of a flat map.
	if size >= 4 && binary.LittleEndian.Uint32(data[size-4:]) == 0xffffffff {
		for pos := 0; pos+sci0EntrySize <= size; pos += sci0EntrySize {
			buf := data[pos : pos+sci0EntrySize]
			if binary.LittleEndian.Uint16(buf) == 0xffff {
				break
			}
			if !hasVolume(int(buf[5]&0xfc) >> 2) {
				return FormatSCI1Middle
			}
		}
		return FormatSCI0
	}

	detected := FormatUndetermined
	last := 0
	for pos := 0; pos+dirEntrySize <= size; pos += dirEntrySize {
		typ := data[pos]
		off := int(binary.LittleEndian.Uint16(data[pos+1:]))
		if typ < 0x80 || (typ&0x7f > 0x20 && typ != dirTerminator) {
			break
		}
		if off > size {
			break
		}
		if last != 0 && detected == FormatUndetermined {
			stride := off - last
			switch {
			case stride%6 == 0 && stride%5 != 0:
				detected = FormatSCI1Late
			case stride%5 == 0 && stride%6 != 0:
				detected = FormatSCI11
			}
		}
		if typ == dirTerminator {
			if off != size {
				break
			}
			if detected != FormatUndetermined {
				return detected
			}
			return FormatSCI1Late
		}
		last = off
	}

	if isSCI32Map(data) {
		return FormatSCI32
	}
	return FormatUndetermined
}

// isSCI32Map recognises the later directory layout where the type bytes
// lost their high bit and every block is a run of 6-byte entries.
func isSCI32Map(data []byte) bool {
	size := len(data)
	last := -1
	for pos := 0; pos+dirEntrySize <= size; pos += dirEntrySize {
		typ := data[pos]
		off := int(binary.LittleEndian.Uint16(data[pos+1:]))
		if off > size || (typ != dirTerminator && typ >= 0x80) {
			return false
		}
		if last >= 0 && (off < last || (off-last)%sci32EntrySize != 0) {
			return false
		}
		if typ == dirTerminator {
			return last >= 0 && off == size
		}
		last = off
	}
	return false
}

// detectVolumeFormat replays each container layout over the start of v
// and returns the first that stays consistent.
func (dc *detectContext) detectVolumeFormat(v *Source) (Format, error) {
	f, err := dc.fs.Open(v.Location)
	if err != nil {
		return FormatUndetermined, fmt.Errorf("%w: %s: %v", ErrIO, v.Location, err)
	}
	defer f.Close()

	buf := make([]byte, volumeProbeSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUndetermined, fmt.Errorf("%w: %s: %v", ErrIO, v.Location, err)
	}
	return classifyVolume(buf[:n]), nil
}

var volumeCandidates = []Format{FormatSCI0, FormatSCI1Late, FormatSCI11, FormatSCI32}

func classifyVolume(prefix []byte) Format {
	for _, f := range volumeCandidates {
		if volumeLayoutHolds(prefix, f) {
			return f
		}
	}
	return FormatUndetermined
}

// volumeLayoutHolds walks the records of prefix as if they were written
// in layout f. A record that straddles the end of the prefix is accepted.
func volumeLayoutHolds(prefix []byte, f Format) bool {
	hdr := headerSize(f)
	chk, offs := uint32(20), uint32(0)
	switch f {
	case FormatSCI0:
		chk, offs = 4, 4
	case FormatSCI1Late:
		offs = 4
	}

	records := 0
	for pos := 0; pos+hdr <= len(prefix); records++ {
		rec := prefix[pos : pos+hdr]
		var packed, unpacked uint32
		var method uint16
		switch f {
		case FormatSCI0:
			packed = uint32(binary.LittleEndian.Uint16(rec[2:]))
			unpacked = uint32(binary.LittleEndian.Uint16(rec[4:]))
			method = binary.LittleEndian.Uint16(rec[6:])
		case FormatSCI1Late, FormatSCI11:
			packed = uint32(binary.LittleEndian.Uint16(rec[3:]))
			unpacked = uint32(binary.LittleEndian.Uint16(rec[5:]))
			method = binary.LittleEndian.Uint16(rec[7:])
		case FormatSCI32:
			packed = binary.LittleEndian.Uint32(rec[3:])
			unpacked = binary.LittleEndian.Uint32(rec[7:])
			method = binary.LittleEndian.Uint16(rec[11:])
		}

		switch {
		case f != FormatSCI32 && uint32(method) > chk:
			return false
		case f == FormatSCI32 && method != 0 && method != 32:
			return false
		case method == 0 && packed != unpacked+offs:
			return false
		case int64(unpacked) < (int64(packed)-4)/4:
			return false
		}

		switch f {
		case FormatSCI0, FormatSCI1Late:
			pos += hdr + int(packed) - 4
		default:
			pos += hdr + int(packed)
		}
		// SCI1.1 offsets are stored halved, so records start on even bytes.
		if f == FormatSCI11 && pos&1 == 1 {
			pos++
		}
	}
	return records > 0
}

// guessVGA looks for view and pic records compressed with the methods
// only the VGA interpreters understood.
func (dc *detectContext) guessVGA(t *table, vol Format) bool {
	vga := false
	t.ascend(func(r *Resource) bool {
		switch {
		case r.source == nil || r.source.Kind != SourceVolume:
			return true
		case r.Type() == TypeView && r.Number() < 1000:
		case r.Type() == TypePic:
		default:
			return true
		}

		h, err := dc.peekHeader(r, vol)
		if err != nil {
			dc.log.Debug("version probe skipped", "resource", r.id, "err", err)
			return true
		}
		if (r.Type() == TypeView && h.method == 3) || (r.Type() == TypePic && h.method == 4) {
			vga = true
			return false
		}
		return true
	})
	return vga
}

func (dc *detectContext) peekHeader(r *Resource, vol Format) (containerHeader, error) {
	f, err := dc.fs.Open(r.source.Location)
	if err != nil {
		return containerHeader{}, err
	}
	defer f.Close()

	buf := make([]byte, headerSize(vol))
	if n, err := f.ReadAt(buf, r.offset); n < len(buf) {
		return containerHeader{}, err
	}
	return readContainerHeader(bytes.NewReader(buf), vol)
}

// detectVersion derives the interpreter version from the detected map
// layout and, for the flat maps, from what resources the game ships.
func (dc *detectContext) detectVersion(t *table, mapFormat, volFormat Format) Version {
	switch mapFormat {
	case FormatSCI1Middle:
		return SCI01VGAOdd
	case FormatSCI1Late:
		return SCI1Late
	case FormatSCI11:
		return SCI11
	case FormatSCI32:
		return SCI32
	case FormatSCI0:
	default:
		return Autodetect
	}

	// Vocab 0 is the SCI0 parser vocabulary, vocab 900 the SCI01 one. Some
	// late SCI0 games ship 900 along with 912.
	if dc.guessVGA(t, volFormat) {
		return SCI01VGA
	}
	switch {
	case t.has(NewID(TypeVocab, 0)):
		return SCI0
	case t.has(NewID(TypeVocab, 900)) && !t.has(NewID(TypeVocab, 912)):
		return SCI01EGA
	}
	return SCI0
}
