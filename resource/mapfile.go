package resource

import (
	"encoding/binary"
	"fmt"
)

const (
	sci0EntrySize  = 6
	sci1EntrySize  = 6
	sci11EntrySize = 5
	sci32EntrySize = 6

	dirEntrySize  = 3
	dirTerminator = 0xff
)

// mapEntry is a single decoded map line before it is bound to a volume.
type mapEntry struct {
	id     ID
	volume int
	offset int64
	at     int
}

// readMapSCI0 decodes the flat 6-byte entry layout used by SCI0 and the
// middle SCI1 games. The list ends with an all-0xFF entry.
func readMapSCI0(name string, data []byte, f Format) ([]mapEntry, []error) {
	volShift, offMask := uint32(26), uint32(1<<26-1)
	if f == FormatSCI1Middle {
		volShift, offMask = 28, 1<<28-1
	}

	var (
		entries []mapEntry
		errs    []error
	)
	for pos := 0; ; pos += sci0EntrySize {
		if pos+sci0EntrySize > len(data) {
			errs = append(errs, &MapCorruptError{Map: name, Offset: pos, Reason: "missing terminator"})
			break
		}
		id := binary.LittleEndian.Uint16(data[pos:])
		tail := binary.LittleEndian.Uint32(data[pos+2:])
		if id == 0xffff && tail == 0xffffffff {
			break
		}

		t := Type(id >> 11)
		if t >= TypeInvalid {
			errs = append(errs, &MapCorruptError{Map: name, Offset: pos, Reason: fmt.Sprintf("unknown type %d", t)})
			continue
		}
		entries = append(entries, mapEntry{
			id:     NewID(t, Number(id&0x7ff)),
			volume: int(tail >> volShift),
			offset: int64(tail & offMask),
			at:     pos,
		})
	}
	return entries, errs
}

type dirEntry struct {
	typ    uint8
	offset int
}

func readDirectory(data []byte) ([]dirEntry, error) {
	var dir []dirEntry
	for pos := 0; pos+dirEntrySize <= len(data); pos += dirEntrySize {
		e := dirEntry{typ: data[pos], offset: int(binary.LittleEndian.Uint16(data[pos+1:]))}
		dir = append(dir, e)
		if e.typ == dirTerminator {
			return dir, nil
		}
	}
	return nil, fmt.Errorf("directory has no terminator")
}

// readMapSCI1 decodes the directory based layouts: a table of
// (type, offset) pairs pointing at per-type runs of fixed-size entries.
func readMapSCI1(name string, data []byte, f Format) ([]mapEntry, []error) {
	dir, err := readDirectory(data)
	if err != nil {
		return nil, []error{&MapCorruptError{Map: name, Offset: 0, Reason: err.Error()}}
	}

	entrySize := sci1EntrySize
	switch f {
	case FormatSCI11:
		entrySize = sci11EntrySize
	case FormatSCI32:
		entrySize = sci32EntrySize
	}

	var (
		entries []mapEntry
		errs    []error
	)
	for i := 0; i < len(dir)-1; i++ {
		start, end := dir[i].offset, dir[i+1].offset
		if start > end || end > len(data) {
			errs = append(errs, &MapCorruptError{Map: name, Offset: i * dirEntrySize, Reason: "directory offsets out of order"})
			continue
		}
		t := Type(dir[i].typ & 0x1f)
		if t >= TypeInvalid {
			errs = append(errs, &MapCorruptError{Map: name, Offset: i * dirEntrySize, Reason: fmt.Sprintf("unknown type %#x", dir[i].typ)})
			continue
		}
		if (end-start)%entrySize != 0 {
			errs = append(errs, &MapCorruptError{Map: name, Offset: start, Reason: "partial entry at end of block"})
		}

		for pos := start; pos+entrySize <= end; pos += entrySize {
			e := mapEntry{id: NewID(t, Number(binary.LittleEndian.Uint16(data[pos:]))), at: pos}
			switch f {
			case FormatSCI11:
				off := uint32(data[pos+2]) | uint32(data[pos+3])<<8 | uint32(data[pos+4])<<16
				e.offset = int64(off) << 1
			case FormatSCI32:
				e.offset = int64(binary.LittleEndian.Uint32(data[pos+2:]))
			default:
				tail := binary.LittleEndian.Uint32(data[pos+2:])
				e.volume = int(tail >> 28)
				e.offset = int64(tail & (1<<28 - 1))
			}
			entries = append(entries, e)
		}
	}
	return entries, errs
}

// readMap dispatches to the parser for f.
func readMap(name string, data []byte, f Format) ([]mapEntry, []error) {
	switch f {
	case FormatSCI0, FormatSCI1Middle:
		return readMapSCI0(name, data, f)
	case FormatSCI1Late, FormatSCI11, FormatSCI32:
		return readMapSCI1(name, data, f)
	}
	return nil, []error{fmt.Errorf("%w: map %s is %v", ErrUndeterminedVersion, name, f)}
}
