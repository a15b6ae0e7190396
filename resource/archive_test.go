package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const gameDir = "/game"

// archive builds a small game directory in memory.
type archive struct {
	fs      afero.Fs
	format  Format
	volumes map[int]*bytes.Buffer
	entries []archiveEntry
}

type archiveEntry struct {
	id     ID
	volume int
	offset int
}

func newArchive(f Format) *archive {
	return &archive{
		fs:      afero.NewMemMapFs(),
		format:  f,
		volumes: make(map[int]*bytes.Buffer),
	}
}

func (a *archive) volume(n int) *bytes.Buffer {
	if a.volumes[n] == nil {
		a.volumes[n] = &bytes.Buffer{}
	}
	return a.volumes[n]
}

// store adds payload uncompressed.
func (a *archive) store(vol int, t Type, n Number, payload []byte) *archive {
	return a.packed(vol, t, n, 0, payload, len(payload))
}

// packed adds a record with an explicit method tag and declared size.
func (a *archive) packed(vol int, t Type, n Number, method uint16, payload []byte, unpacked int) *archive {
	buf := a.volume(vol)
	a.entries = append(a.entries, archiveEntry{id: NewID(t, n), volume: vol, offset: buf.Len()})

	le := binary.LittleEndian
	switch a.format {
	case FormatSCI0, FormatSCI1Middle:
		hdr := make([]byte, 8)
		le.PutUint16(hdr[0:], uint16(t)<<11|uint16(n))
		le.PutUint16(hdr[2:], uint16(len(payload)+4))
		le.PutUint16(hdr[4:], uint16(unpacked))
		le.PutUint16(hdr[6:], method)
		buf.Write(hdr)
	case FormatSCI1Late, FormatSCI11:
		hdr := make([]byte, 9)
		hdr[0] = 0x80 | uint8(t)
		le.PutUint16(hdr[1:], uint16(n))
		if a.format == FormatSCI1Late {
			le.PutUint16(hdr[3:], uint16(len(payload)+4))
		} else {
			le.PutUint16(hdr[3:], uint16(len(payload)))
		}
		le.PutUint16(hdr[5:], uint16(unpacked))
		le.PutUint16(hdr[7:], method)
		buf.Write(hdr)
	case FormatSCI32:
		hdr := make([]byte, 13)
		hdr[0] = 0x80 | uint8(t)
		le.PutUint16(hdr[1:], uint16(n))
		le.PutUint32(hdr[3:], uint32(len(payload)))
		le.PutUint32(hdr[7:], uint32(unpacked))
		le.PutUint16(hdr[11:], method)
		buf.Write(hdr)
	default:
		panic(fmt.Sprintf("archive: unsupported format %v", a.format))
	}
	buf.Write(payload)
	if a.format == FormatSCI11 && buf.Len()%2 == 1 {
		buf.WriteByte(0)
	}
	return a
}

func (a *archive) mapBytes() []byte {
	le := binary.LittleEndian
	var out []byte
	switch a.format {
	case FormatSCI0:
		for _, e := range a.entries {
			entry := make([]byte, 6)
			le.PutUint16(entry[0:], uint16(e.id.Type())<<11|uint16(e.id.Number()))
			le.PutUint32(entry[2:], uint32(e.volume)<<26|uint32(e.offset))
			out = append(out, entry...)
		}
		out = append(out, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	case FormatSCI1Late, FormatSCI11, FormatSCI32:
		byType := make(map[Type][]archiveEntry)
		var types []Type
		for _, e := range a.entries {
			if byType[e.id.Type()] == nil {
				types = append(types, e.id.Type())
			}
			byType[e.id.Type()] = append(byType[e.id.Type()], e)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		// SCI32 directories are written without the type high bit.
		typeBit := uint8(0x80)
		if a.format == FormatSCI32 {
			typeBit = 0
		}
		pos := (len(types) + 1) * dirEntrySize
		var body []byte
		for _, t := range types {
			out = append(out, typeBit|uint8(t), byte(pos), byte(pos>>8))
			for _, e := range byType[t] {
				body = le.AppendUint16(body, uint16(e.id.Number()))
				switch a.format {
				case FormatSCI11:
					off := e.offset >> 1
					body = append(body, byte(off), byte(off>>8), byte(off>>16))
					pos += sci11EntrySize
				case FormatSCI32:
					body = le.AppendUint32(body, uint32(e.offset))
					pos += sci32EntrySize
				default:
					body = le.AppendUint32(body, uint32(e.volume)<<28|uint32(e.offset))
					pos += sci1EntrySize
				}
			}
		}
		out = append(out, dirTerminator, byte(pos), byte(pos>>8))
		out = append(out, body...)
	}
	return out
}

// write flushes the map and volumes into the game directory.
func (a *archive) write(t *testing.T) afero.Fs {
	t.Helper()
	require.NoError(t, a.fs.MkdirAll(gameDir, 0o755))
	a.file(t, "RESOURCE.MAP", a.mapBytes())
	for n, buf := range a.volumes {
		a.file(t, fmt.Sprintf("RESOURCE.%03d", n), buf.Bytes())
	}
	return a.fs
}

func (a *archive) file(t *testing.T, name string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(a.fs, path.Join(gameDir, name), data, 0o644))
}

// patchFile is a patch for type t whose payload starts right after the
// two byte header.
func patchFile(t Type, payload string) []byte {
	return append([]byte{byte(t), 0}, payload...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func openGame(t *testing.T, fs afero.Fs, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithDirectory(gameDir), WithLogger(quietLogger())}, opts...)
	m, err := New(fs, opts...)
	require.NoError(t, err)
	return m
}

func payload(size int, fill byte) []byte {
	return bytes.Repeat([]byte{fill}, size)
}
