package resource

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allVolumes(int) bool { return true }
func noVolumes(int) bool  { return false }

// sci0Map encodes (id, tail) pairs in the flat layout with its terminator.
func sci0Map(pairs ...uint32) []byte {
	var out []byte
	for i := 0; i+1 < len(pairs); i += 2 {
		out = binary.LittleEndian.AppendUint16(out, uint16(pairs[i]))
		out = binary.LittleEndian.AppendUint32(out, pairs[i+1])
	}
	return append(out, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
}

// dirMap builds a directory map of a single type with the given entries.
func dirMap(typ uint8, entries ...[]byte) []byte {
	size := 0
	for _, e := range entries {
		size += len(e)
	}
	out := []byte{typ, 6, 0, dirTerminator, byte(6 + size), byte((6 + size) >> 8)}
	for _, e := range entries {
		out = append(out, e...)
	}
	return out
}

func TestClassifyMapTrailer(t *testing.T) {
	data := sci0Map(uint32(TypeText)<<11|1, 1<<26|0x20)

	f := classifyMap(data, allVolumes)
	assert.Equal(t, FormatSCI0, f)

	// Still the flat family, never the directory layouts.
	f = classifyMap(data, noVolumes)
	assert.Equal(t, FormatSCI1Middle, f)
}

func TestClassifyMapDirectories(t *testing.T) {
	sci1 := dirMap(0x80|uint8(TypeView),
		[]byte{1, 0, 0x10, 0, 0, 0},
		[]byte{2, 0, 0x20, 0, 0, 0},
	)
	assert.Equal(t, FormatSCI1Late, classifyMap(sci1, allVolumes))

	sci11 := dirMap(0x80|uint8(TypeView), []byte{1, 0, 0x10, 0, 0})
	assert.Equal(t, FormatSCI11, classifyMap(sci11, allVolumes))

	// 30 bytes divides by both strides; the late layout is the default.
	ambiguous := dirMap(0x80|uint8(TypeView), make([]byte, 30))
	assert.Equal(t, FormatSCI1Late, classifyMap(ambiguous, allVolumes))

	sci32 := dirMap(uint8(TypeView), []byte{1, 0, 0x10, 0, 0, 0})
	assert.Equal(t, FormatSCI32, classifyMap(sci32, allVolumes))

	assert.Equal(t, FormatUndetermined, classifyMap([]byte{1, 2, 3, 4, 5}, allVolumes))
	assert.Equal(t, FormatUndetermined, classifyMap(nil, allVolumes))

	// A terminator that does not point at the end of the file is rejected.
	broken := append(dirMap(0x80, []byte{1, 0, 0, 0, 0, 0}), 0)
	assert.Equal(t, FormatUndetermined, classifyMap(broken, allVolumes))
}

func TestReadMapSCI0(t *testing.T) {
	data := sci0Map(
		uint32(TypeView)<<11|3, 2<<26|0x100,
		uint32(TypeScript)<<11|0x7ff, 0x3ffffff,
	)
	entries, errs := readMapSCI0("map", data, FormatSCI0)
	assert.Empty(t, errs)
	assert.Equal(t, []mapEntry{
		{id: NewID(TypeView, 3), volume: 2, offset: 0x100, at: 0},
		{id: NewID(TypeScript, 0x7ff), volume: 0, offset: 0x3ffffff, at: 6},
	}, entries)

	entries, _ = readMapSCI0("map", data, FormatSCI1Middle)
	assert.Equal(t, 0, entries[0].volume)
	assert.Equal(t, int64(2<<26|0x100), entries[0].offset)
}

func TestReadMapSCI0Corrupt(t *testing.T) {
	data := sci0Map(uint32(0x1e)<<11|1, 0, uint32(TypeText)<<11|1, 0)
	entries, errs := readMapSCI0("map", data[:len(data)-3], FormatSCI0)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrMapCorrupt)
	assert.Contains(t, errs[1].Error(), "missing terminator")
	assert.Len(t, entries, 1)
}

func TestReadMapSCI1Layouts(t *testing.T) {
	late := dirMap(0x80|uint8(TypePic), []byte{7, 0, 0x34, 0x12, 0, 0x30})
	entries, errs := readMapSCI1("map", late, FormatSCI1Late)
	assert.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, NewID(TypePic, 7), entries[0].id)
	assert.Equal(t, 3, entries[0].volume)
	assert.Equal(t, int64(0x1234), entries[0].offset)

	sci11 := dirMap(0x80|uint8(TypeHeap), []byte{9, 1, 0x01, 0x02, 0x03})
	entries, errs = readMapSCI1("map", sci11, FormatSCI11)
	assert.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, NewID(TypeHeap, 0x109), entries[0].id)
	assert.Equal(t, int64(0x030201)<<1, entries[0].offset)

	sci32 := dirMap(uint8(TypeView), []byte{1, 0, 0x78, 0x56, 0x34, 0x12})
	entries, errs = readMapSCI1("map", sci32, FormatSCI32)
	assert.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].volume)
	assert.Equal(t, int64(0x12345678), entries[0].offset)

	_, errs = readMapSCI1("map", []byte{0x80, 3, 0}, FormatSCI1Late)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMapCorrupt)
}

func sci1Record(typ uint8, n uint16, packed, unpacked, method uint16, payload []byte) []byte {
	out := []byte{typ}
	out = binary.LittleEndian.AppendUint16(out, n)
	out = binary.LittleEndian.AppendUint16(out, packed)
	out = binary.LittleEndian.AppendUint16(out, unpacked)
	out = binary.LittleEndian.AppendUint16(out, method)
	return append(out, payload...)
}

func sci32Record(typ uint8, n uint16, packed, unpacked uint32, method uint16, payload []byte) []byte {
	out := []byte{typ}
	out = binary.LittleEndian.AppendUint16(out, n)
	out = binary.LittleEndian.AppendUint32(out, packed)
	out = binary.LittleEndian.AppendUint32(out, unpacked)
	out = binary.LittleEndian.AppendUint16(out, method)
	return append(out, payload...)
}

func TestClassifyVolume(t *testing.T) {
	sci0 := []byte{0x01, 0x18, 7, 0, 3, 0, 0, 0, 'a', 'b', 'c'}
	assert.Equal(t, FormatSCI0, classifyVolume(sci0))

	late := sci1Record(0x83, 1, 7, 3, 0, []byte("abc"))
	assert.Equal(t, FormatSCI1Late, classifyVolume(late))

	sci11 := sci1Record(0x83, 1, 3, 3, 0, []byte("abc"))
	sci11 = append(sci11, sci1Record(0x83, 2, 4, 10, 2, []byte{1, 2, 3, 4})...)
	assert.Equal(t, FormatSCI11, classifyVolume(sci11))

	sci32 := sci32Record(0x80, 1, 3, 3, 0, []byte("abc"))
	sci32 = append(sci32, sci32Record(0x80, 2, 4, 10, 32, []byte{1, 2, 3, 4})...)
	assert.Equal(t, FormatSCI32, classifyVolume(sci32))

	assert.Equal(t, FormatUndetermined, classifyVolume(nil))
	assert.Equal(t, FormatUndetermined, classifyVolume([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}))
}

func TestVolumeRecordPastPrefixIsAccepted(t *testing.T) {
	rec := sci1Record(0x83, 1, 3, 3, 0, []byte("abc"))
	rec = append(rec, 0x83, 2)
	assert.True(t, volumeLayoutHolds(rec, FormatSCI11))
}
