package resource

import (
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// patchNumber extracts the resource number from a patch file name of type
// t. Both the old "view.012" and the newer "12.v56" conventions are
// understood.
func patchNumber(name string, t Type, sci1 bool) (Number, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return 0, false
	}
	base, ext := name[:dot], name[dot+1:]

	var digits string
	switch {
	case !sci1 && strings.EqualFold(base, t.Name()) && len(ext) == 3:
		digits = ext
	case sci1 && t.Suffix() != "" && strings.EqualFold(ext, t.Suffix()):
		digits = base
	default:
		return 0, false
	}

	n, err := strconv.ParseUint(digits, 10, 16)
	if err != nil {
		return 0, false
	}
	return Number(n), true
}

// scanPatchDirectory collects every usable patch file in dir. When two
// files describe the same resource the one scanned last is kept: types in
// order, old-style names before new-style names, each in name order.
func (m *Manager) scanPatchDirectory(dir *Source) []*Resource {
	infos, err := afero.ReadDir(m.fs, dir.Location)
	if err != nil {
		m.log.Warn("cannot read patch directory", "source", dir.Location, "err", err)
		return nil
	}

	found := make(map[ID]*Resource)
	for t := TypeView; t < TypeInvalid; t++ {
		for _, sci1 := range []bool{false, true} {
			for _, info := range infos {
				if info.IsDir() {
					continue
				}
				n, ok := patchNumber(info.Name(), t, sci1)
				if !ok {
					continue
				}
				if res := m.processPatch(filepath.Join(dir.Location, info.Name()), NewID(t, n)); res != nil {
					found[res.id] = res
				}
			}
		}
	}

	patches := make([]*Resource, 0, len(found))
	for _, res := range found {
		patches = append(patches, res)
	}
	sort.Slice(patches, func(i, j int) bool { return patches[i].id < patches[j].id })
	return patches
}

// processPatch validates the two byte patch header and returns a record
// for the payload behind it, or nil if the file cannot be used.
func (m *Manager) processPatch(path string, id ID) *Resource {
	f, err := m.fs.Open(path)
	if err != nil {
		m.log.Warn("cannot open patch", "source", path, "err", err)
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		m.log.Warn("cannot stat patch", "source", path, "err", err)
		return nil
	}
	size := info.Size()
	if size < 3 {
		m.log.Debug("patch too small", "source", path, "size", size)
		return nil
	}

	var hdr [2]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		m.log.Warn("cannot read patch header", "source", path, "err", err)
		return nil
	}
	if Type(hdr[0]&0x7f) != id.Type() {
		m.log.Debug("patch type mismatch", "source", path, "resource", id, "type", hdr[0]&0x7f)
		return nil
	}

	offset := int64(hdr[1])
	if hdr[1]&0x80 != 0 {
		switch hdr[1] & 0x7f {
		case 0:
			offset = 24
		case 1:
			offset = 2
		case 4:
			offset = 8
		default:
			m.log.Warn("unsupported patch header", "source", path, "special", hdr[1]&0x7f)
			return nil
		}
	}
	if offset+2 >= size {
		m.log.Debug("patch payload starts past end of file", "source", path, "offset", offset, "size", size)
		return nil
	}

	return &Resource{
		id:     id,
		source: &Source{Kind: SourcePatch, Location: path},
		offset: offset + 2,
		size:   int(size - offset - 2),
	}
}

// readPatch loads the verbatim payload of a patch record.
func (m *Manager) readPatch(res *Resource) ([]byte, error) {
	f, err := m.fs.Open(res.source.Location)
	if err != nil {
		return nil, wrapIO(err)
	}
	defer f.Close()

	if _, err := f.Seek(res.offset, io.SeekStart); err != nil {
		return nil, wrapIO(err)
	}
	data := make([]byte, res.size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, wrapIO(err)
	}
	return data, nil
}
