package resource

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/32bitkid/sciresource/decompression"
)

// Manager maps (type, number) pairs to decoded resource bytes. It keeps
// at most a memory budget of unlocked data resident and drops the least
// recently used buffers first.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	fs      afero.Fs
	dir     string
	log     *slog.Logger
	metrics *Metrics

	sources *Sources
	table   *table
	lru     *simplelru.LRU[ID, *Resource]

	budget          int
	maxResourceSize int
	memoryLocked    int
	memoryLRU       int

	version   Version
	mapFormat Format
	volFormat Format
	tags      decompression.Table

	warnings error
}

// New discovers the resource files of the game in the configured
// directory of fsys, detects their layout and indexes them.
func New(fsys afero.Fs, opts ...Option) (*Manager, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	lru, err := simplelru.NewLRU[ID, *Resource](math.MaxInt32, nil)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		fs:              fsys,
		dir:             o.dir,
		log:             o.log,
		metrics:         o.metrics,
		sources:         &Sources{},
		table:           newTable(),
		lru:             lru,
		budget:          o.budget,
		maxResourceSize: o.maxResourceSize,
		version:         o.version,
	}

	if err := m.discover(); err != nil {
		return nil, err
	}

	dc := &detectContext{fs: m.fs, sources: m.sources, log: m.log}
	if err := m.detectFormats(dc); err != nil {
		return nil, err
	}

	m.scanSources()

	if m.version == Autodetect {
		m.version = dc.detectVersion(m.table, m.mapFormat, m.volFormat)
		m.log.Debug("detected version", "version", m.version)
	}
	m.tags = decompressionTable(m.version, m.volFormat)

	for _, w := range multierr.Errors(m.warnings) {
		m.log.Warn("resource discovery", "err", w)
	}
	m.log.Info("resources indexed",
		"dir", m.dir,
		"resources", m.table.len(),
		"map", m.mapFormat,
		"volume", m.volFormat,
		"version", m.version)
	return m, nil
}

func (m *Manager) warn(err error) {
	m.warnings = multierr.Append(m.warnings, err)
}

// discover registers the map, its volumes, the message archive and the
// patch directory found in the game directory.
func (m *Manager) discover() error {
	infos, err := afero.ReadDir(m.fs, m.dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoResourceFiles, m.dir, err)
	}

	files := make(map[string]string)
	for _, info := range infos {
		if !info.IsDir() {
			files[strings.ToUpper(info.Name())] = filepath.Join(m.dir, info.Name())
		}
	}

	mapFile, ok := files["RESOURCE.MAP"]
	if !ok {
		return fmt.Errorf("%w: no RESOURCE.MAP in %s", ErrNoResourceFiles, m.dir)
	}
	resMap := m.sources.AddExternalMap(mapFile)

	volumes := 0
	for _, info := range infos {
		name := strings.ToUpper(info.Name())
		if match, _ := filepath.Match("RESOURCE.0??", name); !match || info.IsDir() {
			continue
		}
		n, err := strconv.Atoi(name[len("RESOURCE."):])
		if err != nil {
			m.warn(fmt.Errorf("ignoring volume %s: %v", info.Name(), err))
			continue
		}
		m.sources.AddVolume(resMap, files[name], n)
		volumes++
	}
	if volumes == 0 {
		m.warn(fmt.Errorf("no volumes next to %s", mapFile))
	}

	if msgMap, ok := files["MESSAGE.MAP"]; ok {
		if msgVol, ok := files["RESOURCE.MSG"]; ok {
			m.sources.AddVolume(m.sources.AddExternalMap(msgMap), msgVol, 0)
		}
	}

	m.sources.AddPatchDirectory(m.dir)
	return nil
}

// firstVolume is the lowest numbered volume of map src.
func (m *Manager) firstVolume(src *Source) *Source {
	var first *Source
	for _, s := range m.sources.All() {
		if s.Kind == SourceVolume && s.Map == src && (first == nil || s.Volume < first.Volume) {
			first = s
		}
	}
	return first
}

func (m *Manager) detectFormats(dc *detectContext) error {
	resMap := m.sources.First(SourceExternalMap)

	mapFormat, err := dc.detectMapFormat(resMap)
	if err != nil {
		m.warn(err)
	}

	volFormat := FormatUndetermined
	if vol := m.firstVolume(resMap); vol != nil {
		if volFormat, err = dc.detectVolumeFormat(vol); err != nil {
			m.warn(err)
		}
	}

	switch {
	case mapFormat == FormatUndetermined && volFormat == FormatUndetermined:
		return multierr.Append(ErrUndeterminedVersion, m.warnings)
	case mapFormat == FormatUndetermined:
		m.log.Warn("map format undetermined, using volume format", "format", volFormat)
		mapFormat = volFormat
	case volFormat == FormatUndetermined:
		m.log.Warn("volume format undetermined, using map format", "format", mapFormat)
		volFormat = mapFormat
	}

	// A late SCI1 map is the fallback for a directory whose strides fit
	// both entry sizes. SCI1.1 and SCI32 maps share that directory, so the
	// volume decides.
	if mapFormat == FormatSCI1Late {
		switch volFormat {
		case FormatSCI11, FormatSCI32:
			m.log.Debug("map format taken from volume", "detected", mapFormat, "format", volFormat)
			mapFormat = volFormat
		}
	}

	m.mapFormat, m.volFormat = mapFormat, volFormat
	return nil
}

// scanSources indexes every source once. Patch directories go first, so
// their records win over the volume entries for the same identity.
func (m *Manager) scanSources() {
	for _, src := range m.sources.ScanOrder() {
		if src.scanned {
			continue
		}
		src.scanned = true

		switch src.Kind {
		case SourcePatchDirectory:
			for _, res := range m.scanPatchDirectory(src) {
				if m.table.insertIfAbsent(res) {
					m.log.Debug("patch", "resource", res.id, "source", res.source.Location)
				}
			}
		case SourceExternalMap:
			m.warn(m.readMapSource(src))
		}
	}
}

func (m *Manager) readMapSource(src *Source) error {
	data, err := afero.ReadFile(m.fs, src.Location)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMapNotFound, src.Location, err)
	}

	entries, errs := readMap(src.Location, data, m.mapFormat)
	for _, e := range entries {
		vol := m.sources.Volume(src, e.volume)
		if vol == nil {
			errs = append(errs, &MapCorruptError{
				Map:    src.Location,
				Offset: e.at,
				Reason: fmt.Sprintf("%v is in missing volume %d", e.id, e.volume),
			})
			continue
		}
		m.table.insertIfAbsent(&Resource{id: e.id, source: vol, offset: e.offset})
	}
	return multierr.Combine(errs...)
}

// Version is the configured version, or the detected one under Autodetect.
func (m *Manager) Version() Version { return m.version }

// MapFormat and VolumeFormat are the layouts the index was read with,
// after reconciling the two detectors.
func (m *Manager) MapFormat() Format    { return m.mapFormat }
func (m *Manager) VolumeFormat() Format { return m.volFormat }

// Sources returns a copy of the registered sources in registration order.
func (m *Manager) Sources() []*Source { return m.sources.All() }

// Warnings returns the recoverable problems met while indexing.
func (m *Manager) Warnings() []error { return multierr.Errors(m.warnings) }

// identity folds numbers past the version's limit back into range.
func (m *Manager) identity(t Type, n Number) ID {
	if limit := m.version.MaxNumber(); int(n) >= limit {
		folded := Number(int(n) % limit)
		m.log.Warn("resource number out of range", "type", t, "number", n, "max", limit, "using", folded)
		n = folded
	}
	return NewID(t, n)
}

// Find returns the decoded bytes of a resource, loading them if needed.
// With lock set the data stays resident until a matching Unlock; the
// returned slice must not be used after the last Unlock.
func (m *Manager) Find(t Type, n Number, lock bool) ([]byte, error) {
	id := m.identity(t, n)
	res, ok := m.table.get(id)
	if !ok {
		m.metrics.miss()
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}

	switch res.status {
	case StatusNoData:
		if err := m.load(res); err != nil {
			m.log.Warn("cannot load resource", "resource", id, "err", err)
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	case StatusEnqueued:
		m.metrics.hit()
		m.removeFromLRU(res)
	default:
		m.metrics.hit()
	}

	if lock {
		if res.status == StatusAllocated {
			res.status = StatusLocked
			res.lockers = 0
			m.memoryLocked += res.resident()
		}
		res.lockers++
	} else if res.status != StatusLocked {
		m.addToLRU(res)
	}

	m.freeOldResources(res)
	return res.data, nil
}

// Unlock releases one lock on a resource. Once the last lock is gone the
// data becomes eligible for eviction.
func (m *Manager) Unlock(t Type, n Number) {
	id := m.identity(t, n)
	res, ok := m.table.get(id)
	switch {
	case !ok:
		m.log.Warn("unlock of unknown resource", "resource", id)
		return
	case res.status != StatusLocked:
		m.log.Warn("unlock of resource that is not locked", "resource", id, "status", res.status)
		return
	}

	res.lockers--
	if res.lockers == 0 {
		m.memoryLocked -= res.resident()
		res.status = StatusAllocated
		m.addToLRU(res)
	}
	m.freeOldResources(nil)
}

// Test reports the record for an identity without loading it.
func (m *Manager) Test(t Type, n Number) *Resource {
	res, _ := m.table.get(NewID(t, n))
	return res
}

// List returns the numbers of every known resource of type t.
func (m *Manager) List(t Type) []Number {
	var numbers []Number
	m.table.ascendType(t, func(r *Resource) bool {
		numbers = append(numbers, r.Number())
		return true
	})
	return numbers
}

// Stats is a snapshot of the manager's table and memory accounting.
type Stats struct {
	Resources     int // indexed records
	Resident      int // records holding a buffer
	Locked        int
	Enqueued      int
	LockedBytes   int
	EnqueuedBytes int
	Budget        int
}

// Stats walks the table, so it costs one pass over every record.
func (m *Manager) Stats() Stats {
	s := Stats{
		Resources:     m.table.len(),
		Enqueued:      m.lru.Len(),
		LockedBytes:   m.memoryLocked,
		EnqueuedBytes: m.memoryLRU,
		Budget:        m.budget,
	}
	m.table.ascend(func(r *Resource) bool {
		if r.status != StatusNoData {
			s.Resident++
		}
		if r.status == StatusLocked {
			s.Locked++
		}
		return true
	})
	return s
}

// Close drops every resident buffer. The manager stays usable and will
// reload data on demand.
func (m *Manager) Close() error {
	m.table.ascend(func(r *Resource) bool {
		r.unalloc()
		return true
	})
	m.lru.Purge()
	m.memoryLocked, m.memoryLRU = 0, 0
	m.metrics.memory(0, 0)
	return nil
}

func (m *Manager) addToLRU(res *Resource) {
	if res.status != StatusAllocated {
		m.log.Warn("resource is not allocated, cannot enqueue", "resource", res.id, "status", res.status)
		return
	}
	m.lru.Add(res.id, res)
	m.memoryLRU += res.resident()
	res.status = StatusEnqueued
	m.metrics.memory(m.memoryLocked, m.memoryLRU)
}

func (m *Manager) removeFromLRU(res *Resource) {
	if res.status != StatusEnqueued {
		m.log.Warn("resource is not enqueued", "resource", res.id, "status", res.status)
		return
	}
	m.lru.Remove(res.id)
	m.memoryLRU -= res.resident()
	res.status = StatusAllocated
	m.metrics.memory(m.memoryLocked, m.memoryLRU)
}

// freeOldResources evicts from the cold end of the LRU until the budget
// holds. keep is never evicted.
func (m *Manager) freeOldResources(keep *Resource) {
	for m.memoryLocked+m.memoryLRU > m.budget && m.lru.Len() > 0 {
		_, goner, _ := m.lru.GetOldest()
		if goner == keep {
			break
		}
		m.removeFromLRU(goner)
		goner.unalloc()
		m.metrics.evict()
		m.log.Debug("evicted", "resource", goner.id)
	}
	m.metrics.memory(m.memoryLocked, m.memoryLRU)
}

func (m *Manager) load(res *Resource) error {
	var (
		data []byte
		err  error
	)
	switch res.source.Kind {
	case SourcePatch:
		if res.size > m.maxResourceSize {
			err = fmt.Errorf("%w: %d bytes, limit %d", ErrResourceTooBig, res.size, m.maxResourceSize)
			break
		}
		data, err = m.readPatch(res)
	case SourceVolume:
		data, err = m.readVolume(res)
	default:
		err = fmt.Errorf("%w: cannot load from %v", ErrIO, res.source.Kind)
	}

	m.metrics.load(err)
	if err != nil {
		res.unalloc()
		return &LoadError{ID: res.id, Source: res.source.Location, cause: err}
	}

	res.data = data
	res.size = len(data)
	res.status = StatusAllocated
	return nil
}

func (m *Manager) readVolume(res *Resource) ([]byte, error) {
	f, err := m.fs.Open(res.source.Location)
	if err != nil {
		return nil, wrapIO(err)
	}
	defer f.Close()

	if _, err := f.Seek(res.offset, io.SeekStart); err != nil {
		return nil, wrapIO(err)
	}
	return readPayload(bufio.NewReader(f), res, m.volFormat, m.tags, m.maxResourceSize)
}
