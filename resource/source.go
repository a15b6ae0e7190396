package resource

type SourceKind uint8

const (
	SourceExternalMap SourceKind = iota
	SourceVolume
	SourcePatchDirectory
	// SourcePatch is a single loose patch file. It is not held by the
	// registry; the record it describes owns it.
	SourcePatch
)

func (k SourceKind) String() string {
	switch k {
	case SourceExternalMap:
		return "SourceKind(ExternalMap)"
	case SourceVolume:
		return "SourceKind(Volume)"
	case SourcePatchDirectory:
		return "SourceKind(PatchDirectory)"
	case SourcePatch:
		return "SourceKind(Patch)"
	}
	return "SourceKind(UNKNOWN)"
}

// Source is where resource bytes physically live.
type Source struct {
	Kind     SourceKind
	Location string

	// Volume and Map are only set for SourceVolume.
	Volume int
	Map    *Source

	scanned bool
}

func (s *Source) Scanned() bool { return s.scanned }

// Sources is the registry of every source a manager knows about, kept in
// registration order.
type Sources struct {
	list []*Source
}

func (s *Sources) add(src *Source) *Source {
	s.list = append(s.list, src)
	return src
}

func (s *Sources) AddExternalMap(name string) *Source {
	return s.add(&Source{Kind: SourceExternalMap, Location: name})
}

func (s *Sources) AddVolume(m *Source, filename string, number int) *Source {
	return s.add(&Source{Kind: SourceVolume, Location: filename, Volume: number, Map: m})
}

func (s *Sources) AddPatchDirectory(path string) *Source {
	return s.add(&Source{Kind: SourcePatchDirectory, Location: path})
}

// Volume finds the data file numbered n that belongs to map m.
func (s *Sources) Volume(m *Source, n int) *Source {
	for _, src := range s.list {
		if src.Kind == SourceVolume && src.Map == m && src.Volume == n {
			return src
		}
	}
	return nil
}

// First returns the earliest registered source of the given kind.
func (s *Sources) First(kind SourceKind) *Source {
	for _, src := range s.list {
		if src.Kind == kind {
			return src
		}
	}
	return nil
}

// All returns the sources in registration order.
func (s *Sources) All() []*Source {
	return append([]*Source(nil), s.list...)
}

func (s *Sources) Len() int { return len(s.list) }

// ScanOrder is the order sources are indexed in: the newest source first,
// with every patch directory ahead of every map. Tables are filled
// first-registered-wins, so this is what lets patches override volumes.
func (s *Sources) ScanOrder() []*Source {
	order := make([]*Source, 0, len(s.list))
	for i := len(s.list) - 1; i >= 0; i-- {
		if s.list[i].Kind == SourcePatchDirectory {
			order = append(order, s.list[i])
		}
	}
	for i := len(s.list) - 1; i >= 0; i-- {
		if s.list[i].Kind != SourcePatchDirectory {
			order = append(order, s.list[i])
		}
	}
	return order
}
