package resource

type Status uint8

const (
	StatusNoData Status = iota
	StatusAllocated
	StatusLocked
	StatusEnqueued
)

func (s Status) String() string {
	switch s {
	case StatusNoData:
		return "Status(NoData)"
	case StatusAllocated:
		return "Status(Allocated)"
	case StatusLocked:
		return "Status(Locked)"
	case StatusEnqueued:
		return "Status(Enqueued)"
	}
	return "Status(UNKNOWN)"
}

// Resource is the table record for one identity. Data is only present
// while the status is Allocated, Locked or Enqueued.
type Resource struct {
	id     ID
	source *Source
	offset int64
	// size is the payload length for patch files and the decoded length
	// once loaded; map entries do not know it up front.
	size int

	data    []uint8
	status  Status
	lockers int
}

func (r *Resource) ID() ID          { return r.id }
func (r *Resource) Type() Type      { return r.id.Type() }
func (r *Resource) Number() Number  { return r.id.Number() }
func (r *Resource) Source() *Source { return r.source }
func (r *Resource) Offset() int64   { return r.offset }
func (r *Resource) Size() int       { return r.size }
func (r *Resource) Status() Status  { return r.status }
func (r *Resource) Lockers() int    { return r.lockers }
func (r *Resource) Bytes() []uint8  { return r.data }
func (r *Resource) resident() int   { return len(r.data) }

func (r *Resource) unalloc() {
	r.data = nil
	r.status = StatusNoData
	r.lockers = 0
}
