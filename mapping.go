package sci

import "github.com/32bitkid/sciresource/resource"

// Mapping is a handle to one indexed resource of an open game.
type Mapping struct {
	manager *resource.Manager
	id      resource.ID
}

func (m Mapping) ID() resource.ID         { return m.id }
func (m Mapping) Type() resource.Type     { return m.id.Type() }
func (m Mapping) Number() resource.Number { return m.id.Number() }

// Bytes returns the decoded resource. The slice may be dropped by the
// manager on a later request; use Lock to keep it.
func (m Mapping) Bytes() ([]byte, error) {
	return m.manager.Find(m.Type(), m.Number(), false)
}

func (m Mapping) Lock() ([]byte, error) {
	return m.manager.Find(m.Type(), m.Number(), true)
}

func (m Mapping) Unlock() { m.manager.Unlock(m.Type(), m.Number()) }

// Mappings lists the resources of the given types, or of every type if
// none are given, in type and number order.
func Mappings(manager *resource.Manager, types ...resource.Type) []Mapping {
	if len(types) == 0 {
		for t := resource.TypeView; t < resource.TypeInvalid; t++ {
			types = append(types, t)
		}
	}

	var mappings []Mapping
	for _, t := range types {
		for _, n := range manager.List(t) {
			mappings = append(mappings, Mapping{manager: manager, id: resource.NewID(t, n)})
		}
	}
	return mappings
}
