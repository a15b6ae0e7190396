package resource

import "github.com/google/btree"

// table is the in-memory directory of every known resource, ordered by ID
// so a single type can be walked as a contiguous range.
type table struct {
	tree *btree.BTreeG[*Resource]
}

func newTable() *table {
	return &table{
		tree: btree.NewG[*Resource](8, func(a, b *Resource) bool {
			return a.id < b.id
		}),
	}
}

func probe(id ID) *Resource { return &Resource{id: id} }

func (t *table) has(id ID) bool { return t.tree.Has(probe(id)) }

func (t *table) get(id ID) (*Resource, bool) { return t.tree.Get(probe(id)) }

// insertIfAbsent adds r unless its identity is already present.
func (t *table) insertIfAbsent(r *Resource) bool {
	if t.has(r.id) {
		return false
	}
	t.tree.ReplaceOrInsert(r)
	return true
}

func (t *table) remove(id ID) (*Resource, bool) { return t.tree.Delete(probe(id)) }

func (t *table) len() int { return t.tree.Len() }

func (t *table) ascend(fn func(*Resource) bool) { t.tree.Ascend(fn) }

// ascendType visits the resources of one type in number order.
func (t *table) ascendType(ty Type, fn func(*Resource) bool) {
	from, to := probe(NewID(ty, 0)), probe(NewID(ty+1, 0))
	t.tree.AscendRange(from, to, fn)
}
