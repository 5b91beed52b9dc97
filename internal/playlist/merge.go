package playlist

// HasCollision reports whether any incoming top-level record shares
// (title, uuid) with a regular top-level node of dst.
func HasCollision(items []Item, dst *Tree) bool {
	roots := map[int]bool{RootID: true}
	type key struct{ title, uuid string }
	existing := make(map[key]bool)
	for _, h := range dst.slots[dst.root.index].children {
		a := dst.slots[h.index].attrs
		existing[key{a.Title, a.UUID}] = true
	}
	for _, it := range items {
		kind := KindOf(it.Type)
		if kind == KindRoot {
			roots[it.ID] = true
			continue
		}
		if kind.IsSingleton() || !roots[it.ParentID] {
			continue
		}
		if existing[key{Undecorate(it.Title), it.UUID}] {
			return true
		}
	}
	return false
}

// merger places parsed records, tracking the next insertion index for every
// parent touched during one Parse call.
type merger struct {
	tree    *Tree
	merge   bool
	offsets map[Handle]int
}

func newMerger(t *Tree, merge bool) *merger {
	return &merger{tree: t, merge: merge, offsets: make(map[Handle]int)}
}

// offset returns the insertion index for parent. It starts after the
// children the parent had when first seen.
func (m *merger) offset(parent Handle) int {
	if o, ok := m.offsets[parent]; ok {
		return o
	}
	o := len(m.tree.slots[parent.index].children)
	m.offsets[parent] = o
	return o
}

// place reuses a matching child of parent or inserts a new node. It reports
// whether a node was created.
func (m *merger) place(parent Handle, it Item) (Handle, bool, error) {
	kind := KindOf(it.Type)
	if m.merge && !kind.IsSingleton() {
		if h, ok := m.match(parent, it); ok {
			return h, false, nil
		}
	}
	idx := 0
	if !kind.IsSingleton() {
		idx = m.offset(parent)
	}
	h, err := m.tree.Insert(parent, idx, it.Attributes())
	if err != nil {
		return Handle{}, false, err
	}
	if !kind.IsSingleton() {
		m.offsets[parent] = idx + 1
	}
	return h, true, nil
}

// match finds an existing child of parent with the record's identity and
// container class.
func (m *merger) match(parent Handle, it Item) (Handle, bool) {
	title := Undecorate(it.Title)
	container := KindOf(it.Type).IsContainer()
	for _, c := range m.tree.slots[parent.index].children {
		a := m.tree.slots[c.index].attrs
		if a.Title == title && a.UUID == it.UUID && KindOf(a.Type).IsContainer() == container {
			return c, true
		}
	}
	return Handle{}, false
}

// favorite resolves a sound listed under a favorites record. The first sound
// of the tree with the same (title, uuid) becomes a favorite; without one the
// record is placed at the top level.
func (m *merger) favorite(it Item) (Handle, bool, error) {
	rank := max(it.FavOrder, 1)
	title := Undecorate(it.Title)
	for h := range m.tree.All() {
		s := &m.tree.slots[h.index]
		if KindOf(s.attrs.Type) == KindSound && s.attrs.Title == title && s.attrs.UUID == it.UUID {
			if s.attrs.FavOrder == 0 {
				s.attrs.FavOrder = rank
			}
			return h, false, nil
		}
	}
	it.FavOrder = rank
	return m.place(m.tree.root, it)
}
