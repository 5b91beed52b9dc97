package playlist

import "fmt"

// RootID is the id of the root record in every flat list.
const RootID = 1

// Item is one record of the device's flat list.
type Item struct {
	ID         int    `json:"id"`
	ParentID   int    `json:"parent_id"`
	Order      int    `json:"order"`
	NbChildren int    `json:"nb_children"`
	FavOrder   int    `json:"fav_order"`
	Type       int    `json:"type"`
	LimitTime  int64  `json:"limit_time"`
	AddTime    int64  `json:"add_time"`
	UUID       string `json:"uuid"`
	Title      string `json:"title"`
	ImagePath  string `json:"imagepath,omitempty"`
	SoundPath  string `json:"soundpath,omitempty"`
}

// RootItem returns the root record with no children.
func RootItem() Item {
	return Item{ID: RootID, Type: TypeRoot, Title: RootTitle}
}

// Attributes returns the node attributes carried by the record.
func (it Item) Attributes() Attributes {
	return Attributes{
		Title:     Undecorate(it.Title),
		UUID:      it.UUID,
		Type:      it.Type,
		FavOrder:  it.FavOrder,
		ImagePath: it.ImagePath,
		SoundPath: it.SoundPath,
		LimitTime: it.LimitTime,
		AddTime:   it.AddTime,
	}
}

func itemOf(a Attributes) Item {
	return Item{
		Type:      a.Type,
		FavOrder:  a.FavOrder,
		LimitTime: a.LimitTime,
		AddTime:   a.AddTime,
		UUID:      a.UUID,
		Title:     a.Title,
		ImagePath: a.ImagePath,
		SoundPath: a.SoundPath,
	}
}

// Flatten serialises t pre-order. The root gets id 1 and every other node the
// next id in visit order. Favorites ranks are written back into the tree
// first, so exported fav_order values match the projection.
func Flatten(t *Tree) []Item {
	t.favorites.syncRanks()

	top := t.topLevel()
	root := RootItem()
	root.NbChildren = len(top)
	items := make([]Item, 1, t.count+1)
	items[0] = root

	next := RootID
	var visit func(h Handle, parentID, order int)
	visit = func(h Handle, parentID, order int) {
		next++
		s := &t.slots[h.index]
		it := itemOf(s.attrs)
		it.ID = next
		it.ParentID = parentID
		it.Order = order
		it.NbChildren = len(s.children)
		switch KindOf(s.attrs.Type) {
		case KindFavorites:
			it.NbChildren = t.favorites.Len()
		case KindSound:
			it.FavOrder = t.favorites.Rank(h)
		}
		items = append(items, it)
		id := next
		for i, c := range s.children {
			visit(c, id, i)
		}
	}
	for i, h := range top {
		visit(h, RootID, i)
	}
	return items
}

// ParseOptions control how Parse combines records with the destination.
type ParseOptions struct {
	// Merge reuses existing nodes that share (title, uuid) with incoming
	// records. It only applies when the incoming top level collides with the
	// destination.
	Merge bool
	// Overwrite clears the destination before parsing. It disables Merge.
	Overwrite bool
}

// ParseResult summarises a Parse call.
type ParseResult struct {
	Created      int
	Reused       int
	Skipped      int
	MergeApplied bool
}

// ValidateItems checks that ids are unique and that every record refers to
// an earlier container. Parse runs it before touching the destination.
func ValidateItems(items []Item) error {
	kinds := map[int]Kind{RootID: KindRoot}
	seen := make(map[int]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return fmt.Errorf("%w: item id %d appears twice", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = true
		kind := KindOf(it.Type)
		if kind == KindRoot {
			kinds[it.ID] = kind
			continue
		}
		pk, ok := kinds[it.ParentID]
		switch {
		case !ok:
			return fmt.Errorf("%w: item %d references parent %d", ErrUnknownParent, it.ID, it.ParentID)
		case !pk.IsContainer():
			return fmt.Errorf("%w: item %d has sound %d as parent", ErrInvalidNodeKind, it.ID, it.ParentID)
		case pk == KindFavorites && kind != KindSound:
			return fmt.Errorf("%w: item %d under the favorites root is not a sound", ErrInvalidNodeKind, it.ID)
		case kind.IsSingleton() && pk != KindRoot:
			return fmt.Errorf("%w: %s item %d is not top level", ErrInvalidNodeKind, kind, it.ID)
		}
		kinds[it.ID] = kind
	}
	return nil
}

// Parse rebuilds records into dst. The record list must be in parent-first
// order, as Flatten produces it.
//
// Records of root type map to dst's root. Favorites and discover records map
// to the existing singleton when dst already has one. When the merge policy
// applies, a record whose (title, uuid) matches an existing child of the
// same parent and class (container or sound) reuses that child; otherwise
// new nodes are appended after the parent's existing children.
//
// Sounds listed under a favorites record mark the matching sound of dst as a
// favorite. Without a match they are appended to the top level.
//
// Favorites dst already had keep their order, ahead of favorites brought in
// by the records.
func Parse(items []Item, dst *Tree, opts ParseOptions) (ParseResult, error) {
	var res ParseResult
	if err := ValidateItems(items); err != nil {
		return res, err
	}
	if opts.Overwrite {
		dst.Clear()
	}
	res.MergeApplied = opts.Merge && !opts.Overwrite && HasCollision(items, dst)

	top := 0
	for _, it := range items {
		top = max(top, it.FavOrder)
	}
	dst.favorites.lift(top)

	m := newMerger(dst, res.MergeApplied)
	ids := map[int]Handle{RootID: dst.root}
	for _, it := range items {
		kind := KindOf(it.Type)
		switch {
		case kind == KindRoot:
			ids[it.ID] = dst.root
			res.Skipped++
			continue
		case kind == KindFavorites && dst.Valid(dst.favRoot):
			ids[it.ID] = dst.favRoot
			res.Skipped++
			continue
		case kind == KindDiscover && dst.Valid(dst.discRoot):
			ids[it.ID] = dst.discRoot
			res.Skipped++
			continue
		}
		parent, ok := ids[it.ParentID]
		if !ok {
			return res, fmt.Errorf("%w: item %d references parent %d", ErrUnknownParent, it.ID, it.ParentID)
		}
		var (
			h       Handle
			created bool
			err     error
		)
		if dst.Valid(dst.favRoot) && parent == dst.favRoot {
			h, created, err = m.favorite(it)
		} else {
			h, created, err = m.place(parent, it)
		}
		if err != nil {
			return res, fmt.Errorf("item %d: %w", it.ID, err)
		}
		ids[it.ID] = h
		if created {
			res.Created++
		} else {
			res.Reused++
		}
	}
	dst.favorites.Rebuild()
	return res, nil
}
