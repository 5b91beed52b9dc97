package playlist

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// End is an insertion index meaning "after the last child".
const End = math.MaxInt

// Placement selects where a newly added favorite lands in the projection.
type Placement int

const (
	// PlaceAtEnd appends new favorites, which take the lowest rank.
	PlaceAtEnd Placement = iota
	// PlaceAtFront prepends new favorites, which take the highest rank.
	PlaceAtFront
)

// ParsePlacement accepts "end" or "front".
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "end":
		return PlaceAtEnd, nil
	case "front":
		return PlaceAtFront, nil
	default:
		return PlaceAtEnd, fmt.Errorf("unknown favorite placement %q", s)
	}
}

func (p Placement) String() string {
	if p == PlaceAtFront {
		return "front"
	}
	return "end"
}

// TreeConfig holds tree construction options.
type TreeConfig struct {
	FavoritePlacement Placement
}

// EventKind identifies a tree mutation.
type EventKind int

const (
	EventInserted EventKind = iota
	EventMoved
	EventDeleted
	EventUpdated
	EventFavorites
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventInserted:
		return "inserted"
	case EventMoved:
		return "moved"
	case EventDeleted:
		return "deleted"
	case EventUpdated:
		return "updated"
	case EventFavorites:
		return "favorites"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event describes a mutation. Node is zero for EventReset.
type Event struct {
	Kind EventKind
	Node Handle
}

type slot struct {
	gen      uint32
	live     bool
	attrs    Attributes
	tags     TagSet
	parent   Handle
	children []Handle
}

// Tree is an arena-backed playlist hierarchy with a permanent root.
type Tree struct {
	config    TreeConfig
	slots     []slot
	free      []uint32
	root      Handle
	favRoot   Handle
	discRoot  Handle
	count     int
	favorites *Favorites
	listeners []func(Event)
}

// NewTree returns an empty tree using the default configuration.
func NewTree() *Tree {
	return NewTreeWithConfig(TreeConfig{})
}

// NewTreeWithConfig returns an empty tree.
func NewTreeWithConfig(config TreeConfig) *Tree {
	t := &Tree{config: config}
	t.favorites = &Favorites{tree: t}
	t.reset()
	return t
}

func (t *Tree) reset() {
	t.slots = []slot{{
		gen:   1,
		live:  true,
		attrs: Attributes{Title: RootTitle, Type: TypeRoot},
		tags:  TagDirectory,
	}}
	t.free = nil
	t.root = Handle{index: 0, gen: 1}
	t.favRoot = Handle{}
	t.discRoot = Handle{}
	t.count = 0
	t.favorites.members = nil
}

// Config returns the tree configuration.
func (t *Tree) Config() TreeConfig {
	return t.config
}

// Root returns the permanent root handle.
func (t *Tree) Root() Handle {
	return t.root
}

// FavoritesRoot returns the favorites singleton, if present.
func (t *Tree) FavoritesRoot() (Handle, bool) {
	return t.favRoot, t.Valid(t.favRoot)
}

// DiscoverRoot returns the discover singleton, if present.
func (t *Tree) DiscoverRoot() (Handle, bool) {
	return t.discRoot, t.Valid(t.discRoot)
}

// Favorites returns the favorites projection.
func (t *Tree) Favorites() *Favorites {
	return t.favorites
}

// Len returns the number of nodes, excluding the root.
func (t *Tree) Len() int {
	return t.count
}

// Subscribe registers fn to be called after every mutation.
func (t *Tree) Subscribe(fn func(Event)) {
	t.listeners = append(t.listeners, fn)
}

func (t *Tree) emit(kind EventKind, h Handle) {
	for _, fn := range t.listeners {
		fn(Event{Kind: kind, Node: h})
	}
}

func (t *Tree) get(h Handle) (*slot, bool) {
	if h.gen == 0 || int(h.index) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, false
	}
	return s, true
}

// Valid reports whether h resolves to a live node.
func (t *Tree) Valid(h Handle) bool {
	_, ok := t.get(h)
	return ok
}

// Kind returns the kind of h.
func (t *Tree) Kind(h Handle) (Kind, error) {
	s, ok := t.get(h)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownNode, h)
	}
	return KindOf(s.attrs.Type), nil
}

// Parent returns the parent of h. The root has no parent.
func (t *Tree) Parent(h Handle) (Handle, bool) {
	s, ok := t.get(h)
	if !ok || h == t.root {
		return Handle{}, false
	}
	return s.parent, true
}

// Children returns a copy of the structural children of h. The root's
// result excludes the detached singletons.
func (t *Tree) Children(h Handle) []Handle {
	s, ok := t.get(h)
	if !ok {
		return nil
	}
	return slices.Clone(s.children)
}

// Index returns the position of h among its siblings, or -1 for the root,
// detached singletons and unknown handles.
func (t *Tree) Index(h Handle) int {
	s, ok := t.get(h)
	if !ok || h == t.root {
		return -1
	}
	p, ok := t.get(s.parent)
	if !ok {
		return -1
	}
	return slices.Index(p.children, h)
}

// Node returns a snapshot of h.
func (t *Tree) Node(h Handle) (Node, error) {
	s, ok := t.get(h)
	if !ok {
		return Node{}, fmt.Errorf("%w: %v", ErrUnknownNode, h)
	}
	return Node{
		Attributes: s.attrs,
		Handle:     h,
		Parent:     s.parent,
		Kind:       KindOf(s.attrs.Type),
		Tags:       s.tags,
		Order:      t.Index(h),
		ChildCount: len(s.children),
	}, nil
}

// Ancestors yields h, its parent, and so on up to and including the root.
func (t *Tree) Ancestors(h Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for {
			s, ok := t.get(h)
			if !ok || !yield(h) || h == t.root {
				return
			}
			h = s.parent
		}
	}
}

// All yields every node except the root, in export order: regular top-level
// subtrees first, then the favorites and discover singletons.
func (t *Tree) All() iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		var walk func(h Handle) bool
		walk = func(h Handle) bool {
			if !yield(h) {
				return false
			}
			for _, c := range t.slots[h.index].children {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		for _, h := range t.topLevel() {
			if !walk(h) {
				return
			}
		}
	}
}

// topLevel returns the root's children followed by the present singletons.
func (t *Tree) topLevel() []Handle {
	top := slices.Clone(t.slots[t.root.index].children)
	if t.Valid(t.favRoot) {
		top = append(top, t.favRoot)
	}
	if t.Valid(t.discRoot) {
		top = append(top, t.discRoot)
	}
	return top
}

// FindByUUID returns the first node in export order carrying uuid.
func (t *Tree) FindByUUID(uuid string) (Handle, bool) {
	if uuid == "" {
		return Handle{}, false
	}
	for h := range t.All() {
		if t.slots[h.index].attrs.UUID == uuid {
			return h, true
		}
	}
	return Handle{}, false
}

func (t *Tree) alloc(attrs Attributes, tags TagSet, parent Handle) Handle {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.live = true
		s.attrs = attrs
		s.tags = tags
		s.parent = parent
		s.children = nil
		return Handle{index: idx, gen: s.gen}
	}
	t.slots = append(t.slots, slot{gen: 1, live: true, attrs: attrs, tags: tags, parent: parent})
	return Handle{index: uint32(len(t.slots) - 1), gen: 1}
}

func (t *Tree) release(h Handle) {
	s := &t.slots[h.index]
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.attrs = Attributes{}
	s.children = nil
	s.parent = Handle{}
	t.free = append(t.free, h.index)
}

// Insert creates a node under parent at index, clamped to [0, childCount].
// The node's tags derive from its type; a sound with a positive fav_order
// joins the favorites projection by rank.
func (t *Tree) Insert(parent Handle, index int, attrs Attributes) (Handle, error) {
	p, ok := t.get(parent)
	if !ok {
		return Handle{}, fmt.Errorf("%w: %v", ErrUnknownParent, parent)
	}
	pk := KindOf(p.attrs.Type)
	kind := KindOf(attrs.Type)
	switch {
	case !pk.IsContainer():
		return Handle{}, fmt.Errorf("%w: cannot insert under a sound", ErrInvalidNodeKind)
	case pk == KindFavorites:
		return Handle{}, fmt.Errorf("%w: favorites root has no structural children", ErrInvalidNodeKind)
	case kind == KindRoot:
		return Handle{}, fmt.Errorf("%w: cannot insert a second root", ErrInvalidNodeKind)
	case kind.IsSingleton() && parent != t.root:
		return Handle{}, fmt.Errorf("%w: %s root must be top level", ErrInvalidNodeKind, kind)
	case kind == KindFavorites && t.Valid(t.favRoot), kind == KindDiscover && t.Valid(t.discRoot):
		return Handle{}, fmt.Errorf("%w: %s", ErrSingletonExists, kind)
	}

	attrs.Title = Undecorate(attrs.Title)
	if kind.IsContainer() {
		attrs.FavOrder = 0
	} else if attrs.FavOrder < 0 {
		attrs.FavOrder = 0
	}

	h := t.alloc(attrs, DefaultTags(kind, attrs.FavOrder), parent)
	switch kind {
	case KindFavorites:
		t.favRoot = h
	case KindDiscover:
		t.discRoot = h
	default:
		// alloc may have grown the arena; p is stale.
		p = &t.slots[parent.index]
		p.children = slices.Insert(p.children, clamp(index, len(p.children)), h)
	}
	t.count++
	if kind == KindSound && attrs.FavOrder > 0 {
		t.favorites.insertRanked(h)
	}
	t.emit(EventInserted, h)
	return h, nil
}

// Move detaches node and reinserts it under newParent at index, clamped to
// the new parent's child count after detaching.
func (t *Tree) Move(node, newParent Handle, index int) error {
	s, ok := t.get(node)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownNode, node)
	}
	if node == t.root {
		return fmt.Errorf("%w: the root cannot move", ErrInvalidNodeKind)
	}
	if KindOf(s.attrs.Type).IsSingleton() {
		return fmt.Errorf("%w: %s root cannot move", ErrInvalidNodeKind, KindOf(s.attrs.Type))
	}
	p, ok := t.get(newParent)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownParent, newParent)
	}
	pk := KindOf(p.attrs.Type)
	if !pk.IsContainer() {
		return fmt.Errorf("%w: cannot move under a sound", ErrInvalidNodeKind)
	}
	if pk == KindFavorites {
		return fmt.Errorf("%w: favorites root has no structural children", ErrInvalidNodeKind)
	}
	for a := range t.Ancestors(newParent) {
		if a == node {
			return ErrCycle
		}
	}

	old := &t.slots[s.parent.index]
	old.children = slices.DeleteFunc(old.children, func(c Handle) bool { return c == node })
	p.children = slices.Insert(p.children, clamp(index, len(p.children)), node)
	s.parent = newParent
	t.emit(EventMoved, node)
	return nil
}

// Delete removes node and its subtree. Deleted favorites leave the projection.
func (t *Tree) Delete(node Handle) error {
	s, ok := t.get(node)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownNode, node)
	}
	if node == t.root {
		return fmt.Errorf("%w: the root cannot be deleted", ErrInvalidNodeKind)
	}
	switch node {
	case t.favRoot:
		t.favRoot = Handle{}
	case t.discRoot:
		t.discRoot = Handle{}
	default:
		p := &t.slots[s.parent.index]
		p.children = slices.DeleteFunc(p.children, func(c Handle) bool { return c == node })
	}
	t.deleteSubtree(node)
	t.emit(EventDeleted, node)
	return nil
}

func (t *Tree) deleteSubtree(h Handle) {
	for _, c := range t.slots[h.index].children {
		t.deleteSubtree(c)
	}
	t.favorites.drop(h)
	t.release(h)
	t.count--
}

// Tag replaces the tag set of node.
func (t *Tree) Tag(node Handle, tags TagSet) error {
	s, ok := t.get(node)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownNode, node)
	}
	s.tags = tags
	t.emit(EventUpdated, node)
	return nil
}

// Tags returns the tag set of node.
func (t *Tree) Tags(node Handle) (TagSet, error) {
	s, ok := t.get(node)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownNode, node)
	}
	return s.tags, nil
}

func (t *Tree) editable(node Handle) (*slot, error) {
	s, ok := t.get(node)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownNode, node)
	}
	if node == t.root {
		return nil, fmt.Errorf("%w: the root is read-only", ErrInvalidNodeKind)
	}
	return s, nil
}

// SetTitle renames node. Decoration glyphs are stripped.
func (t *Tree) SetTitle(node Handle, title string) error {
	s, err := t.editable(node)
	if err != nil {
		return err
	}
	s.attrs.Title = Undecorate(title)
	t.emit(EventUpdated, node)
	return nil
}

// SetUUID assigns a uuid to a node that has none.
func (t *Tree) SetUUID(node Handle, uuid string) error {
	s, err := t.editable(node)
	if err != nil {
		return err
	}
	if s.attrs.UUID != "" && s.attrs.UUID != uuid {
		return fmt.Errorf("%w: %s", ErrUUIDImmutable, s.attrs.UUID)
	}
	s.attrs.UUID = uuid
	t.emit(EventUpdated, node)
	return nil
}

// SetImagePath records the cover image of node, which must have a uuid.
func (t *Tree) SetImagePath(node Handle, path string) error {
	s, err := t.editable(node)
	if err != nil {
		return err
	}
	if s.attrs.UUID == "" {
		return ErrMissingUUID
	}
	s.attrs.ImagePath = path
	t.emit(EventUpdated, node)
	return nil
}

// SetSoundPath records the audio file of a sound node.
func (t *Tree) SetSoundPath(node Handle, path string) error {
	s, err := t.editable(node)
	if err != nil {
		return err
	}
	if KindOf(s.attrs.Type).IsContainer() {
		return fmt.Errorf("%w: only sounds carry audio", ErrInvalidNodeKind)
	}
	s.attrs.SoundPath = path
	t.emit(EventUpdated, node)
	return nil
}

// SetLimitTime sets the playback limit of node.
func (t *Tree) SetLimitTime(node Handle, limit int64) error {
	s, err := t.editable(node)
	if err != nil {
		return err
	}
	s.attrs.LimitTime = limit
	t.emit(EventUpdated, node)
	return nil
}

// Clear removes every node except the root. Handles issued before Clear
// never resolve again.
func (t *Tree) Clear() {
	gens := make([]uint32, len(t.slots))
	for i := range t.slots {
		gens[i] = t.slots[i].gen
	}
	t.reset()
	// Keep retired slots so stale handles fail the generation check.
	for i := 1; i < len(gens); i++ {
		g := gens[i] + 1
		if g == 0 {
			g = 1
		}
		t.slots = append(t.slots, slot{gen: g})
		t.free = append(t.free, uint32(i))
	}
	t.slots[0].gen = gens[0] + 1
	if t.slots[0].gen == 0 {
		t.slots[0].gen = 1
	}
	t.root = Handle{index: 0, gen: t.slots[0].gen}
	slices.Reverse(t.free)
	t.emit(EventReset, Handle{})
}

// Validate checks the structural and favorites invariants and returns the
// first violation found.
func (t *Tree) Validate() error {
	seen := make(map[Handle]bool, t.count)
	var walk func(h, parent Handle) error
	walk = func(h, parent Handle) error {
		s, ok := t.get(h)
		if !ok {
			return fmt.Errorf("child %v of %v does not resolve", h, parent)
		}
		if seen[h] {
			return fmt.Errorf("node %v reachable twice", h)
		}
		seen[h] = true
		if s.parent != parent {
			return fmt.Errorf("node %v records parent %v, found under %v", h, s.parent, parent)
		}
		kind := KindOf(s.attrs.Type)
		if !kind.IsContainer() && len(s.children) > 0 {
			return fmt.Errorf("sound %v has children", h)
		}
		if kind == KindFavorites && len(s.children) > 0 {
			return fmt.Errorf("favorites root %v has structural children", h)
		}
		if kind.IsContainer() && s.attrs.FavOrder != 0 {
			return fmt.Errorf("container %v has fav_order %d", h, s.attrs.FavOrder)
		}
		if (kind == KindSound && s.attrs.FavOrder > 0) != t.favorites.Contains(h) {
			return fmt.Errorf("node %v favorite state out of sync", h)
		}
		for _, c := range s.children {
			if err := walk(c, h); err != nil {
				return err
			}
		}
		return nil
	}
	for _, h := range t.topLevel() {
		if err := walk(h, t.root); err != nil {
			return err
		}
	}
	if len(seen) != t.count {
		return fmt.Errorf("reachable nodes %d, tracked %d", len(seen), t.count)
	}
	if t.Valid(t.favRoot) && KindOf(t.slots[t.favRoot.index].attrs.Type) != KindFavorites {
		return fmt.Errorf("favorites root %v has wrong kind", t.favRoot)
	}
	if t.Valid(t.discRoot) && KindOf(t.slots[t.discRoot.index].attrs.Type) != KindDiscover {
		return fmt.Errorf("discover root %v has wrong kind", t.discRoot)
	}
	for _, h := range t.favorites.members {
		if !seen[h] {
			return fmt.Errorf("favorite %v is not in the tree", h)
		}
	}
	return nil
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}
