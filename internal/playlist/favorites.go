package playlist

import (
	"fmt"
	"slices"
	"sort"
)

// Favorites is the ordered projection of favorite sounds. Position 0 is the
// highest rank; on export a member at position i gets fav_order len-i.
//
// Every change to membership or order rewrites the members' fav_order, so
// node state always carries the projection order.
type Favorites struct {
	tree    *Tree
	members []Handle
}

// Len returns the number of favorites.
func (f *Favorites) Len() int {
	return len(f.members)
}

// List returns the favorites in rank order.
func (f *Favorites) List() []Handle {
	return slices.Clone(f.members)
}

// Contains reports whether h is a favorite.
func (f *Favorites) Contains(h Handle) bool {
	return slices.Contains(f.members, h)
}

// Index returns the projection position of h, or -1.
func (f *Favorites) Index(h Handle) int {
	return slices.Index(f.members, h)
}

// Rank returns the fav_order h would be exported with, or 0.
func (f *Favorites) Rank(h Handle) int {
	i := f.Index(h)
	if i < 0 {
		return 0
	}
	return len(f.members) - i
}

// sound returns the slot of h when h is a live sound.
func (f *Favorites) sound(h Handle) (*slot, bool) {
	s, ok := f.tree.get(h)
	if !ok || KindOf(s.attrs.Type) != KindSound {
		return nil, false
	}
	return s, true
}

// Add marks h as a favorite. It reports false without an error when h
// already is one, is not a sound, or no longer resolves.
func (f *Favorites) Add(h Handle) (bool, error) {
	s, ok := f.sound(h)
	if !ok || f.Contains(h) {
		return false, nil
	}
	if f.tree.config.FavoritePlacement == PlaceAtFront {
		f.members = slices.Insert(f.members, 0, h)
	} else {
		f.members = append(f.members, h)
	}
	s.tags |= TagFavorite
	f.syncRanks()
	f.tree.emit(EventFavorites, h)
	return true, nil
}

// Remove clears the favorite state of h. Like Add, it reports false without
// an error when there is nothing to remove.
func (f *Favorites) Remove(h Handle) (bool, error) {
	s, ok := f.sound(h)
	if !ok {
		return false, nil
	}
	i := f.Index(h)
	if i < 0 {
		return false, nil
	}
	f.members = slices.Delete(f.members, i, i+1)
	s.attrs.FavOrder = 0
	s.tags &^= TagFavorite
	f.syncRanks()
	f.tree.emit(EventFavorites, h)
	return true, nil
}

// Toggle flips the favorite state of h. It returns the resulting state and
// whether anything changed.
func (f *Favorites) Toggle(h Handle) (on, changed bool, err error) {
	if f.Contains(h) {
		changed, err = f.Remove(h)
		return false, changed, err
	}
	changed, err = f.Add(h)
	return changed, changed, err
}

// Move shifts a favorite to index, clamped to the projection bounds.
func (f *Favorites) Move(h Handle, index int) error {
	i := f.Index(h)
	if i < 0 {
		return fmt.Errorf("%w: %v is not a favorite", ErrUnknownNode, h)
	}
	f.members = slices.Delete(f.members, i, i+1)
	f.members = slices.Insert(f.members, clamp(index, len(f.members)), h)
	f.syncRanks()
	f.tree.emit(EventFavorites, h)
	return nil
}

// Reorder replaces the projection order. order must be a permutation of the
// current favorites.
func (f *Favorites) Reorder(order []Handle) error {
	if len(order) != len(f.members) {
		return fmt.Errorf("favorites reorder: got %d handles, want %d", len(order), len(f.members))
	}
	seen := make(map[Handle]bool, len(order))
	for _, h := range order {
		if !f.Contains(h) || seen[h] {
			return fmt.Errorf("favorites reorder: %w: %v", ErrUnknownNode, h)
		}
		seen[h] = true
	}
	f.members = slices.Clone(order)
	f.syncRanks()
	f.tree.emit(EventFavorites, Handle{})
	return nil
}

// Rebuild recomputes the projection from node fav_order values, highest
// first. Ties keep export order. Favorite tags are brought in line.
func (f *Favorites) Rebuild() {
	f.members = f.members[:0]
	for h := range f.tree.All() {
		s := &f.tree.slots[h.index]
		if KindOf(s.attrs.Type) != KindSound {
			continue
		}
		if s.attrs.FavOrder > 0 {
			f.members = append(f.members, h)
			s.tags |= TagFavorite
		} else {
			s.tags &^= TagFavorite
		}
	}
	sort.SliceStable(f.members, func(i, j int) bool {
		return f.tree.slots[f.members[i].index].attrs.FavOrder > f.tree.slots[f.members[j].index].attrs.FavOrder
	})
	f.tree.emit(EventFavorites, Handle{})
}

// syncRanks writes the projection ranks back into node fav_order.
func (f *Favorites) syncRanks() {
	f.lift(0)
}

// lift writes the projection ranks plus floor into node fav_order. Parse
// lifts existing favorites above every incoming rank so they keep their
// order ahead of newly imported ones.
func (f *Favorites) lift(floor int) {
	for i, h := range f.members {
		f.tree.slots[h.index].attrs.FavOrder = floor + len(f.members) - i
	}
}

// insertRanked places a new member before the first member with a lower
// fav_order.
func (f *Favorites) insertRanked(h Handle) {
	fav := f.tree.slots[h.index].attrs.FavOrder
	i := slices.IndexFunc(f.members, func(m Handle) bool {
		return f.tree.slots[m.index].attrs.FavOrder < fav
	})
	if i < 0 {
		i = len(f.members)
	}
	f.members = slices.Insert(f.members, i, h)
}

// drop forgets h without touching its slot.
func (f *Favorites) drop(h Handle) {
	if i := f.Index(h); i >= 0 {
		f.members = slices.Delete(f.members, i, i+1)
		f.syncRanks()
	}
}
