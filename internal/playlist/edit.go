package playlist

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultMenuTitle names menus created without a title.
const DefaultMenuTitle = "Nouveau Menu"

// MaxTitleBytes is the longest title the device displays.
const MaxTitleBytes = 60

// MenuSpec describes a menu to add.
type MenuSpec struct {
	Title   string
	UUID    string
	AddTime int64
}

// SoundSpec describes a sound to add.
type SoundSpec struct {
	Title     string
	UUID      string
	SoundPath string
	AddTime   int64
}

// placement resolves where a new node goes relative to the selected node:
// into a selected directory at dirIndex, otherwise right after the selection.
// An empty or unknown selection targets the top level.
func placement(t *Tree, selected Handle, dirIndex int) (Handle, int) {
	s, ok := t.get(selected)
	if !ok || selected == t.root {
		return t.root, dirIndex
	}
	if KindOf(s.attrs.Type) == KindDirectory {
		return selected, dirIndex
	}
	i := t.Index(selected)
	if i < 0 {
		return t.root, dirIndex
	}
	return s.parent, i + 1
}

// AddMenu creates a menu as the first child of a selected directory, or
// after any other selection.
func AddMenu(t *Tree, selected Handle, spec MenuSpec) (Handle, error) {
	parent, index := placement(t, selected, 0)
	title := spec.Title
	if title == "" {
		title = DefaultMenuTitle
	}
	return t.Insert(parent, index, Attributes{
		Title:   TruncateTitle(title),
		UUID:    spec.UUID,
		Type:    TypeMenu,
		AddTime: spec.AddTime,
	})
}

// AddSound creates a sound as the last child of a selected directory, or
// after any other selection.
func AddSound(t *Tree, selected Handle, spec SoundSpec) (Handle, error) {
	parent, index := placement(t, selected, End)
	return t.Insert(parent, index, Attributes{
		Title:     TruncateTitle(spec.Title),
		UUID:      spec.UUID,
		Type:      TypeSound,
		SoundPath: spec.SoundPath,
		AddTime:   spec.AddTime,
	})
}

// MoveUp swaps node with its previous sibling. It is a no-op for the first
// child.
func MoveUp(t *Tree, node Handle) error {
	i, parent, err := position(t, node)
	if err != nil || i <= 0 {
		return err
	}
	return t.Move(node, parent, i-1)
}

// MoveDown swaps node with its next sibling. It is a no-op for the last
// child.
func MoveDown(t *Tree, node Handle) error {
	i, parent, err := position(t, node)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(t.slots[parent.index].children)-1 {
		return nil
	}
	return t.Move(node, parent, i+1)
}

// MoveToParent moves node to the end of its grandparent. Top-level nodes
// stay where they are.
func MoveToParent(t *Tree, node Handle) error {
	_, parent, err := position(t, node)
	if err != nil || parent == t.root {
		return err
	}
	return t.Move(node, t.slots[parent.index].parent, End)
}

func position(t *Tree, node Handle) (int, Handle, error) {
	kind, err := t.Kind(node)
	if err != nil {
		return -1, Handle{}, err
	}
	if kind == KindRoot || kind.IsSingleton() {
		return -1, Handle{}, ErrInvalidNodeKind
	}
	return t.Index(node), t.slots[node.index].parent, nil
}

// ShortenTitles derives titles from file paths. A batch of several paths
// loses the prefix and suffix common to all of them; a single path keeps its
// base name without extension. Titles are capped at MaxTitleBytes.
func ShortenTitles(paths []string) []string {
	titles := make([]string, len(paths))
	prefix, suffix := "", ""
	if len(paths) > 1 {
		prefix, suffix = commonPrefix(paths), commonSuffix(paths)
	}
	for i, p := range paths {
		title := p
		if prefix == "" && suffix == "" {
			title = baseTitle(p)
		} else {
			title = strings.TrimPrefix(title, prefix)
			title = strings.TrimSuffix(title, suffix)
			if title == "" {
				title = baseTitle(p)
			}
		}
		titles[i] = TruncateTitle(title)
	}
	return titles
}

func baseTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func commonPrefix(ss []string) string {
	prefix := ss[0]
	for _, s := range ss[1:] {
		n := 0
		for n < len(prefix) && n < len(s) && prefix[n] == s[n] {
			n++
		}
		prefix = prefix[:n]
	}
	// Never split a multi-byte rune.
	for len(prefix) > 0 && !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

func commonSuffix(ss []string) string {
	suffix := ss[0]
	for _, s := range ss[1:] {
		n := 0
		for n < len(suffix) && n < len(s) && suffix[len(suffix)-1-n] == s[len(s)-1-n] {
			n++
		}
		suffix = suffix[len(suffix)-n:]
	}
	for len(suffix) > 0 && !utf8.ValidString(suffix) {
		suffix = suffix[1:]
	}
	return suffix
}

// TruncateTitle caps title at MaxTitleBytes without splitting a rune.
func TruncateTitle(title string) string {
	if len(title) <= MaxTitleBytes {
		return title
	}
	cut := MaxTitleBytes
	for cut > 0 && !utf8.RuneStart(title[cut]) {
		cut--
	}
	return title[:cut]
}
