package playlist

import (
	"fmt"
	"strconv"
	"strings"
)

// Device type codes.
const (
	TypeRoot      = 1
	TypeDirectory = 2
	TypeSound     = 4
	TypeMenu      = 6
	TypeFavorites = 10
	TypeDiscover  = 18
)

// Fixed identities of the two singleton containers.
const (
	FavoritesUUID  = "cd6949db-7c5f-486a-aa2b-48a80a7950d5"
	FavoritesTitle = "Merlin_favorite"
	DiscoverUUID   = "8794f486-c461-4ace-a44b-85c359f84017"
	DiscoverTitle  = "Merlin_discover"
	RootTitle      = "Root"
)

// Kind classifies a node by its type code.
type Kind int

const (
	KindSound Kind = iota
	KindDirectory
	KindFavorites
	KindDiscover
	KindRoot
)

// KindOf derives the node kind from a device type code.
func KindOf(typeCode int) Kind {
	switch ((typeCode % 32) + 32) % 32 {
	case TypeRoot:
		return KindRoot
	case TypeDirectory, TypeMenu:
		return KindDirectory
	case TypeFavorites:
		return KindFavorites
	case TypeDiscover:
		return KindDiscover
	default:
		return KindSound
	}
}

// IsContainer reports whether nodes of this kind may hold children.
func (k Kind) IsContainer() bool {
	return k != KindSound
}

// IsSingleton reports whether at most one node of this kind may exist.
func (k Kind) IsSingleton() bool {
	return k == KindFavorites || k == KindDiscover
}

func (k Kind) String() string {
	switch k {
	case KindSound:
		return "sound"
	case KindDirectory:
		return "directory"
	case KindFavorites:
		return "favorites"
	case KindDiscover:
		return "discover"
	case KindRoot:
		return "root"
	default:
		return "unknown"
	}
}

// TagSet is a bit set of presentation tags.
type TagSet uint8

const (
	TagDirectory TagSet = 1 << iota
	TagSound
	TagFavorite
)

var tagNames = []struct {
	tag  TagSet
	name string
}{
	{TagDirectory, "directory"},
	{TagSound, "sound"},
	{TagFavorite, "favorite"},
}

// DefaultTags returns the tags a node of the given kind starts with.
func DefaultTags(kind Kind, favOrder int) TagSet {
	if kind.IsContainer() {
		return TagDirectory
	}
	if favOrder > 0 {
		return TagSound | TagFavorite
	}
	return TagSound
}

// Has reports whether every bit of tag is set.
func (t TagSet) Has(tag TagSet) bool {
	return t&tag == tag
}

// Names returns the tag names in a stable order.
func (t TagSet) Names() []string {
	names := make([]string, 0, len(tagNames))
	for _, tn := range tagNames {
		if t.Has(tn.tag) {
			names = append(names, tn.name)
		}
	}
	return names
}

func (t TagSet) String() string {
	return strings.Join(t.Names(), "|")
}

// ParseTags converts tag names back to a TagSet.
func ParseTags(names []string) (TagSet, error) {
	var t TagSet
	for _, name := range names {
		found := false
		for _, tn := range tagNames {
			if tn.name == name {
				t |= tn.tag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown tag %q", name)
		}
	}
	return t, nil
}

// Attributes are the device-visible fields of a node.
type Attributes struct {
	Title     string
	UUID      string
	Type      int
	FavOrder  int
	ImagePath string
	SoundPath string
	LimitTime int64
	AddTime   int64
}

// Handle addresses a node in a Tree. The zero Handle never resolves.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h.index), 10) + "." + strconv.FormatUint(uint64(h.gen), 10)
}

// MarshalText encodes the handle as "index.generation".
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a handle produced by MarshalText.
func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := ParseHandle(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHandle decodes a handle produced by Handle.String.
func ParseHandle(s string) (Handle, error) {
	idx, gen, ok := strings.Cut(s, ".")
	if !ok {
		return Handle{}, fmt.Errorf("invalid handle %q", s)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid handle %q: %w", s, err)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil || g == 0 {
		return Handle{}, fmt.Errorf("invalid handle %q", s)
	}
	return Handle{index: uint32(i), gen: uint32(g)}, nil
}

// Node is a read-only snapshot of a tree node.
type Node struct {
	Attributes
	Handle     Handle
	Parent     Handle
	Kind       Kind
	Tags       TagSet
	Order      int // -1 for the root and detached singletons
	ChildCount int
}
