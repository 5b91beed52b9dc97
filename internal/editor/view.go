package editor

import "merlin-playlist/internal/playlist"

// NodeView is the JSON shape of a node.
type NodeView struct {
	Handle       playlist.Handle `json:"handle"`
	Title        string          `json:"title"`
	DisplayTitle string          `json:"displayTitle"`
	UUID         string          `json:"uuid"`
	Type         int             `json:"type"`
	Kind         string          `json:"kind"`
	Tags         []string        `json:"tags"`
	FavOrder     int             `json:"favOrder,omitempty"`
	ImagePath    string          `json:"imagePath,omitempty"`
	SoundPath    string          `json:"soundPath,omitempty"`
	LimitTime    int64           `json:"limitTime,omitempty"`
	AddTime      int64           `json:"addTime,omitempty"`
	Children     []NodeView      `json:"children,omitempty"`
}

// TreeView is the JSON shape of the whole playlist.
type TreeView struct {
	Root      NodeView          `json:"root"`
	Favorites []playlist.Handle `json:"favorites"`
	Count     int               `json:"count"`
}

func nodeView(t *playlist.Tree, n playlist.Node) NodeView {
	v := NodeView{
		Handle:       n.Handle,
		Title:        n.Title,
		DisplayTitle: playlist.Decorate(n.Title, n.Kind),
		UUID:         n.UUID,
		Type:         n.Type,
		Kind:         n.Kind.String(),
		Tags:         n.Tags.Names(),
		ImagePath:    n.ImagePath,
		SoundPath:    n.SoundPath,
		LimitTime:    n.LimitTime,
		AddTime:      n.AddTime,
	}
	if n.Kind == playlist.KindSound {
		v.FavOrder = t.Favorites().Rank(n.Handle)
	}
	return v
}

func subtreeView(t *playlist.Tree, h playlist.Handle) NodeView {
	n, err := t.Node(h)
	if err != nil {
		return NodeView{Handle: h}
	}
	v := nodeView(t, n)
	for _, c := range t.Children(h) {
		v.Children = append(v.Children, subtreeView(t, c))
	}
	return v
}

func buildView(t *playlist.Tree) TreeView {
	root := subtreeView(t, t.Root())
	if h, ok := t.FavoritesRoot(); ok {
		root.Children = append(root.Children, subtreeView(t, h))
	}
	if h, ok := t.DiscoverRoot(); ok {
		root.Children = append(root.Children, subtreeView(t, h))
	}
	favorites := t.Favorites().List()
	if favorites == nil {
		favorites = []playlist.Handle{}
	}
	return TreeView{Root: root, Favorites: favorites, Count: t.Len()}
}
