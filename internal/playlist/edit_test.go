package playlist

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAddMenuPlacement(t *testing.T) {
	tree := NewTree()
	root := tree.Root()
	d := mustInsert(t, tree, root, End, dir("d", "ud"))
	s := mustInsert(t, tree, d, End, sound("s", "us"))
	mustInsert(t, tree, d, End, sound("t", "ut"))

	// Selected directory: first child.
	m1, err := AddMenu(tree, d, MenuSpec{UUID: "m1"})
	if err != nil {
		t.Fatalf("AddMenu failed: %v", err)
	}
	// Selected sound: right after it.
	m2, err := AddMenu(tree, s, MenuSpec{Title: "after", UUID: "m2"})
	if err != nil {
		t.Fatalf("AddMenu failed: %v", err)
	}
	// No selection: top of the root.
	m3, err := AddMenu(tree, Handle{}, MenuSpec{Title: "top", UUID: "m3"})
	if err != nil {
		t.Fatalf("AddMenu failed: %v", err)
	}

	if got := titles(t, tree, tree.Children(d)); !slices.Equal(got, []string{DefaultMenuTitle, "s", "after", "t"}) {
		t.Errorf("Unexpected children %v", got)
	}
	if tree.Index(m1) != 0 || tree.Index(m2) != 2 || tree.Index(m3) != 0 {
		t.Errorf("Unexpected indexes %d %d %d", tree.Index(m1), tree.Index(m2), tree.Index(m3))
	}
	n, _ := tree.Node(m1)
	if n.Type != TypeMenu || n.Kind != KindDirectory {
		t.Errorf("Expected a menu node, got %+v", n)
	}
}

func TestAddSoundPlacement(t *testing.T) {
	tree := NewTree()
	d := mustInsert(t, tree, tree.Root(), End, dir("d", "ud"))
	first := mustInsert(t, tree, d, End, sound("first", "u1"))
	mustInsert(t, tree, d, End, sound("last", "u2"))

	a, err := AddSound(tree, d, SoundSpec{Title: "end", UUID: "ua", SoundPath: "ua.mp3"})
	if err != nil {
		t.Fatalf("AddSound failed: %v", err)
	}
	if _, err := AddSound(tree, first, SoundSpec{Title: "second", UUID: "ub"}); err != nil {
		t.Fatalf("AddSound failed: %v", err)
	}

	if got := titles(t, tree, tree.Children(d)); !slices.Equal(got, []string{"first", "second", "last", "end"}) {
		t.Errorf("Unexpected children %v", got)
	}
	n, _ := tree.Node(a)
	if n.SoundPath != "ua.mp3" || !n.Tags.Has(TagSound) {
		t.Errorf("Unexpected node %+v", n)
	}
}

func TestMoveHelpers(t *testing.T) {
	tree := NewTree()
	root := tree.Root()
	d := mustInsert(t, tree, root, End, dir("d", "ud"))
	a := mustInsert(t, tree, d, End, sound("a", "ua"))
	b := mustInsert(t, tree, d, End, sound("b", "ub"))
	c := mustInsert(t, tree, d, End, sound("c", "uc"))

	if err := MoveUp(tree, a); err != nil {
		t.Fatalf("MoveUp failed: %v", err)
	}
	if err := MoveDown(tree, c); err != nil {
		t.Fatalf("MoveDown failed: %v", err)
	}
	if got := titles(t, tree, tree.Children(d)); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected boundary moves to be no-ops, got %v", got)
	}

	if err := MoveDown(tree, a); err != nil {
		t.Fatalf("MoveDown failed: %v", err)
	}
	if err := MoveUp(tree, c); err != nil {
		t.Fatalf("MoveUp failed: %v", err)
	}
	if got := titles(t, tree, tree.Children(d)); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Errorf("Expected [b c a], got %v", got)
	}

	if err := MoveToParent(tree, b); err != nil {
		t.Fatalf("MoveToParent failed: %v", err)
	}
	if p, _ := tree.Parent(b); p != root {
		t.Errorf("Expected b under root, got %v", p)
	}
	if err := MoveToParent(tree, b); err != nil {
		t.Fatalf("MoveToParent failed: %v", err)
	}
	if got := tree.Children(root); !slices.Equal(got, []Handle{d, b}) {
		t.Errorf("Expected top-level move to be a no-op, got %v", got)
	}

	if err := MoveUp(tree, root); !errors.Is(err, ErrInvalidNodeKind) {
		t.Errorf("Expected ErrInvalidNodeKind for root, got %v", err)
	}
}

func TestShortenTitles(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "single file",
			paths: []string{"/music/Le Loup.mp3"},
			want:  []string{"Le Loup"},
		},
		{
			name:  "numbered batch",
			paths: []string{"/m/Story - Part 1.mp3", "/m/Story - Part 2.mp3"},
			want:  []string{"1", "2"},
		},
		{
			name:  "shared directory",
			paths: []string{"/m/Alpha.mp3", "/m/Bravo.mp3"},
			want:  []string{"Alpha", "Bravo"},
		},
		{
			name:  "identical names fall back to base",
			paths: []string{"/m/x.mp3", "/m/x.mp3"},
			want:  []string{"x", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortenTitles(tt.paths); !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestShortenTitlesTruncates(t *testing.T) {
	long := strings.Repeat("é", 70)
	got := ShortenTitles([]string{"/m/" + long + ".mp3"})[0]

	if len(got) > MaxTitleBytes {
		t.Errorf("Expected at most %d bytes, got %d", MaxTitleBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("Expected valid UTF-8 after truncation")
	}
	if got != strings.Repeat("é", 30) {
		t.Errorf("Expected 30 runes, got %d", utf8.RuneCountInString(got))
	}
}
