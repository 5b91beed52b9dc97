package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"merlin-playlist/internal/database"
	"merlin-playlist/internal/metrics"
	"merlin-playlist/internal/playlist"
	"merlin-playlist/internal/transcoder"
)

type fakeAudio struct {
	dir     string
	mu      sync.Mutex
	removed []string
}

func (f *fakeAudio) Prepare(_ context.Context, src, uuid string) (transcoder.Prepared, error) {
	if strings.Contains(src, "bad") {
		return transcoder.Prepared{}, transcoder.ErrUnsupportedFormat
	}
	return transcoder.Prepared{Source: src, Path: f.SoundPath(uuid), UUID: uuid, Result: transcoder.ResultCopied}, nil
}

func (f *fakeAudio) SoundPath(uuid string) string {
	return filepath.Join(f.dir, uuid+".mp3")
}

func (f *fakeAudio) Remove(uuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, uuid)
	return nil
}

type fakeCovers struct {
	created map[string]string
	removed []string
	// onCreate runs after a cover is written, before CreateCover returns.
	onCreate func()
}

func (f *fakeCovers) CreateCover(src, uuid string) (string, error) {
	if f.created == nil {
		f.created = make(map[string]string)
	}
	f.created[uuid] = src
	if f.onCreate != nil {
		f.onCreate()
	}
	return uuid + ".jpg", nil
}

func (f *fakeCovers) RemoveCover(uuid string) error {
	f.removed = append(f.removed, uuid)
	return nil
}

func (f *fakeCovers) ClearIcons() (int, error) {
	return 0, nil
}

func (f *fakeCovers) Icon(uuid string) ([]byte, error) {
	if _, ok := f.created[uuid]; !ok {
		return nil, errors.New("no cover")
	}
	return []byte("icon:" + uuid), nil
}

// newTestSession returns a Session with fake media, sequential uuids and a
// fixed clock.
func newTestSession(t *testing.T, opts Options, store Store) (*Session, *fakeAudio, *fakeCovers) {
	t.Helper()
	audio := &fakeAudio{dir: t.TempDir()}
	covers := &fakeCovers{}
	s := New(opts, audio, covers, store)
	n := 0
	s.newUUID = func() string {
		n++
		return fmt.Sprintf("uuid-%d", n)
	}
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s, audio, covers
}

func newTestStore(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func childTitles(v NodeView) []string {
	var titles []string
	for _, c := range v.Children {
		titles = append(titles, c.Title)
	}
	return titles
}

func TestAddMenuAndSounds(t *testing.T) {
	s, _, _ := newTestSession(t, Options{Workers: 2}, nil)
	ctx := context.Background()

	menu, err := s.AddMenu(playlist.Handle{}, "Contes")
	if err != nil {
		t.Fatalf("AddMenu failed: %v", err)
	}
	handles, err := s.AddSounds(ctx, menu, []string{"/in/Story 1.mp3", "/in/Story 2.mp3", "/in/Story 3.mp3"})
	if err != nil {
		t.Fatalf("AddSounds failed: %v", err)
	}
	if len(handles) != 3 {
		t.Fatalf("Expected 3 handles, got %d", len(handles))
	}

	view := s.Tree()
	if got := childTitles(view.Root); !slices.Equal(got, []string{"Contes"}) {
		t.Fatalf("Expected [Contes], got %v", got)
	}
	contes := view.Root.Children[0]
	if got := childTitles(contes); !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Errorf("Expected sounds in path order, got %v", got)
	}
	first := contes.Children[0]
	if first.UUID != "uuid-2" || first.SoundPath != "uuid-2.mp3" || first.AddTime != 1700000000 {
		t.Errorf("Unexpected sound %+v", first)
	}
	if first.DisplayTitle != playlist.SoundGlyph+"1" {
		t.Errorf("Expected decorated display title, got %q", first.DisplayTitle)
	}
	if view.Count != 4 {
		t.Errorf("Expected 4 nodes, got %d", view.Count)
	}
}

func TestAddSoundsFailureRemovesPrepared(t *testing.T) {
	s, audio, _ := newTestSession(t, Options{Workers: 1}, nil)

	_, err := s.AddSounds(context.Background(), playlist.Handle{}, []string{"/in/a.mp3", "/in/bad.mp3"})
	if !errors.Is(err, transcoder.ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if got := s.Tree().Count; got != 0 {
		t.Errorf("Expected no nodes after failed import, got %d", got)
	}
	if !slices.Contains(audio.removed, "uuid-1") {
		t.Errorf("Expected prepared sound to be removed, got %v", audio.removed)
	}
}

func TestDiscardSounds(t *testing.T) {
	s, audio, _ := newTestSession(t, Options{}, nil)

	s.discardSounds([]transcoder.Prepared{
		{UUID: "uuid-a", Path: "/out/uuid-a.mp3"},
		{},
		{UUID: "uuid-b", Path: "/out/uuid-b.mp3"},
	})
	if want := []string{"uuid-a", "uuid-b"}; !slices.Equal(audio.removed, want) {
		t.Errorf("Expected %v removed, got %v", want, audio.removed)
	}
}

func TestSourceDirRestriction(t *testing.T) {
	s, _, covers := newTestSession(t, Options{SourceDir: "/media"}, nil)

	_, err := s.AddSounds(context.Background(), playlist.Handle{}, []string{"/media/a.mp3", "/etc/b.mp3"})
	if !errors.Is(err, ErrOutsideSource) {
		t.Fatalf("Expected ErrOutsideSource, got %v", err)
	}
	if got := s.Tree().Count; got != 0 {
		t.Errorf("Expected no nodes, got %d", got)
	}

	m, err := s.AddMenu(playlist.Handle{}, "m")
	if err != nil {
		t.Fatalf("AddMenu failed: %v", err)
	}
	if err := s.SetCover(m, "/tmp/cover.png"); !errors.Is(err, ErrOutsideSource) {
		t.Errorf("Expected ErrOutsideSource for cover, got %v", err)
	}
	if len(covers.created) != 0 {
		t.Errorf("Expected no cover written, got %v", covers.created)
	}

	if _, err := s.AddSounds(context.Background(), m, []string{"/media/sub/a.mp3"}); err != nil {
		t.Errorf("Expected source below SourceDir to be accepted, got %v", err)
	}
}

func TestAddSoundsWithoutAudio(t *testing.T) {
	s := New(Options{}, nil, nil, nil)

	if _, err := s.AddSounds(context.Background(), playlist.Handle{}, []string{"/a.mp3"}); !errors.Is(err, ErrNoMedia) {
		t.Errorf("Expected ErrNoMedia, got %v", err)
	}
}

func TestSetCoverAndIcon(t *testing.T) {
	s, _, covers := newTestSession(t, Options{}, nil)
	menu, err := s.AddMenu(playlist.Handle{}, "Contes")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SetCover(menu, "/pics/cat.png"); err != nil {
		t.Fatalf("SetCover failed: %v", err)
	}
	n, err := s.Node(menu)
	if err != nil {
		t.Fatal(err)
	}
	if n.ImagePath != "uuid-1.jpg" || covers.created["uuid-1"] != "/pics/cat.png" {
		t.Errorf("Unexpected cover state %+v %v", n, covers.created)
	}

	icon, err := s.Icon(menu)
	if err != nil || string(icon) != "icon:uuid-1" {
		t.Errorf("Unexpected icon %q %v", icon, err)
	}

	if err := s.SetCover(playlist.Handle{}, "/pics/cat.png"); !errors.Is(err, playlist.ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode, got %v", err)
	}
}

func TestSetCoverOnDeletedNode(t *testing.T) {
	s, _, covers := newTestSession(t, Options{}, nil)
	menu, err := s.AddMenu(playlist.Handle{}, "Contes")
	if err != nil {
		t.Fatal(err)
	}

	// The menu is deleted while its cover is being rendered.
	covers.onCreate = func() {
		if _, err := s.Delete(menu, true); err != nil {
			t.Errorf("Delete failed: %v", err)
		}
	}
	if err := s.SetCover(menu, "/pics/cat.png"); !errors.Is(err, playlist.ErrUnknownNode) {
		t.Fatalf("Expected ErrUnknownNode, got %v", err)
	}
	if !slices.Contains(covers.removed, "uuid-1") {
		t.Errorf("Expected orphaned cover removed, got %v", covers.removed)
	}
}

func TestSetCoverRequiresUUID(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	items := []playlist.Item{
		playlist.RootItem(),
		{ID: 2, ParentID: 1, Type: playlist.TypeMenu, Title: "anonymous"},
	}
	if _, err := s.Import(items, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	h := s.Tree().Root.Children[0].Handle

	if err := s.SetCover(h, "/pics/cat.png"); !errors.Is(err, playlist.ErrMissingUUID) {
		t.Errorf("Expected ErrMissingUUID, got %v", err)
	}
}

func TestSoundFile(t *testing.T) {
	s, audio, _ := newTestSession(t, Options{}, nil)
	menu, _ := s.AddMenu(playlist.Handle{}, "m")
	handles, err := s.AddSounds(context.Background(), menu, []string{"/in/x.mp3"})
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.SoundFile(handles[0])
	if err != nil {
		t.Fatalf("SoundFile failed: %v", err)
	}
	if path != filepath.Join(audio.dir, "uuid-2.mp3") {
		t.Errorf("Unexpected path %s", path)
	}
	if _, err := s.SoundFile(menu); !errors.Is(err, playlist.ErrInvalidNodeKind) {
		t.Errorf("Expected ErrInvalidNodeKind for a menu, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	menu, _ := s.AddMenu(playlist.Handle{}, "old")

	title := playlist.ContainerGlyph + strings.Repeat("a", 80)
	limit := int64(30)
	if err := s.Update(menu, NodeUpdate{Title: &title, LimitTime: &limit}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	n, _ := s.Node(menu)
	if n.Title != strings.Repeat("a", playlist.MaxTitleBytes) || n.LimitTime != 30 {
		t.Errorf("Unexpected node %+v", n)
	}

	root := s.Tree().Root.Handle
	if err := s.Update(root, NodeUpdate{Title: &title}); err == nil {
		t.Error("Expected renaming the root to fail")
	}
}

func TestMoves(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	a, _ := s.AddMenu(playlist.Handle{}, "a")
	b, _ := s.AddMenu(playlist.Handle{}, "b")

	// Menus without a selection go to the top of the root.
	if got := childTitles(s.Tree().Root); !slices.Equal(got, []string{"b", "a"}) {
		t.Fatalf("Expected [b a], got %v", got)
	}
	if err := s.MoveDown(b); err != nil {
		t.Fatal(err)
	}
	if got := childTitles(s.Tree().Root); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", got)
	}
	if err := s.Move(b, a, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Move(a, b, 0); !errors.Is(err, playlist.ErrCycle) {
		t.Errorf("Expected ErrCycle, got %v", err)
	}
	if err := s.MoveToParent(b); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveUp(b); err != nil {
		t.Fatal(err)
	}
	if got := childTitles(s.Tree().Root); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("Expected [b a], got %v", got)
	}
}

func TestDeleteConfirmation(t *testing.T) {
	s, audio, covers := newTestSession(t, Options{PruneMedia: true}, nil)
	menu, _ := s.AddMenu(playlist.Handle{}, "m")
	if _, err := s.AddSounds(context.Background(), menu, []string{"/in/x.mp3", "/in/y.mp3"}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Delete(menu, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("Expected ErrConfirmationRequired, got %v", err)
	}
	removed, err := s.Delete(menu, true)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Expected 3 removed nodes, got %d", removed)
	}
	if s.Tree().Count != 0 {
		t.Errorf("Expected empty playlist, got %d", s.Tree().Count)
	}
	if !slices.Contains(audio.removed, "uuid-2") || !slices.Contains(covers.removed, "uuid-1") {
		t.Errorf("Expected media pruned, got audio=%v covers=%v", audio.removed, covers.removed)
	}
	if _, err := s.Delete(menu, true); !errors.Is(err, playlist.ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode for stale handle, got %v", err)
	}
}

func TestDeleteKeepsSharedMedia(t *testing.T) {
	s, audio, _ := newTestSession(t, Options{PruneMedia: true}, nil)
	items := []playlist.Item{
		playlist.RootItem(),
		{ID: 2, ParentID: 1, Type: playlist.TypeSound, UUID: "shared", Title: "a", SoundPath: "shared.mp3"},
		{ID: 3, ParentID: 1, Type: playlist.TypeSound, UUID: "shared", Title: "b", SoundPath: "shared.mp3"},
	}
	if _, err := s.Import(items, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	first := s.Tree().Root.Children[0].Handle

	if _, err := s.Delete(first, false); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(audio.removed) != 0 {
		t.Errorf("Expected shared sound kept, got %v", audio.removed)
	}
}

func TestFavorites(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	menu, _ := s.AddMenu(playlist.Handle{}, "m")
	hs, err := s.AddSounds(context.Background(), menu, []string{"/in/a.mp3", "/in/b.mp3"})
	if err != nil {
		t.Fatal(err)
	}

	on, changed, err := s.ToggleFavorite(hs[0])
	if err != nil || !on || !changed {
		t.Fatalf("Expected favorite on, got %v %v %v", on, changed, err)
	}
	if changed, err := s.SetFavorite(hs[1], true); err != nil || !changed {
		t.Fatalf("SetFavorite failed: %v %v", changed, err)
	}
	if err := s.ReorderFavorites([]playlist.Handle{hs[1], hs[0]}); err != nil {
		t.Fatalf("ReorderFavorites failed: %v", err)
	}
	if got := s.Tree().Favorites; !slices.Equal(got, []playlist.Handle{hs[1], hs[0]}) {
		t.Errorf("Unexpected favorites %v", got)
	}
	// Menus and stale handles are ignored.
	if on, changed, err := s.ToggleFavorite(menu); err != nil || on || changed {
		t.Errorf("Expected no-op toggle on a menu, got %v %v %v", on, changed, err)
	}
	if changed, err := s.SetFavorite(playlist.Handle{}, true); err != nil || changed {
		t.Errorf("Expected no-op for a stale handle, got %v %v", changed, err)
	}
	if !s.IsFavorite(hs[0]) || s.IsFavorite(menu) {
		t.Error("Unexpected IsFavorite result")
	}
	if changed, _ := s.SetFavorite(hs[0], false); !changed {
		t.Error("Expected removal to change favorites")
	}
}

func TestImportModes(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	items := []playlist.Item{
		playlist.RootItem(),
		{ID: 2, ParentID: 1, Type: playlist.TypeMenu, UUID: "U1", Title: "Contes"},
		{ID: 3, ParentID: 2, Type: playlist.TypeSound, UUID: "UL1", Title: "L1"},
	}
	if _, err := s.Import(items, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	if !s.HasCollision(items) {
		t.Error("Expected a collision on re-import")
	}

	counter := metrics.ImportsTotal.WithLabelValues("merge", "success")
	before := testutil.ToFloat64(counter)
	res, err := s.Import(items, ImportOptions{Merge: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.MergeApplied || s.Tree().Count != 2 {
		t.Errorf("Expected merged import, got %+v with %d nodes", res, s.Tree().Count)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("Expected merge counter +1, got %v", got)
	}

	if _, err := s.Import(items, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := childTitles(s.Tree().Root); !slices.Equal(got, []string{"Contes", "Contes"}) {
		t.Errorf("Expected appended copy, got %v", got)
	}

	if _, err := s.Import(items, ImportOptions{Overwrite: true}); err != nil {
		t.Fatal(err)
	}
	if s.Tree().Count != 2 {
		t.Errorf("Expected overwrite to leave 2 nodes, got %d", s.Tree().Count)
	}
}

func TestImportFailureKeepsPlaylist(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	menu, _ := s.AddMenu(playlist.Handle{}, "keep")
	bad := []playlist.Item{
		playlist.RootItem(),
		{ID: 2, ParentID: 7, Type: playlist.TypeMenu, Title: "orphan"},
	}

	for _, opts := range []ImportOptions{{}, {Overwrite: true}, {Merge: true}} {
		if _, err := s.Import(bad, opts); !errors.Is(err, playlist.ErrUnknownParent) {
			t.Errorf("%+v: expected ErrUnknownParent, got %v", opts, err)
		}
	}
	if _, err := s.Node(menu); err != nil {
		t.Errorf("Expected existing handle to stay valid: %v", err)
	}
	if got := childTitles(s.Tree().Root); !slices.Equal(got, []string{"keep"}) {
		t.Errorf("Expected untouched playlist, got %v", got)
	}
}

func TestSnapshots(t *testing.T) {
	store := newTestStore(t)
	s, _, _ := newTestSession(t, Options{}, store)
	ctx := context.Background()

	s.AddMenu(playlist.Handle{}, "saved")
	n, err := s.SaveSnapshot(ctx, "first")
	if err != nil || n != 2 {
		t.Fatalf("SaveSnapshot returned %d %v", n, err)
	}
	s.AddMenu(playlist.Handle{}, "later")

	if _, err := s.LoadSnapshot(ctx, "first"); err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if got := childTitles(s.Tree().Root); !slices.Equal(got, []string{"saved"}) {
		t.Errorf("Expected restored playlist, got %v", got)
	}

	list, err := s.ListSnapshots(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("Unexpected list %v %v", list, err)
	}
	items, err := s.SnapshotItems(ctx, "first")
	if err != nil || len(items) != 2 {
		t.Errorf("Unexpected items %v %v", items, err)
	}
	if stats := s.GetStats(); stats.Snapshots != 1 || stats.Directories != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if err := s.DeleteSnapshot(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadSnapshot(ctx, "first"); !errors.Is(err, database.ErrSnapshotNotFound) {
		t.Errorf("Expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSnapshotsWithoutStore(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)

	if _, err := s.SaveSnapshot(context.Background(), "x"); !errors.Is(err, ErrNoStore) {
		t.Errorf("Expected ErrNoStore, got %v", err)
	}
}

func TestExportRecordsTime(t *testing.T) {
	store := newTestStore(t)
	s, _, _ := newTestSession(t, Options{}, store)
	ctx := context.Background()

	items := s.Export(ctx)
	if len(items) != 1 || items[0].Type != playlist.TypeRoot {
		t.Errorf("Expected only the root record, got %+v", items)
	}
	last, err := store.GetLastExport(ctx)
	if err != nil || !last.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Unexpected last export %v %v", last, err)
	}
}

func TestImportWPL(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	dir := t.TempDir()
	for _, name := range []string{"one.mp3", "two.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	wpl := filepath.Join(dir, "soir.wpl")
	doc := `<?wpl version="1.0"?><smil><head><title>Le soir</title></head><body><seq>` +
		`<media src="one.mp3"/><media src="missing.mp3"/><media src="two.mp3"/></seq></body></smil>`
	if err := os.WriteFile(wpl, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := s.ImportWPL(context.Background(), wpl, "")
	if err != nil {
		t.Fatalf("ImportWPL failed: %v", err)
	}
	if res.Sounds != 2 || res.Missing != 1 || res.Parse.Created != 3 {
		t.Errorf("Unexpected result %+v", res)
	}
	root := s.Tree().Root
	if got := childTitles(root); !slices.Equal(got, []string{"Le soir"}) {
		t.Fatalf("Expected [Le soir], got %v", got)
	}
	if got := childTitles(root.Children[0]); !slices.Equal(got, []string{"one", "two"}) {
		t.Errorf("Expected [one two], got %v", got)
	}
}

func TestConcurrentEdits(t *testing.T) {
	s, _, _ := newTestSession(t, Options{}, nil)
	var mu sync.Mutex
	n := 0
	s.newUUID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("u%d", n)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AddMenu(playlist.Handle{}, fmt.Sprintf("m%d", i)); err != nil {
				t.Errorf("AddMenu failed: %v", err)
			}
			_ = s.Tree()
		}(i)
	}
	wg.Wait()

	if got := s.Tree().Count; got != 20 {
		t.Errorf("Expected 20 menus, got %d", got)
	}
}
