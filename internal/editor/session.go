package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"merlin-playlist/internal/database"
	"merlin-playlist/internal/filesystem"
	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/metrics"
	"merlin-playlist/internal/playlist"
	"merlin-playlist/internal/transcoder"
)

var (
	// ErrConfirmationRequired is returned when deleting a non-empty menu
	// without confirmation.
	ErrConfirmationRequired = errors.New("deleting a non-empty menu requires confirmation")
	// ErrNoStore is returned for snapshot operations when no store is configured.
	ErrNoStore = errors.New("snapshot store not configured")
	// ErrNoMedia is returned when a media collaborator is not configured.
	ErrNoMedia = errors.New("media processing not configured")
	// ErrNoSound is returned when a node has no sound file.
	ErrNoSound = errors.New("node has no sound file")
	// ErrOutsideSource is returned for source files outside Options.SourceDir.
	ErrOutsideSource = errors.New("path is outside the source directory")
)

// AudioPreparer writes sound files for the device.
type AudioPreparer interface {
	Prepare(ctx context.Context, src, uuid string) (transcoder.Prepared, error)
	SoundPath(uuid string) string
	Remove(uuid string) error
}

// CoverStore writes cover images and serves their icons.
type CoverStore interface {
	CreateCover(src, uuid string) (string, error)
	RemoveCover(uuid string) error
	Icon(uuid string) ([]byte, error)
	ClearIcons() (int, error)
}

// Store persists named snapshots of the flat record list.
type Store interface {
	SaveSnapshot(ctx context.Context, name string, items []playlist.Item) error
	LoadSnapshot(ctx context.Context, name string) ([]playlist.Item, error)
	ListSnapshots(ctx context.Context) ([]database.SnapshotInfo, error)
	DeleteSnapshot(ctx context.Context, name string) error
	CountSnapshots(ctx context.Context) (int, error)
	SetLastExport(ctx context.Context, t time.Time) error
}

// Options configure a Session.
type Options struct {
	Tree playlist.TreeConfig
	// Workers bounds parallel audio preparation. Zero picks a CPU based count.
	Workers int
	// PruneMedia removes sound and cover files of deleted nodes when no
	// other node shares their uuid.
	PruneMedia bool
	// SourceDir, when set, is the only tree audio and image sources are
	// read from.
	SourceDir string
}

// Session is the single working playlist of the service.
type Session struct {
	mu      sync.Mutex
	tree    *playlist.Tree
	opts    Options
	audio   AudioPreparer
	covers  CoverStore
	store   Store
	newUUID func() string
	now     func() time.Time
}

// New creates a Session with an empty playlist. Any collaborator may be nil;
// operations needing it then fail with ErrNoMedia or ErrNoStore.
func New(opts Options, audio AudioPreparer, covers CoverStore, store Store) *Session {
	s := &Session{
		opts:    opts,
		audio:   audio,
		covers:  covers,
		store:   store,
		newUUID: uuid.NewString,
		now:     time.Now,
	}
	s.tree = s.newTree()
	return s
}

func (s *Session) checkSource(path string) error {
	if s.opts.SourceDir == "" || filesystem.IsWithin(path, s.opts.SourceDir) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOutsideSource, path)
}

func (s *Session) newTree() *playlist.Tree {
	t := playlist.NewTreeWithConfig(s.opts.Tree)
	t.Subscribe(func(e playlist.Event) {
		metrics.TreeMutationsTotal.WithLabelValues(e.Kind.String()).Inc()
	})
	return t
}

// GetStats implements metrics.StatsProvider.
func (s *Session) GetStats() metrics.Stats {
	var stats metrics.Stats

	s.mu.Lock()
	for h := range s.tree.All() {
		kind, err := s.tree.Kind(h)
		if err != nil {
			continue
		}
		switch kind {
		case playlist.KindDirectory:
			stats.Directories++
		case playlist.KindSound:
			stats.Sounds++
		case playlist.KindFavorites:
			stats.HasFavRoot = true
		case playlist.KindDiscover:
			stats.HasDiscover = true
		}
	}
	stats.Favorites = s.tree.Favorites().Len()
	s.mu.Unlock()

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := s.store.CountSnapshots(ctx)
		if err != nil {
			logging.Warn("Failed to count snapshots: %v", err)
		}
		stats.Snapshots = n
	}
	return stats
}

// ImportOptions select how imported records combine with the playlist.
type ImportOptions struct {
	Merge     bool `json:"merge"`
	Overwrite bool `json:"overwrite"`
}

func (o ImportOptions) mode() string {
	switch {
	case o.Overwrite:
		return "overwrite"
	case o.Merge:
		return "merge"
	default:
		return "append"
	}
}

// Import parses items into the playlist. An overwrite builds a fresh tree
// and swaps it in only on success. Other imports go into the live tree,
// which Parse leaves untouched when validation fails.
func (s *Session) Import(items []playlist.Item, opts ImportOptions) (res playlist.ParseResult, err error) {
	mode := opts.mode()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ImportsTotal.WithLabelValues(mode, status).Inc()
	}()
	metrics.ImportItems.Observe(float64(len(items)))

	s.mu.Lock()
	defer s.mu.Unlock()

	popts := playlist.ParseOptions{Merge: opts.Merge, Overwrite: opts.Overwrite}
	if opts.Overwrite {
		staging := s.newTree()
		res, err = playlist.Parse(items, staging, popts)
		if err != nil {
			return res, err
		}
		s.tree = staging
	} else {
		res, err = playlist.Parse(items, s.tree, popts)
		if err != nil {
			return res, err
		}
	}

	logging.Info("Imported %d records (%s): created=%d reused=%d skipped=%d merged=%v",
		len(items), mode, res.Created, res.Reused, res.Skipped, res.MergeApplied)
	return res, nil
}

// HasCollision reports whether importing items would offer a merge.
func (s *Session) HasCollision(items []playlist.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playlist.HasCollision(items, s.tree)
}

// Export returns the flat record list of the playlist and records the export
// time in the store.
func (s *Session) Export(ctx context.Context) []playlist.Item {
	s.mu.Lock()
	items := playlist.Flatten(s.tree)
	s.mu.Unlock()

	metrics.ExportsTotal.Inc()
	if s.store != nil {
		if err := s.store.SetLastExport(ctx, s.now()); err != nil {
			logging.Warn("Failed to record export time: %v", err)
		}
	}
	return items
}

// Tree returns a view of the whole playlist.
func (s *Session) Tree() TreeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildView(s.tree)
}

// Node returns a view of one node without its children.
func (s *Session) Node(h playlist.Handle) (NodeView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.Node(h)
	if err != nil {
		return NodeView{}, err
	}
	return nodeView(s.tree, n), nil
}
