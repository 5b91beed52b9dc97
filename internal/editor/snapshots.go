package editor

import (
	"context"

	"merlin-playlist/internal/database"
	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/playlist"
)

// SaveSnapshot stores the current playlist under name.
func (s *Session) SaveSnapshot(ctx context.Context, name string) (int, error) {
	if s.store == nil {
		return 0, ErrNoStore
	}
	s.mu.Lock()
	items := playlist.Flatten(s.tree)
	s.mu.Unlock()

	if err := s.store.SaveSnapshot(ctx, name, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// LoadSnapshot replaces the playlist with the named snapshot.
func (s *Session) LoadSnapshot(ctx context.Context, name string) (playlist.ParseResult, error) {
	if s.store == nil {
		return playlist.ParseResult{}, ErrNoStore
	}
	items, err := s.store.LoadSnapshot(ctx, name)
	if err != nil {
		return playlist.ParseResult{}, err
	}
	res, err := s.Import(items, ImportOptions{Overwrite: true})
	if err != nil {
		return res, err
	}
	logging.Info("Loaded snapshot %q", name)
	return res, nil
}

// SnapshotItems returns the stored records of a snapshot.
func (s *Session) SnapshotItems(ctx context.Context, name string) ([]playlist.Item, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.LoadSnapshot(ctx, name)
}

// ListSnapshots lists the stored snapshots.
func (s *Session) ListSnapshots(ctx context.Context) ([]database.SnapshotInfo, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListSnapshots(ctx)
}

// DeleteSnapshot removes a stored snapshot.
func (s *Session) DeleteSnapshot(ctx context.Context, name string) error {
	if s.store == nil {
		return ErrNoStore
	}
	return s.store.DeleteSnapshot(ctx, name)
}
