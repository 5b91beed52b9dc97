package editor

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"

	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/playlist"
	"merlin-playlist/internal/transcoder"
	"merlin-playlist/internal/workers"
)

// MaxAudioWorkers caps parallel ffmpeg processes when Options.Workers is zero.
const MaxAudioWorkers = 8

// AddMenu creates a menu relative to the selected node.
func (s *Session) AddMenu(selected playlist.Handle, title string) (playlist.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := playlist.AddMenu(s.tree, selected, playlist.MenuSpec{
		Title:   title,
		UUID:    s.newUUID(),
		AddTime: s.now().Unix(),
	})
	if err != nil {
		return playlist.Handle{}, err
	}
	logging.Debug("Added menu %s", h)
	return h, nil
}

// prepareSounds copies or transcodes every path in parallel. On failure the
// files already written are removed.
func (s *Session) prepareSounds(ctx context.Context, paths []string) ([]transcoder.Prepared, error) {
	if s.audio == nil {
		return nil, ErrNoMedia
	}

	for _, path := range paths {
		if err := s.checkSource(path); err != nil {
			return nil, err
		}
	}

	n := s.opts.Workers
	if n <= 0 {
		n = workers.ForCPU(MaxAudioWorkers)
	}
	g, gctx := workers.Group(ctx, n)

	prepared := make([]transcoder.Prepared, len(paths))
	for i, path := range paths {
		id := s.newUUID()
		g.Go(func() error {
			p, err := s.audio.Prepare(gctx, path, id)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			prepared[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.discardSounds(prepared)
		return nil, err
	}
	return prepared, nil
}

// discardSounds removes prepared files that no node refers to.
func (s *Session) discardSounds(prepared []transcoder.Prepared) {
	for _, p := range prepared {
		if p.UUID == "" {
			continue
		}
		if err := s.audio.Remove(p.UUID); err != nil {
			logging.Warn("Failed to remove %s after aborted import: %v", p.Path, err)
		}
	}
}

// AddSounds prepares the audio files at paths and inserts one sound per file
// relative to the selected node, keeping the order of paths. Titles are
// derived from the file names.
func (s *Session) AddSounds(ctx context.Context, selected playlist.Handle, paths []string) ([]playlist.Handle, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	prepared, err := s.prepareSounds(ctx, paths)
	if err != nil {
		return nil, err
	}
	titles := playlist.ShortenTitles(paths)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	handles := make([]playlist.Handle, 0, len(prepared))
	anchor := selected
	for i, p := range prepared {
		h, err := playlist.AddSound(s.tree, anchor, playlist.SoundSpec{
			Title:     titles[i],
			UUID:      p.UUID,
			SoundPath: filepath.Base(p.Path),
			AddTime:   now,
		})
		if err != nil {
			s.discardSounds(prepared[i:])
			return handles, err
		}
		handles = append(handles, h)
		// Later sounds follow the previous one.
		anchor = h
	}
	logging.Info("Added %d sounds", len(handles))
	return handles, nil
}

// SetCover turns the image at src into the cover of node.
func (s *Session) SetCover(node playlist.Handle, src string) error {
	if s.covers == nil {
		return ErrNoMedia
	}
	if err := s.checkSource(src); err != nil {
		return err
	}

	s.mu.Lock()
	n, err := s.tree.Node(node)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if n.UUID == "" {
		return fmt.Errorf("%w: cannot name a cover for %s", playlist.ErrMissingUUID, node)
	}

	name, err := s.covers.CreateCover(src, n.UUID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tree.SetImagePath(node, name); err != nil {
		// The node went away while the cover was rendered.
		if _, used := s.tree.FindByUUID(n.UUID); !used {
			if rmErr := s.covers.RemoveCover(n.UUID); rmErr != nil {
				logging.Warn("Failed to remove cover %s: %v", n.UUID, rmErr)
			}
		}
		return err
	}
	return nil
}

// Icon returns the small icon of node's cover.
func (s *Session) Icon(node playlist.Handle) ([]byte, error) {
	if s.covers == nil {
		return nil, ErrNoMedia
	}
	n, err := s.Node(node)
	if err != nil {
		return nil, err
	}
	if n.UUID == "" {
		return nil, playlist.ErrMissingUUID
	}
	return s.covers.Icon(n.UUID)
}

// ClearIcons drops every cached icon; they are rendered again on demand.
func (s *Session) ClearIcons() (int, error) {
	if s.covers == nil {
		return 0, ErrNoMedia
	}
	return s.covers.ClearIcons()
}

// SoundFile returns the path of node's sound file.
func (s *Session) SoundFile(node playlist.Handle) (string, error) {
	if s.audio == nil {
		return "", ErrNoMedia
	}
	n, err := s.Node(node)
	if err != nil {
		return "", err
	}
	if n.Kind != playlist.KindSound.String() {
		return "", fmt.Errorf("%w: %s is a %s", playlist.ErrInvalidNodeKind, node, n.Kind)
	}
	if n.SoundPath == "" || n.UUID == "" {
		return "", ErrNoSound
	}
	return s.audio.SoundPath(n.UUID), nil
}

// NodeUpdate lists the attributes to change. Nil fields are left alone.
type NodeUpdate struct {
	Title     *string `json:"title"`
	LimitTime *int64  `json:"limitTime"`
}

// Update changes node attributes.
func (s *Session) Update(node playlist.Handle, u NodeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Title != nil {
		title := playlist.TruncateTitle(playlist.Undecorate(*u.Title))
		if err := s.tree.SetTitle(node, title); err != nil {
			return err
		}
	}
	if u.LimitTime != nil {
		if err := s.tree.SetLimitTime(node, *u.LimitTime); err != nil {
			return err
		}
	}
	return nil
}

// Move re-parents node under parent at index.
func (s *Session) Move(node, parent playlist.Handle, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Move(node, parent, index)
}

// MoveUp swaps node with its previous sibling.
func (s *Session) MoveUp(node playlist.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playlist.MoveUp(s.tree, node)
}

// MoveDown swaps node with its next sibling.
func (s *Session) MoveDown(node playlist.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playlist.MoveDown(s.tree, node)
}

// MoveToParent moves node to the end of its grandparent.
func (s *Session) MoveToParent(node playlist.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playlist.MoveToParent(s.tree, node)
}

// Delete removes node and its subtree and returns how many nodes went away.
// A menu with children is only deleted when confirmed is true.
func (s *Session) Delete(node playlist.Handle, confirmed bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.tree.Node(node)
	if err != nil {
		return 0, err
	}
	if n.ChildCount > 0 && !confirmed {
		return 0, fmt.Errorf("%w: %q has %d children", ErrConfirmationRequired, n.Title, n.ChildCount)
	}

	var uuids []string
	for h := range s.subtree(node) {
		if n, err := s.tree.Node(h); err == nil && n.UUID != "" {
			uuids = append(uuids, n.UUID)
		}
	}

	before := s.tree.Len()
	if err := s.tree.Delete(node); err != nil {
		return 0, err
	}
	removed := before - s.tree.Len()
	logging.Info("Deleted %q and %d descendants", n.Title, removed-1)

	if s.opts.PruneMedia {
		s.pruneMedia(uuids)
	}
	return removed, nil
}

// subtree yields node and its descendants pre-order.
func (s *Session) subtree(node playlist.Handle) iter.Seq[playlist.Handle] {
	return func(yield func(playlist.Handle) bool) {
		stack := []playlist.Handle{node}
		for len(stack) > 0 {
			h := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(h) {
				return
			}
			children := s.tree.Children(h)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// pruneMedia removes files of uuids no longer used by any node.
func (s *Session) pruneMedia(uuids []string) {
	for _, id := range uuids {
		if _, used := s.tree.FindByUUID(id); used {
			continue
		}
		if s.audio != nil {
			if err := s.audio.Remove(id); err != nil {
				logging.Warn("Failed to remove sound %s: %v", id, err)
			}
		}
		if s.covers != nil {
			if err := s.covers.RemoveCover(id); err != nil {
				logging.Warn("Failed to remove cover %s: %v", id, err)
			}
		}
	}
}

// SetFavorite adds node to or removes it from the favorites. It reports
// whether the favorites changed.
func (s *Session) SetFavorite(node playlist.Handle, on bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		return s.tree.Favorites().Add(node)
	}
	return s.tree.Favorites().Remove(node)
}

// IsFavorite reports whether node is a favorite.
func (s *Session) IsFavorite(node playlist.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Favorites().Contains(node)
}

// ToggleFavorite flips the favorite state of node. It returns the resulting
// state and whether anything changed.
func (s *Session) ToggleFavorite(node playlist.Handle) (on, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Favorites().Toggle(node)
}

// ReorderFavorites sets the favorites order. order must list every favorite
// exactly once.
func (s *Session) ReorderFavorites(order []playlist.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Favorites().Reorder(order)
}
