package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/playlist"
)

// WPLResult reports what a .wpl import did.
type WPLResult struct {
	Playlist *playlist.WPLPlaylist `json:"playlist"`
	Menu     string                `json:"menu"`
	Sounds   int                   `json:"sounds"`
	Missing  int                   `json:"missing"`
	Parse    playlist.ParseResult  `json:"parse"`
}

// ImportWPL reads a Windows Media Player playlist and appends it as a new
// top-level menu holding one sound per file found. Sources are looked up
// next to the .wpl file, then by name in searchDir.
func (s *Session) ImportWPL(ctx context.Context, wplPath, searchDir string) (*WPLResult, error) {
	pl, err := playlist.ParseWPL(wplPath, searchDir)
	if err != nil {
		return nil, err
	}
	paths := pl.Existing()
	res := &WPLResult{Playlist: pl, Menu: pl.Name, Missing: len(pl.Sources) - len(paths)}
	if len(paths) == 0 {
		return res, fmt.Errorf("%s: none of %d sources found: %w", filepath.Base(wplPath), len(pl.Sources), os.ErrNotExist)
	}

	prepared, err := s.prepareSounds(ctx, paths)
	if err != nil {
		return res, err
	}

	now := s.now().Unix()
	titles := playlist.ShortenTitles(paths)
	sounds := make([]playlist.SoundSpec, len(prepared))
	for i, p := range prepared {
		sounds[i] = playlist.SoundSpec{
			Title:     titles[i],
			UUID:      p.UUID,
			SoundPath: filepath.Base(p.Path),
			AddTime:   now,
		}
	}
	items := playlist.MenuItems(playlist.MenuSpec{Title: pl.Name, UUID: s.newUUID(), AddTime: now}, sounds)

	res.Parse, err = s.Import(items, ImportOptions{})
	if err != nil {
		s.discardSounds(prepared)
		return res, err
	}
	res.Sounds = len(sounds)
	logging.Info("Imported playlist %q: %d sounds, %d missing", pl.Name, res.Sounds, res.Missing)
	return res, nil
}
