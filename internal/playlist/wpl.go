package playlist

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// wplDocument mirrors the Windows Media Player playlist layout.
type wplDocument struct {
	XMLName xml.Name `xml:"smil"`
	Head    struct {
		Title string `xml:"title"`
	} `xml:"head"`
	Body struct {
		Seq struct {
			Media []struct {
				Src string `xml:"src,attr"`
			} `xml:"media"`
		} `xml:"seq"`
	} `xml:"body"`
}

// WPLPlaylist is a parsed .wpl file with its media references resolved.
type WPLPlaylist struct {
	Name    string      `json:"name"`
	Path    string      `json:"path"`
	Sources []WPLSource `json:"sources"`
}

// WPLSource is one media reference of a .wpl file.
type WPLSource struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	OrigPath string `json:"origPath"`
	Exists   bool   `json:"exists"`
}

// ParseWPL reads a .wpl file. Each media source is resolved relative to the
// playlist file first, then by base name inside searchDir.
func ParseWPL(wplPath, searchDir string) (*WPLPlaylist, error) {
	data, err := os.ReadFile(wplPath)
	if err != nil {
		return nil, err
	}

	var doc wplDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", wplPath, err)
	}

	pl := &WPLPlaylist{
		Name: doc.Head.Title,
		Path: wplPath,
	}
	if pl.Name == "" {
		pl.Name = strings.TrimSuffix(filepath.Base(wplPath), filepath.Ext(wplPath))
	}

	wplDir := filepath.Dir(wplPath)
	for _, media := range doc.Body.Seq.Media {
		// Windows separators
		src := strings.ReplaceAll(media.Src, "\\", "/")

		candidates := []string{src}
		if !filepath.IsAbs(src) {
			candidates = []string{filepath.Join(wplDir, src)}
		}
		if searchDir != "" {
			candidates = append(candidates, filepath.Join(searchDir, filepath.Base(src)))
		}

		source := WPLSource{
			Name:     filepath.Base(src),
			Path:     candidates[0],
			OrigPath: media.Src,
		}
		for _, c := range candidates {
			if info, err := os.Stat(c); err == nil && !info.IsDir() {
				source.Path = c
				source.Exists = true
				break
			}
		}
		pl.Sources = append(pl.Sources, source)
	}
	return pl, nil
}

// Existing returns the paths of the sources found on disk.
func (p *WPLPlaylist) Existing() []string {
	var paths []string
	for _, s := range p.Sources {
		if s.Exists {
			paths = append(paths, s.Path)
		}
	}
	return paths
}

// MenuItems builds a flat list holding one top-level menu with the given
// sounds, ready for Parse.
func MenuItems(menu MenuSpec, sounds []SoundSpec) []Item {
	title := menu.Title
	if title == "" {
		title = DefaultMenuTitle
	}
	root := RootItem()
	root.NbChildren = 1
	items := []Item{root, {
		ID:         RootID + 1,
		ParentID:   RootID,
		NbChildren: len(sounds),
		Type:       TypeMenu,
		AddTime:    menu.AddTime,
		UUID:       menu.UUID,
		Title:      TruncateTitle(title),
	}}
	for i, s := range sounds {
		items = append(items, Item{
			ID:        RootID + 2 + i,
			ParentID:  RootID + 1,
			Order:     i,
			Type:      TypeSound,
			AddTime:   s.AddTime,
			UUID:      s.UUID,
			Title:     TruncateTitle(s.Title),
			SoundPath: s.SoundPath,
		})
	}
	return items
}
