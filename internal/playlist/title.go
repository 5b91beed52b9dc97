package playlist

import "strings"

// Display glyphs prefixed to titles by user interfaces.
const (
	ContainerGlyph = " ▮ "
	SoundGlyph     = " ♪ "
)

// Decorate prefixes title with the glyph for kind. Already decorated titles
// are returned unchanged.
func Decorate(title string, kind Kind) string {
	if strings.HasPrefix(title, ContainerGlyph) || strings.HasPrefix(title, SoundGlyph) {
		return title
	}
	if kind.IsContainer() {
		return ContainerGlyph + title
	}
	return SoundGlyph + title
}

// Undecorate strips a leading display glyph.
func Undecorate(title string) string {
	if t, ok := strings.CutPrefix(title, ContainerGlyph); ok {
		return t
	}
	if t, ok := strings.CutPrefix(title, SoundGlyph); ok {
		return t
	}
	return title
}
