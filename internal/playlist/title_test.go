package playlist

import "testing"

func TestDecorate(t *testing.T) {
	tests := []struct {
		title string
		kind  Kind
		want  string
	}{
		{"Contes", KindDirectory, ContainerGlyph + "Contes"},
		{"Contes", KindDiscover, ContainerGlyph + "Contes"},
		{"Loup", KindSound, SoundGlyph + "Loup"},
		{SoundGlyph + "Loup", KindSound, SoundGlyph + "Loup"},
	}

	for _, tt := range tests {
		got := Decorate(tt.title, tt.kind)
		if got != tt.want {
			t.Errorf("Decorate(%q, %s) = %q, want %q", tt.title, tt.kind, got, tt.want)
		}
		if back := Undecorate(got); back != Undecorate(tt.title) {
			t.Errorf("Undecorate(%q) = %q", got, back)
		}
	}

	if got := Undecorate("plain"); got != "plain" {
		t.Errorf("Expected plain title untouched, got %q", got)
	}
}
