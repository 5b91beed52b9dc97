package mediatypes

import "testing"

func TestGetFileType(t *testing.T) {
	tests := []struct {
		ext  string
		want FileType
	}{
		{".mp3", FileTypeAudio},
		{".flac", FileTypeAudio},
		{".jpg", FileTypeImage},
		{".webp", FileTypeImage},
		{".wpl", FileTypePlaylist},
		{".json", FileTypePlaylist},
		{".mp4", FileTypeOther},
		{"", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := GetFileType(tt.ext); got != tt.want {
				t.Errorf("GetFileType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	if got := GetMimeType(".mp3"); got != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg, got %q", got)
	}
	if got := GetMimeType(".xyz"); got != "application/octet-stream" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func TestPathHelpers(t *testing.T) {
	if !IsAudio("/music/Le Loup.MP3") {
		t.Error("Expected uppercase .MP3 to be audio")
	}
	if IsAudio("/music/cover.png") {
		t.Error("Expected png not to be audio")
	}
	if !IsImage("cover.JPEG") {
		t.Error("Expected .JPEG to be an image")
	}
	if Ext("a/b.Tar.GZ") != ".gz" {
		t.Errorf("Expected .gz, got %q", Ext("a/b.Tar.GZ"))
	}
}

func TestEveryExtensionHasMime(t *testing.T) {
	for _, set := range []map[string]bool{AudioExtensions, ImageExtensions, PlaylistExtensions} {
		for ext := range set {
			if _, ok := MimeTypes[ext]; !ok {
				t.Errorf("Missing MIME type for %s", ext)
			}
		}
	}
}
