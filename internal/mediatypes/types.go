package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType classifies files the editor accepts.
type FileType string

const (
	// FileTypeAudio is a sound source.
	FileTypeAudio FileType = "audio"
	// FileTypeImage is a cover source.
	FileTypeImage FileType = "image"
	// FileTypePlaylist is an importable playlist.
	FileTypePlaylist FileType = "playlist"
	// FileTypeOther is anything else.
	FileTypeOther FileType = "other"
)

// AudioExtensions lists the audio formats ffmpeg is asked to read.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".wma":  true,
}

// ImageExtensions lists the formats the image decoder registers.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// PlaylistExtensions lists importable playlist formats.
var PlaylistExtensions = map[string]bool{
	".wpl":  true,
	".json": true,
}

// MimeTypes maps extensions to MIME types.
var MimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wma":  "audio/x-ms-wma",

	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	".wpl":  "application/vnd.ms-wpl",
	".json": "application/json",
}

// Ext returns the lowercase extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// GetFileType returns the FileType for a lowercase extension such as ".mp3".
func GetFileType(ext string) FileType {
	switch {
	case AudioExtensions[ext]:
		return FileTypeAudio
	case ImageExtensions[ext]:
		return FileTypeImage
	case PlaylistExtensions[ext]:
		return FileTypePlaylist
	default:
		return FileTypeOther
	}
}

// GetMimeType returns the MIME type for a lowercase extension, falling back
// to application/octet-stream.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsAudio reports whether path has an accepted audio extension.
func IsAudio(path string) bool {
	return GetFileType(Ext(path)) == FileTypeAudio
}

// IsImage reports whether path has an accepted image extension.
func IsImage(path string) bool {
	return GetFileType(Ext(path)) == FileTypeImage
}
