package transcoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const readyProbe = `{
  "streams": [
    {"codec_type": "video", "codec_name": "mjpeg"},
    {"codec_type": "audio", "codec_name": "mp3", "bit_rate": "128000", "channels": 2, "sample_rate": "44100"}
  ],
  "format": {"duration": "61.5", "bit_rate": "130000"}
}`

const flacProbe = `{
  "streams": [{"codec_type": "audio", "codec_name": "flac", "channels": 1, "sample_rate": "48000"}],
  "format": {"duration": "12.0", "bit_rate": "900000"}
}`

// fakeTools installs shell scripts standing in for ffprobe and ffmpeg.
func fakeTools(t *testing.T, trans *Transcoder, probeJSON string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()

	probe := filepath.Join(dir, "ffprobe")
	probeData := filepath.Join(dir, "probe.json")
	if err := os.WriteFile(probeData, []byte(probeJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat '" + probeData + "'\n"
	if err := os.WriteFile(probe, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	ffmpeg := filepath.Join(dir, "ffmpeg")
	script = "#!/bin/sh\nfor last; do :; done\nprintf transcoded > \"$last\"\n"
	if err := os.WriteFile(ffmpeg, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	trans.ffprobe = probe
	trans.ffmpeg = ffmpeg
}

func sourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	trans := New("/playlist", true)

	if trans.playlistDir != "/playlist" {
		t.Errorf("Expected playlistDir=/playlist, got %s", trans.playlistDir)
	}
	if !trans.IsEnabled() {
		t.Error("Expected enabled=true")
	}
	if trans.processes == nil {
		t.Error("Expected processes map to be initialized")
	}
	if got := trans.SoundPath("abc"); got != filepath.Join("/playlist", "abc.mp3") {
		t.Errorf("Unexpected sound path %s", got)
	}
}

func TestParseProbe(t *testing.T) {
	info, err := parseProbe([]byte(readyProbe))
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.Codec != "mp3" || info.Bitrate != 128000 || info.Channels != 2 || info.SampleRate != 44100 {
		t.Errorf("Unexpected info %+v", info)
	}
	if info.Duration != 61.5 {
		t.Errorf("Expected duration 61.5, got %v", info.Duration)
	}
	if !info.DeviceReady() {
		t.Error("Expected device-ready stream")
	}

	info, err = parseProbe([]byte(flacProbe))
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.Bitrate != 900000 {
		t.Errorf("Expected format bitrate fallback, got %d", info.Bitrate)
	}
	if info.DeviceReady() {
		t.Error("Expected flac not to be device-ready")
	}

	if _, err := parseProbe([]byte(`{"streams":[{"codec_type":"video"}]}`)); err == nil {
		t.Error("Expected error without an audio stream")
	}
	if _, err := parseProbe([]byte(`not json`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestDeviceReady(t *testing.T) {
	tests := []struct {
		name string
		info AudioInfo
		want bool
	}{
		{"exact", AudioInfo{Codec: "mp3", Bitrate: 128000, Channels: 2, SampleRate: 44100}, true},
		{"mono", AudioInfo{Codec: "mp3", Bitrate: 128000, Channels: 1, SampleRate: 44100}, false},
		{"192k", AudioInfo{Codec: "mp3", Bitrate: 192000, Channels: 2, SampleRate: 44100}, false},
		{"48kHz", AudioInfo{Codec: "mp3", Bitrate: 128000, Channels: 2, SampleRate: 48000}, false},
		{"aac", AudioInfo{Codec: "aac", Bitrate: 128000, Channels: 2, SampleRate: 44100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.DeviceReady(); got != tt.want {
				t.Errorf("DeviceReady() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrepareCopiesReadyMP3(t *testing.T) {
	playlistDir := t.TempDir()
	trans := New(playlistDir, true)
	fakeTools(t, trans, readyProbe)
	src := sourceFile(t, "ready.mp3", "original")

	p, err := trans.Prepare(context.Background(), src, "u1")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if p.Result != ResultCopied {
		t.Errorf("Expected copy, got %s", p.Result)
	}
	data, _ := os.ReadFile(filepath.Join(playlistDir, "u1.mp3"))
	if string(data) != "original" {
		t.Errorf("Expected copied bytes, got %q", data)
	}
}

func TestPrepareTranscodes(t *testing.T) {
	playlistDir := t.TempDir()
	trans := New(playlistDir, true)
	fakeTools(t, trans, flacProbe)
	src := sourceFile(t, "story.flac", "flac-bytes")

	p, err := trans.Prepare(context.Background(), src, "u2")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if p.Result != ResultTranscoded || p.Path != filepath.Join(playlistDir, "u2.mp3") {
		t.Errorf("Unexpected result %+v", p)
	}
	data, _ := os.ReadFile(p.Path)
	if string(data) != "transcoded" {
		t.Errorf("Expected transcoded output, got %q", data)
	}
	if _, err := os.Stat(p.Path + ".part"); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be renamed")
	}
}

func TestPrepareErrors(t *testing.T) {
	playlistDir := t.TempDir()
	inside := filepath.Join(playlistDir, "already.mp3")
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		enabled bool
		src     string
		want    error
	}{
		{"unsupported extension", true, sourceFile(t, "notes.txt", "x"), ErrUnsupportedFormat},
		{"inside playlist", true, inside, ErrSourceInPlaylist},
		{"needs transcode while disabled", false, sourceFile(t, "story.flac", "x"), ErrTranscodeDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trans := New(playlistDir, tt.enabled)
			fakeTools(t, trans, flacProbe)
			if _, err := trans.Prepare(context.Background(), tt.src, "u"); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	trans := New(playlistDir, true)
	if _, err := trans.Prepare(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"), "u"); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	playlistDir := t.TempDir()
	trans := New(playlistDir, false)
	if err := os.WriteFile(trans.SoundPath("u"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := trans.Remove("u"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := trans.Remove("u"); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}
}

func TestCleanupWithoutProcesses(t *testing.T) {
	New(t.TempDir(), true).Cleanup()
}
