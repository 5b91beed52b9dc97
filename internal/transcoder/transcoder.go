package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"merlin-playlist/internal/filesystem"
	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/mediatypes"
	"merlin-playlist/internal/metrics"
)

// Device audio format.
const (
	DeviceCodec      = "mp3"
	DeviceBitrate    = 128000
	DeviceChannels   = 2
	DeviceSampleRate = 44100
)

var (
	// ErrUnsupportedFormat is returned for sources without an audio extension.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrSourceInPlaylist is returned for sources inside the playlist directory.
	ErrSourceInPlaylist = errors.New("source file is inside the playlist directory")
	// ErrTranscodeDisabled is returned when a source needs ffmpeg and it is unavailable.
	ErrTranscodeDisabled = errors.New("transcoding required but disabled")
)

// Result says how a sound file was produced.
type Result string

const (
	ResultCopied     Result = "copied"
	ResultTranscoded Result = "transcoded"
)

// Prepared describes a sound file written to the playlist directory.
type Prepared struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	UUID   string `json:"uuid"`
	Result Result `json:"result"`
}

// AudioInfo contains the stream parameters reported by ffprobe.
type AudioInfo struct {
	Codec      string  `json:"codec"`
	Bitrate    int     `json:"bitrate"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sampleRate"`
	Duration   float64 `json:"duration"`
}

// DeviceReady reports whether the stream can be copied without re-encoding.
func (i *AudioInfo) DeviceReady() bool {
	return i.Codec == DeviceCodec &&
		i.Bitrate == DeviceBitrate &&
		i.Channels == DeviceChannels &&
		i.SampleRate == DeviceSampleRate
}

// Transcoder turns arbitrary audio files into device-ready mp3 files named
// after the sound's uuid.
type Transcoder struct {
	playlistDir string
	enabled     bool
	ffprobe     string
	ffmpeg      string
	processes   map[string]*exec.Cmd
	processMu   sync.Mutex
}

// New creates a Transcoder writing into playlistDir. When enabled is false
// only device-ready mp3 files are accepted.
func New(playlistDir string, enabled bool) *Transcoder {
	return &Transcoder{
		playlistDir: playlistDir,
		enabled:     enabled,
		ffprobe:     "ffprobe",
		ffmpeg:      "ffmpeg",
		processes:   make(map[string]*exec.Cmd),
	}
}

// IsEnabled returns whether transcoding is enabled.
func (t *Transcoder) IsEnabled() bool {
	return t.enabled
}

// SoundPath returns where the sound with uuid lives.
func (t *Transcoder) SoundPath(uuid string) string {
	return filepath.Join(t.playlistDir, uuid+".mp3")
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		BitRate    string `json:"bit_rate"`
		Channels   int    `json:"channels"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// parseProbe extracts the first audio stream from ffprobe JSON output.
func parseProbe(data []byte) (*AudioInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	for _, s := range out.Streams {
		if s.CodecType != "audio" {
			continue
		}
		info := &AudioInfo{Codec: s.CodecName, Channels: s.Channels}
		info.SampleRate, _ = strconv.Atoi(s.SampleRate)
		info.Bitrate, _ = strconv.Atoi(s.BitRate)
		if info.Bitrate == 0 {
			info.Bitrate, _ = strconv.Atoi(out.Format.BitRate)
		}
		info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
		return info, nil
	}
	return nil, errors.New("no audio stream")
}

// Probe retrieves the audio stream parameters of path.
func (t *Transcoder) Probe(ctx context.Context, path string) (*AudioInfo, error) {
	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}
	return parseProbe(stdout.Bytes())
}

// Prepare writes src into the playlist directory as <uuid>.mp3. A device-ready
// mp3 is copied; anything else is transcoded to 128 kbit/s stereo 44.1 kHz.
func (t *Transcoder) Prepare(ctx context.Context, src, uuid string) (p Prepared, err error) {
	start := time.Now()
	metrics.AudioPreparationsInProgress.Inc()
	defer func() {
		metrics.AudioPreparationsInProgress.Dec()
		metrics.AudioPreparationDuration.Observe(time.Since(start).Seconds())
		result := string(p.Result)
		if err != nil {
			result = "error"
		}
		metrics.AudioPreparationsTotal.WithLabelValues(result).Inc()
	}()

	if !mediatypes.IsAudio(src) {
		return Prepared{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(src))
	}
	if filesystem.IsWithin(src, t.playlistDir) {
		return Prepared{}, fmt.Errorf("%w: %s", ErrSourceInPlaylist, src)
	}
	if _, err := filesystem.StatWithRetry(src, filesystem.DefaultRetryConfig()); err != nil {
		return Prepared{}, err
	}

	p = Prepared{Source: src, Path: t.SoundPath(uuid), UUID: uuid}

	info, probeErr := t.Probe(ctx, src)
	if probeErr == nil && info.DeviceReady() && mediatypes.Ext(src) == ".mp3" {
		if err := filesystem.CopyFile(src, p.Path); err != nil {
			return Prepared{}, err
		}
		p.Result = ResultCopied
		logging.Info("Copied %s to %s", src, p.Path)
		return p, nil
	}
	if probeErr != nil {
		logging.Debug("Probe failed for %s, transcoding: %v", src, probeErr)
	}

	if !t.enabled {
		return Prepared{}, ErrTranscodeDisabled
	}
	if err := t.transcode(ctx, src, p.Path); err != nil {
		return Prepared{}, err
	}
	p.Result = ResultTranscoded
	logging.Info("Encoded %s to %s", src, p.Path)
	return p, nil
}

func (t *Transcoder) transcode(ctx context.Context, src, dst string) error {
	tmp := dst + ".part"
	cmd := exec.CommandContext(ctx, t.ffmpeg,
		"-y",
		"-v", "error",
		"-i", src,
		"-vn",
		"-map_metadata", "-1",
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		"-ac", strconv.Itoa(DeviceChannels),
		"-ar", strconv.Itoa(DeviceSampleRate),
		"-f", "mp3",
		tmp,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.processMu.Lock()
	t.processes[src] = cmd
	t.processMu.Unlock()
	defer func() {
		t.processMu.Lock()
		delete(t.processes, src)
		t.processMu.Unlock()
	}()

	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Error("FFmpeg stderr: %s", stderr.String())
		return fmt.Errorf("transcoding error: %w", err)
	}
	return os.Rename(tmp, dst)
}

// Cleanup stops all running ffmpeg processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for path, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing transcoding process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transcoding process for %s: %v", path, err)
			}
		}
	}
}

// Remove deletes the sound file with uuid, ignoring missing files.
func (t *Transcoder) Remove(uuid string) error {
	err := os.Remove(t.SoundPath(uuid))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
