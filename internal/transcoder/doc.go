// Package transcoder prepares sound files for the device using FFmpeg.
//
// Every sound is stored in the playlist directory as <uuid>.mp3. Sources
// that already are 128 kbit/s stereo 44.1 kHz mp3 are copied; anything else
// is re-encoded with libmp3lame. ffprobe and ffmpeg must be on PATH for
// transcoding; without them only device-ready mp3 files are accepted.
package transcoder
