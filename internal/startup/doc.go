// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PLAYLIST_DIR: Where sound files and covers are written (default: /playlist)
//   - SOURCE_DIR: Tree the API may read source audio, images and WPL files from (default: /media)
//   - CACHE_DIR: Icon cache directory (default: /cache)
//   - DATABASE_DIR: Snapshot database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - METRICS_INTERVAL: Gauge collection interval as Go duration (default: 1m)
//   - FAVORITE_PLACEMENT: Where new favorites land, end or front (default: end)
//   - TRANSCODING_ENABLED: Re-encode sounds with ffmpeg when needed (default: true)
//   - PRUNE_MEDIA: Delete files of removed nodes no longer referenced (default: false)
//   - AUDIO_WORKERS: Pin the number of parallel audio preparations
//   - MEMORY_LIMIT: Container memory limit in bytes, used to derive GOMEMLIMIT
//   - MEMORY_RATIO: Share of the container limit given to the Go heap (default: 0.80)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log sound and icon downloads (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
//   - Database and playlist directories: required, must be writable
//   - Cache directory: optional, icons are rendered on every request when
//     it is not writable
//   - Source directory: checked but not required
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
