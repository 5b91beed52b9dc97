package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"type"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	SnapshotsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_snapshots",
			Help: "Number of stored playlist snapshots",
		},
	)
)

// Playlist tree metrics
var (
	TreeNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_tree_nodes",
			Help: "Number of nodes in the working playlist by kind",
		},
		[]string{"kind"},
	)

	TreeFavorites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_tree_favorites",
			Help: "Number of favorite sounds in the working playlist",
		},
	)

	TreeMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_tree_mutations_total",
			Help: "Total number of tree mutations by event",
		},
		[]string{"event"},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_imports_total",
			Help: "Total number of flat list imports by mode and status",
		},
		[]string{"mode", "status"}, // mode: overwrite, merge, append
	)

	ImportItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_import_items",
			Help:    "Number of records per imported flat list",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	ExportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "merlin_playlist_exports_total",
			Help: "Total number of flat list exports",
		},
	)
)

// Audio preparation metrics
var (
	AudioPreparationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_audio_preparations_total",
			Help: "Total number of audio imports by result",
		},
		[]string{"result"}, // copied, transcoded, error
	)

	AudioPreparationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_audio_preparation_duration_seconds",
			Help:    "Time to copy or transcode one audio file",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	AudioPreparationsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_audio_preparations_in_progress",
			Help: "Number of audio files currently being prepared",
		},
	)
)

// Image metrics
var (
	ImageGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_image_generations_total",
			Help: "Total number of cover and icon generations",
		},
		[]string{"type", "status"}, // type: cover, icon
	)

	ImageGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_image_generation_duration_seconds",
			Help:    "Cover and icon generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	IconCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "merlin_playlist_icon_cache_hits_total",
			Help: "Total number of icon cache hits",
		},
	)

	IconCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "merlin_playlist_icon_cache_misses_total",
			Help: "Total number of icon cache misses",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_filesystem_retry_attempts_total",
			Help: "Retries after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merlin_playlist_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Streaming metrics
var (
	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "merlin_playlist_stream_bytes_total",
			Help: "Total bytes of sound files served",
		},
	)

	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merlin_playlist_streams_total",
			Help: "Sound file transfers by outcome",
		},
		[]string{"outcome"},
	)
)

// Memory metrics
var (
	MemoryLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_memory_limit_bytes",
			Help: "Go soft memory limit applied at startup (0 when unset)",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "merlin_playlist_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
