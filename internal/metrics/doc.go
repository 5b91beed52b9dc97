// Package metrics provides Prometheus instrumentation for the playlist editor.
//
// All metrics are prefixed with "merlin_playlist_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Database Metrics
//   - DBQueryTotal and DBQueryDuration by operation
//   - DBTransactionDuration by outcome (commit, rollback)
//   - DBSizeBytes for the main, WAL and SHM files
//   - SnapshotsTotal
//
// ## Playlist Metrics
//   - TreeNodes by kind and TreeFavorites, refreshed by the Collector
//   - TreeMutationsTotal by tree event
//   - ImportsTotal by mode (overwrite, merge, append) and ImportItems
//   - ExportsTotal
//
// ## Media Metrics
//   - AudioPreparationsTotal by result (copied, transcoded, error)
//   - AudioPreparationDuration, AudioPreparationsInProgress
//   - ImageGenerationsTotal and ImageGenerationDuration for covers and icons
//   - IconCacheHits, IconCacheMisses
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver:
// operation durations and errors per volume, plus retry counters for stale
// NFS file handles.
//
// # Usage
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape, then serve promhttp.Handler on the metrics
// port.
package metrics
