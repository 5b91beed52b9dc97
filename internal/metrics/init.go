package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Database ---
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}
	for _, op := range []string{"initialize_schema", "save_snapshot", "load_snapshot",
		"list_snapshots", "delete_snapshot", "get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
	for _, t := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(t)
	}

	// --- Tree ---
	for _, kind := range []string{"directory", "sound", "favorites", "discover"} {
		TreeNodes.WithLabelValues(kind)
	}
	for _, ev := range []string{"inserted", "moved", "deleted", "updated", "favorites", "reset"} {
		TreeMutationsTotal.WithLabelValues(ev)
	}
	for _, mode := range []string{"overwrite", "merge", "append"} {
		ImportsTotal.WithLabelValues(mode, "success")
		ImportsTotal.WithLabelValues(mode, "error")
	}

	// --- Media ---
	for _, r := range []string{"copied", "transcoded", "error"} {
		AudioPreparationsTotal.WithLabelValues(r)
	}
	for _, t := range []string{"cover", "icon"} {
		ImageGenerationsTotal.WithLabelValues(t, "success")
		ImageGenerationsTotal.WithLabelValues(t, "error")
		ImageGenerationDuration.WithLabelValues(t)
	}

	// --- Streaming ---
	for _, outcome := range []string{"complete", "client_gone", "timeout"} {
		StreamsTotal.WithLabelValues(outcome)
	}

	// --- Filesystem (per volume × operation) ---
	volumes := []string{"playlist", "cache", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"read", "write", "stat", "copy"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
