package metrics

import "merlin-playlist/internal/filesystem"

type filesystemObserver struct{}

// NewFilesystemObserver returns a filesystem.Observer backed by the
// filesystem metrics of this package.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveOperation(volume, operation string, seconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(seconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (filesystemObserver) ObserveRetry(operation, volume string, outcome filesystem.RetryOutcome) {
	switch outcome {
	case filesystem.RetryAttempt:
		FilesystemRetryAttempts.WithLabelValues(operation, volume).Inc()
	case filesystem.RetrySuccess:
		FilesystemRetrySuccess.WithLabelValues(operation, volume).Inc()
	case filesystem.RetryFailure:
		FilesystemRetryFailures.WithLabelValues(operation, volume).Inc()
	case filesystem.RetryStale:
		FilesystemStaleErrors.WithLabelValues(operation, volume).Inc()
	}
}

func (filesystemObserver) ObserveRetryDuration(operation, volume string, seconds float64) {
	FilesystemRetryDuration.WithLabelValues(operation, volume).Observe(seconds)
}
