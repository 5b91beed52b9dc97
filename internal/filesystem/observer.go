package filesystem

// RetryOutcome classifies a retry event reported to an Observer.
type RetryOutcome int

const (
	// RetryStale is reported for every stale handle error seen.
	RetryStale RetryOutcome = iota
	// RetryAttempt is reported before sleeping and trying again.
	RetryAttempt
	// RetrySuccess is reported when an operation succeeds after a retry.
	RetrySuccess
	// RetryFailure is reported when retries are exhausted.
	RetryFailure
)

// Observer records filesystem metrics. The metrics package provides the
// implementation so this package does not import it.
type Observer interface {
	// ObserveOperation records one operation ("stat", "read", "write", "copy")
	// against the volume label of its path.
	ObserveOperation(volume, operation string, seconds float64, err error)
	ObserveRetry(operation, volume string, outcome RetryOutcome)
	ObserveRetryDuration(operation, volume string, seconds float64)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, float64, error) {}
func (nopObserver) ObserveRetry(string, string, RetryOutcome)       {}
func (nopObserver) ObserveRetryDuration(string, string, float64)    {}

var defaultObserver Observer = nopObserver{}

// SetObserver installs the package-level observer. A nil observer disables
// recording.
func SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	defaultObserver = o
}
