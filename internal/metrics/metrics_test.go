package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"merlin-playlist/internal/filesystem"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"DBQueryTotal", DBQueryTotal},
		{"DBSizeBytes", DBSizeBytes},
		{"TreeNodes", TreeNodes},
		{"TreeMutationsTotal", TreeMutationsTotal},
		{"ImportsTotal", ImportsTotal},
		{"AudioPreparationsTotal", AudioPreparationsTotal},
		{"ImageGenerationsTotal", ImageGenerationsTotal},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(ImportsTotal); n < 6 {
		t.Errorf("Expected at least 6 import series, got %d", n)
	}
	if n := testutil.CollectAndCount(TreeNodes); n < 4 {
		t.Errorf("Expected at least 4 tree node series, got %d", n)
	}
	if n := testutil.CollectAndCount(FilesystemRetryAttempts); n < 8 {
		t.Errorf("Expected at least 8 retry series, got %d", n)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	if v := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")); v != 1 {
		t.Errorf("Expected app info gauge 1, got %v", v)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	for _, outcome := range []filesystem.RetryOutcome{
		filesystem.RetryAttempt,
		filesystem.RetrySuccess,
		filesystem.RetryFailure,
		filesystem.RetryStale,
	} {
		obs.ObserveRetry("stat", "observer-test", outcome)
	}

	if v := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "observer-test")); v != 1 {
		t.Errorf("Expected 1 retry attempt, got %v", v)
	}
	if v := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "observer-test")); v != 1 {
		t.Errorf("Expected 1 stale error, got %v", v)
	}

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("observer-test", "read"))
	obs.ObserveOperation("observer-test", "read", 0.01, nil)
	obs.ObserveOperation("observer-test", "read", 0.01, errors.New("read failed"))
	after := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("observer-test", "read"))
	if after-before != 1 {
		t.Errorf("Expected one recorded error, got %v", after-before)
	}
}
