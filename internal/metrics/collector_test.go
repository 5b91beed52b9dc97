package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	return m.stats
}

type mockStorageReporter struct {
	mu    sync.Mutex
	count int
}

func (m *mockStorageReporter) UpdateDBMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
}

func (m *mockStorageReporter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, nil, 5*time.Second)

	if collector.statsProvider != provider {
		t.Error("statsProvider not set correctly")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want %v", collector.interval, 5*time.Second)
	}
	if collector.storage != nil {
		t.Error("storage should be nil")
	}
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		Directories: 4,
		Sounds:      12,
		Favorites:   3,
		HasFavRoot:  true,
		Snapshots:   2,
	}}
	storage := &mockStorageReporter{}

	NewCollector(provider, storage, time.Minute).collect()

	if v := testutil.ToFloat64(TreeNodes.WithLabelValues("sound")); v != 12 {
		t.Errorf("Expected 12 sounds, got %v", v)
	}
	if v := testutil.ToFloat64(TreeNodes.WithLabelValues("favorites")); v != 1 {
		t.Errorf("Expected favorites root gauge 1, got %v", v)
	}
	if v := testutil.ToFloat64(TreeNodes.WithLabelValues("discover")); v != 0 {
		t.Errorf("Expected discover root gauge 0, got %v", v)
	}
	if v := testutil.ToFloat64(TreeFavorites); v != 3 {
		t.Errorf("Expected 3 favorites, got %v", v)
	}
	if v := testutil.ToFloat64(SnapshotsTotal); v != 2 {
		t.Errorf("Expected 2 snapshots, got %v", v)
	}
	if storage.calls() != 1 {
		t.Errorf("Expected storage to be refreshed once, got %d", storage.calls())
	}
}

func TestCollectorNilProvider(t *testing.T) {
	storage := &mockStorageReporter{}
	NewCollector(nil, storage, time.Minute).collect()

	if storage.calls() != 1 {
		t.Errorf("Expected storage refresh without a provider, got %d", storage.calls())
	}
}

func TestCollectorStartStop(t *testing.T) {
	storage := &mockStorageReporter{}
	collector := NewCollector(&mockStatsProvider{}, storage, 20*time.Millisecond)

	collector.Start()
	time.Sleep(70 * time.Millisecond)
	collector.Stop()

	if storage.calls() < 2 {
		t.Errorf("Expected repeated collection, got %d", storage.calls())
	}
	calls := storage.calls()
	time.Sleep(50 * time.Millisecond)
	if storage.calls() != calls {
		t.Error("Expected collection to stop")
	}
}
