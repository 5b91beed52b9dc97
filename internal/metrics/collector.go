package metrics

import (
	"time"

	"merlin-playlist/internal/logging"
)

// StatsProvider reports the current shape of the working playlist.
type StatsProvider interface {
	GetStats() Stats
}

// StorageReporter refreshes storage gauges such as database file sizes.
type StorageReporter interface {
	UpdateDBMetrics()
}

// Stats holds the current playlist statistics.
type Stats struct {
	Directories int
	Sounds      int
	Favorites   int
	HasFavRoot  bool
	HasDiscover bool
	Snapshots   int
}

// Collector periodically collects and updates gauges.
type Collector struct {
	statsProvider StatsProvider
	storage       StorageReporter
	interval      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewCollector creates a new metrics collector. storage may be nil.
func NewCollector(provider StatsProvider, storage StorageReporter, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		storage:       storage,
		interval:      interval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins the collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop and waits for it to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.storage != nil {
		c.storage.UpdateDBMetrics()
	}
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()
	TreeNodes.WithLabelValues("directory").Set(float64(stats.Directories))
	TreeNodes.WithLabelValues("sound").Set(float64(stats.Sounds))
	TreeNodes.WithLabelValues("favorites").Set(boolGauge(stats.HasFavRoot))
	TreeNodes.WithLabelValues("discover").Set(boolGauge(stats.HasDiscover))
	TreeFavorites.Set(float64(stats.Favorites))
	SnapshotsTotal.Set(float64(stats.Snapshots))

	logging.Debug("Metrics collected: directories=%d, sounds=%d, favorites=%d, snapshots=%d",
		stats.Directories, stats.Sounds, stats.Favorites, stats.Snapshots)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
