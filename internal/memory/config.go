package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/metrics"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left to ffmpeg children and decoded cover images.
const DefaultMemoryRatio = 0.80

// cgroupMemoryMax is the cgroup v2 limit file inside a container.
const cgroupMemoryMax = "/sys/fs/cgroup/memory.max"

// Source names where the limit came from.
type Source string

const (
	SourceNone       Source = "none"
	SourceGoMemLimit Source = "GOMEMLIMIT"
	SourceEnv        Source = "MEMORY_LIMIT"
	SourceCgroup     Source = "cgroup"
)

// Result describes the applied soft memory limit.
type Result struct {
	Source         Source
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a limit is in effect.
func (r Result) Configured() bool {
	return r.GoMemLimit > 0
}

// ConfigureFromEnv sets the Go soft memory limit from the environment or the
// container's cgroup. Call it early in main.
//
// Precedence: GOMEMLIMIT (left untouched), MEMORY_LIMIT in bytes, then the
// cgroup v2 limit. MEMORY_RATIO scales the container limit (default 0.80).
func ConfigureFromEnv() Result {
	res := configure(os.Getenv, cgroupMemoryMax)
	metrics.MemoryLimitBytes.Set(float64(res.GoMemLimit))
	return res
}

func configure(getenv func(string) string, cgroupFile string) Result {
	if v := getenv("GOMEMLIMIT"); v != "" {
		res := Result{Source: SourceGoMemLimit}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			res.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return res
	}

	limit, source := containerLimit(getenv, cgroupFile)
	if limit <= 0 {
		logging.Debug("No container memory limit found, GOMEMLIMIT not configured")
		return Result{Source: SourceNone}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goLimit := int64(float64(limit) * ratio)
	debug.SetMemoryLimit(goLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s %s limit)",
		FormatBytes(goLimit), ratio*100, FormatBytes(limit), source)

	return Result{
		Source:         source,
		ContainerLimit: limit,
		GoMemLimit:     goLimit,
		Ratio:          ratio,
	}
}

func containerLimit(getenv func(string) string, cgroupFile string) (int64, Source) {
	if v := getenv("MEMORY_LIMIT"); v != "" {
		limit, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || limit <= 0 {
			logging.Warn("Ignoring invalid MEMORY_LIMIT %q", v)
		} else {
			return limit, SourceEnv
		}
	}

	data, err := os.ReadFile(cgroupFile)
	if err != nil {
		return 0, SourceNone
	}
	// "max" means unlimited.
	limit, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || limit <= 0 {
		return 0, SourceNone
	}
	return limit, SourceCgroup
}

func parseRatio(v string) float64 {
	if v == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(v, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0], using %.2f", v, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// FormatBytes renders b with a binary unit.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
