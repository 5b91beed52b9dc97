package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// OverrideEnv names the environment variable that pins the worker count.
const OverrideEnv = "AUDIO_WORKERS"

// Count returns the number of workers for a task type, based on GOMAXPROCS
// (which follows container CPU limits).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (ffmpeg transcoding)
//   - 2.0 for I/O-bound tasks (plain copies)
//
// limit caps the result; 0 means no cap. AUDIO_WORKERS overrides the
// computed value but not the cap.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capAt(count, limit)
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	return capAt(max(workers, 1), limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Group returns an errgroup bounded to n concurrent goroutines. The returned
// context is cancelled when the first task fails.
func Group(ctx context.Context, n int) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(n, 1))
	return g, gctx
}
