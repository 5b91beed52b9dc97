// Package workers sizes worker pools for audio preparation.
//
// Counts derive from GOMAXPROCS and a per-task multiplier: ForCPU while
// ffmpeg may transcode, ForIO when sounds are only copied. Set AUDIO_WORKERS to pin the count, for example on hosts where
// ffmpeg should not use every core.
//
// Group wraps golang.org/x/sync/errgroup with a concurrency limit:
//
//	g, ctx := workers.Group(ctx, workers.ForCPU(8))
//	for _, src := range sources {
//	    g.Go(func() error { return prepare(ctx, src) })
//	}
//	err := g.Wait()
package workers
