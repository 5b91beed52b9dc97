/*
Package filesystem provides file operations for the playlist directory that
tolerate NFS hiccups.

StatWithRetry and OpenWithRetry retry on ESTALE (stale file handle) with
capped exponential backoff: 3 retries, 50ms doubling up to 500ms by default.
Other errors fail immediately.

CopyFile and WriteFileAtomic stage data in a temporary file next to the
destination and rename it into place, so the device never sees a partial
sound or cover.

Metrics are reported through an Observer installed with SetObserver and
labelled with the volume resolved by a VolumeResolver:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "playlist": cfg.PlaylistDir,
	    "cache":    cfg.CacheDir,
	    "database": cfg.DatabaseDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
*/
package filesystem
