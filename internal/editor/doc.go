// Package editor owns the working playlist and applies edits to it.
//
// A Session wraps a single playlist.Tree behind a mutex so concurrent HTTP
// requests see a consistent hierarchy. It also coordinates the slower
// collaborators around the tree: audio preparation runs in parallel outside
// the lock, then the resulting sounds are inserted in one critical section.
// Covers, icons and snapshots are delegated to the media and database
// packages through small interfaces.
package editor
