// Package database stores named playlist snapshots in SQLite.
//
// A snapshot is the flat record list produced by playlist.Flatten, kept row
// by row so it can be listed, restored into the editor or exported again.
// The database runs in WAL mode and creates its schema on first open.
package database
