// Package main provides the entry point for the Merlin playlist editor.
//
// The service holds one working playlist for a Merlin storytelling speaker
// in memory and exposes it over HTTP. Clients import the device's flat
// record list, edit the tree (menus, sounds, covers, favorites), keep named
// snapshots in SQLite and export the result back to the device.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Metrics Setup: Pre-populates label sets and installs the filesystem observer
//  3. Database Initialization: Opens the SQLite snapshot store in WAL mode
//  4. Component Initialization:
//     - Transcoder: ffprobe/ffmpeg based audio preparation
//     - Cover maker: 128x128 device covers and cached 40x40 icons
//     - Editing session: the working playlist behind a mutex
//     - Metrics collector: refreshes tree and database gauges
//  5. HTTP Server Setup: Routes, W3C access logging, gzip, request metrics
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and stops all components
//
// # HTTP Servers
//
//  1. Main Server (default port 8080): the /api routes, health and version
//  2. Metrics Server (default port 9090, optional): /metrics and /health
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests (30s timeout)
//  2. Stop the metrics collector
//  3. Shut down the metrics server
//  4. Kill running ffmpeg processes
//  5. Close the database
//
// See [merlin-playlist/internal/startup] for the environment variables.
//
// # Build
//
// SQLite requires CGO:
//
//	go build -o merlin-playlist ./cmd/merlin-playlist
//
// ffprobe and ffmpeg must be on PATH at runtime to accept audio that is not
// already a 128 kbit/s stereo 44.1 kHz mp3.
package main
