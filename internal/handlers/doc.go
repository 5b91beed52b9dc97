// Package handlers provides the HTTP API of the playlist editor.
//
// It includes handlers for:
//   - Reading the playlist tree and single nodes
//   - Importing and exporting the flat record list, including .wpl files
//   - Adding menus and sounds, renaming, moving and deleting nodes
//   - Covers, icons and sound downloads
//   - Favorites and their order
//   - Named snapshots stored in SQLite
//   - Health checks and version information
//
// Session errors are mapped to status codes in one place, see statusFor.
package handlers
