// Package mediatypes classifies files by extension: audio sources for
// sounds, images for covers, and importable playlists.
package mediatypes
