// Package media turns user pictures into the images the Merlin device reads.
//
// Covers are square 128x128 JPEG files written next to the sounds in the
// playlist directory and named after the node uuid. Icons are 40x40
// thumbnails of those covers, cached on disk for the web interface.
package media
