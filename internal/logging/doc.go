// Package logging provides leveled logging for the playlist editor.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and
// exits. The level comes from DEBUG=true or LOG_LEVEL and can be overridden
// with SetLevel.
package logging
