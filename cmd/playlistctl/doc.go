// Command playlistctl inspects and edits the playlist snapshots stored by
// merlin-playlist without going through the HTTP API.
//
// Usage:
//
//	playlistctl <command> [arguments]
//
// Commands:
//
//	list                 List stored snapshots with their record counts.
//
//	show <name>          Print a snapshot as an indented tree. Titles carry
//	                     the container and sound glyphs when stdout is a
//	                     terminal, and lines are cut to the terminal width.
//
//	export <name>        Write the snapshot's flat records to stdout as JSON.
//
//	import <file> <name> [--merge|--overwrite]
//	                     Parse JSON records from file (- for stdin) into the
//	                     named snapshot, creating it if needed. Without a
//	                     flag, a colliding import asks whether to merge when
//	                     running on a terminal.
//
//	delete <name>        Delete a snapshot, asking first on a terminal, then
//	                     vacuum the database.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
package main
