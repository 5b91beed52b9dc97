package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"merlin-playlist/internal/database"
	"merlin-playlist/internal/playlist"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
	// Width used when stdout is not a terminal
	defaultWidth = 80
)

// errAborted is returned when the user declines a prompt.
var errAborted = errors.New("aborted")

// cli carries the streams a command talks to.
type cli struct {
	db          *database.Database
	out         io.Writer
	errOut      io.Writer
	in          *bufio.Reader
	interactive bool
	width       int
	// timeout bounds each group of database calls. Prompts run outside it.
	timeout time.Duration
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "playlist.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}

	c := newCLI(db)
	err = c.run(ctx, command, args)
	if closeErr := db.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", closeErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCLI binds db to the process streams. Prompts and decoration glyphs are
// only used when stdin and stdout are terminals.
func newCLI(db *database.Database) *cli {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	width := defaultWidth
	if interactive {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return &cli{
		db:          db,
		out:         os.Stdout,
		errOut:      os.Stderr,
		in:          bufio.NewReader(os.Stdin),
		interactive: interactive,
		width:       width,
		timeout:     defaultTimeout,
	}
}

// withTimeout bounds database work started from ctx.
func (c *cli) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "list":
		return c.list(ctx)
	case "show":
		if len(args) != 1 {
			return usageError("show <name>")
		}
		return c.show(ctx, args[0])
	case "export":
		if len(args) != 1 {
			return usageError("export <name>")
		}
		return c.export(ctx, args[0])
	case "import":
		file, name, opts, err := parseImportArgs(args)
		if err != nil {
			return err
		}
		return c.importFile(ctx, file, name, opts)
	case "delete":
		if len(args) != 1 {
			return usageError("delete <name>")
		}
		return c.delete(ctx, args[0])
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(c.errOut, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand
		printUsage()
		return fmt.Errorf("unknown command %q", sanitized)
	}
}

func usageError(form string) error {
	return fmt.Errorf("usage: playlistctl %s", form)
}

// parseImportArgs accepts the file and snapshot name in order, with the
// --merge or --overwrite flag anywhere.
func parseImportArgs(args []string) (file, name string, opts playlist.ParseOptions, err error) {
	var positional []string
	for _, arg := range args {
		switch arg {
		case "--merge":
			opts.Merge = true
		case "--overwrite":
			opts.Overwrite = true
		default:
			if strings.HasPrefix(arg, "--") {
				return "", "", opts, fmt.Errorf("unknown flag %s", sanitizeCommand(arg))
			}
			positional = append(positional, arg)
		}
	}
	if opts.Merge && opts.Overwrite {
		return "", "", opts, errors.New("--merge and --overwrite are mutually exclusive")
	}
	if len(positional) != 2 {
		return "", "", opts, usageError("import <file> <name> [--merge|--overwrite]")
	}
	return positional[0], positional[1], opts, nil
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Merlin Playlist Snapshot Tool")
	fmt.Println("")
	fmt.Println("Usage: playlistctl <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                                        - List stored snapshots")
	fmt.Println("  show <name>                                 - Print a snapshot as a tree")
	fmt.Println("  export <name>                               - Write a snapshot's records as JSON")
	fmt.Println("  import <file> <name> [--merge|--overwrite]  - Load JSON records into a snapshot")
	fmt.Println("  delete <name>                               - Delete a snapshot")
	fmt.Println("")
	fmt.Println("Use - as <file> to read records from stdin.")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func (c *cli) list(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	snapshots, err := c.db.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(c.out, "No snapshots stored.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tITEMS\tUPDATED")
	for _, s := range snapshots {
		fmt.Fprintf(w, "%s\t%d\t%s\n", s.Name, s.Items, s.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

// loadTree parses the named snapshot into a fresh tree.
func (c *cli) loadTree(ctx context.Context, name string) (*playlist.Tree, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	items, err := c.db.LoadSnapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	tree := playlist.NewTree()
	if _, err := playlist.Parse(items, tree, playlist.ParseOptions{}); err != nil {
		return nil, fmt.Errorf("snapshot %s is corrupt: %w", name, err)
	}
	return tree, nil
}

func (c *cli) show(ctx context.Context, name string) error {
	tree, err := c.loadTree(ctx, name)
	if err != nil {
		return err
	}

	c.printNode(tree, tree.Root(), 0)
	if h, ok := tree.FavoritesRoot(); ok {
		c.printNode(tree, h, 0)
	}
	if h, ok := tree.DiscoverRoot(); ok {
		c.printNode(tree, h, 0)
	}
	fmt.Fprintf(c.out, "\n%d nodes, %d favorites\n", tree.Len(), tree.Favorites().Len())
	return nil
}

func (c *cli) printNode(tree *playlist.Tree, h playlist.Handle, depth int) {
	n, err := tree.Node(h)
	if err != nil {
		return
	}
	// Detached singletons are printed on their own; skip them under the root.
	if depth > 0 && n.Kind.IsSingleton() {
		return
	}

	title := n.Title
	if c.interactive {
		title = playlist.Decorate(title, n.Kind)
	}
	line := strings.Repeat("  ", depth) + title
	if n.Tags.Has(playlist.TagFavorite) {
		line += fmt.Sprintf(" [fav %d]", tree.Favorites().Rank(h))
	}
	fmt.Fprintln(c.out, truncate(line, c.width))

	for _, child := range tree.Children(h) {
		c.printNode(tree, child, depth+1)
	}
}

// truncate cuts s to at most width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

func (c *cli) export(ctx context.Context, name string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	items, err := c.db.LoadSnapshot(ctx, name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func readItems(r io.Reader) ([]playlist.Item, error) {
	var items []playlist.Item
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("invalid records: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("no records to import")
	}
	return items, nil
}

func (c *cli) importFile(ctx context.Context, file, name string, opts playlist.ParseOptions) error {
	var r io.Reader = c.in
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	items, err := readItems(r)
	if err != nil {
		return err
	}
	return c.importItems(ctx, items, name, opts)
}

// importItems combines items with the named snapshot, creating it when it
// does not exist yet.
func (c *cli) importItems(ctx context.Context, items []playlist.Item, name string, opts playlist.ParseOptions) error {
	tree, err := c.loadTree(ctx, name)
	switch {
	case errors.Is(err, database.ErrSnapshotNotFound):
		tree = playlist.NewTree()
	case err != nil:
		return err
	}

	if !opts.Merge && !opts.Overwrite && c.interactive && playlist.HasCollision(items, tree) {
		ok, err := c.confirm(fmt.Sprintf("Records collide with snapshot %s. Merge matching entries?", name))
		if err != nil {
			return err
		}
		opts.Merge = ok
	}

	res, err := playlist.Parse(items, tree, opts)
	if err != nil {
		return err
	}
	saveCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.db.SaveSnapshot(saveCtx, name, playlist.Flatten(tree)); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Imported into %s: %d created, %d reused, %d skipped", name, res.Created, res.Reused, res.Skipped)
	if res.MergeApplied {
		fmt.Fprint(c.out, " (merged)")
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *cli) delete(ctx context.Context, name string) error {
	if c.interactive {
		ok, err := c.confirm(fmt.Sprintf("Delete snapshot %s?", name))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.db.DeleteSnapshot(ctx, name); err != nil {
		return err
	}
	if err := c.db.Vacuum(ctx); err != nil {
		fmt.Fprintf(c.errOut, "Warning: failed to reclaim space: %v\n", err)
	}
	fmt.Fprintf(c.out, "Deleted snapshot %s.\n", name)
	return nil
}

// confirm asks a yes/no question and defaults to no.
func (c *cli) confirm(question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	answer, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
