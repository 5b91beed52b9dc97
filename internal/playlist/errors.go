package playlist

import "errors"

// Structure errors
var (
	// ErrCycle indicates that a move would make a node its own descendant.
	ErrCycle = errors.New("move would create a cycle")

	// ErrUnknownParent indicates that a parent handle or parent id does not resolve.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrUnknownNode indicates a stale or foreign node handle.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidNodeKind indicates that an operation needs a container and got a
	// sound, or the reverse, or targets the root or a singleton.
	ErrInvalidNodeKind = errors.New("invalid node kind")

	// ErrSingletonExists indicates a second favorites or discover root.
	ErrSingletonExists = errors.New("singleton node already exists")

	// ErrDuplicateID indicates two records of one flat list sharing an id.
	ErrDuplicateID = errors.New("duplicate item id")
)

// Identity errors
var (
	// ErrMissingUUID indicates that an operation needs a node uuid and none is set.
	ErrMissingUUID = errors.New("node has no uuid")

	// ErrUUIDImmutable indicates an attempt to change an assigned uuid.
	ErrUUIDImmutable = errors.New("uuid already assigned")
)
