// Package playlist models the menu hierarchy of a Merlin storytelling speaker
// and converts it to and from the device's flat record list.
//
// The hierarchy lives in a Tree, an arena of nodes addressed by Handle values.
// A Handle stays valid until its node is deleted; the slot may then be reused
// with a new generation, so stale handles are rejected instead of silently
// aliasing another node.
//
// Node kinds are derived from the device type code (type mod 32):
//   - 2, 6: directory (menu)
//   - 10: favorites root, a singleton holding no structural children
//   - 18: discover root, a singleton container
//   - 1: the implicit root
//   - anything else: sound
//
// Favorites are tracked by the fav_order attribute of sound nodes. The Tree
// keeps a Favorites projection (an ordered list of handles) in sync with it;
// the exported rank of a favorite is derived from its position in that list.
//
// Conversion:
//   - Flatten walks the tree pre-order and emits Items with sequential ids.
//   - Parse consumes such a list, optionally merging top-level subtrees that
//     share (title, uuid) with existing ones.
//
// Titles are stored undecorated. Decorate and Undecorate handle the glyph
// prefixes used by user interfaces.
//
// A Tree is not safe for concurrent use; callers serialise access.
package playlist
