package handlers

import (
	"net/http"
	"strconv"

	"merlin-playlist/internal/editor"
	"merlin-playlist/internal/filesystem"
	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/mediatypes"
	"merlin-playlist/internal/playlist"
	"merlin-playlist/internal/streaming"
)

// MenuRequest creates a menu relative to the selected node. An empty
// selection adds it at the top of the playlist.
type MenuRequest struct {
	Selected string `json:"selected"`
	Title    string `json:"title"`
}

// SoundsRequest adds one sound per source path, relative to the selected
// node, in the given order.
type SoundsRequest struct {
	Selected string   `json:"selected"`
	Paths    []string `json:"paths"`
}

// UpdateRequest changes editable node attributes. Absent fields are kept.
type UpdateRequest struct {
	Title     *string `json:"title"`
	LimitTime *int64  `json:"limitTime"`
}

// MoveRequest re-parents a node. A negative or missing index appends.
type MoveRequest struct {
	Parent string `json:"parent"`
	Index  *int   `json:"index"`
}

// CoverRequest names the source image of a cover.
type CoverRequest struct {
	Path string `json:"path"`
}

func (h *Handlers) writeNode(w http.ResponseWriter, r *http.Request, node playlist.Handle, statusCode int) {
	view, err := h.session.Node(node)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatusCode(w, view, statusCode)
}

// GetNode returns a node and its subtree.
func (h *Handlers) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeNode(w, r, node, http.StatusOK)
}

// AddMenu creates a directory node.
func (h *Handlers) AddMenu(w http.ResponseWriter, r *http.Request) {
	var req MenuRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	selected, err := optionalHandle(req.Selected)
	if err != nil {
		writeError(w, r, err)
		return
	}

	node, err := h.session.AddMenu(selected, req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeNode(w, r, node, http.StatusCreated)
}

// AddSounds prepares the source files and inserts them as sounds.
func (h *Handlers) AddSounds(w http.ResponseWriter, r *http.Request) {
	var req SoundsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Paths) == 0 {
		writeJSONError(w, "paths are required", http.StatusBadRequest)
		return
	}
	selected, err := optionalHandle(req.Selected)
	if err != nil {
		writeError(w, r, err)
		return
	}

	paths := make([]string, len(req.Paths))
	for i, p := range req.Paths {
		if paths[i], err = h.sourcePath(p); err != nil {
			writeError(w, r, err)
			return
		}
	}

	handles, err := h.session.AddSounds(r.Context(), selected, paths)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]editor.NodeView, 0, len(handles))
	for _, hd := range handles {
		if v, err := h.session.Node(hd); err == nil {
			views = append(views, v)
		}
	}
	writeJSONStatusCode(w, views, http.StatusCreated)
}

// UpdateNode renames a node or changes its time limit.
func (h *Handlers) UpdateNode(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.LimitTime != nil && *req.LimitTime < 0 {
		writeJSONError(w, "limitTime must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.session.Update(node, editor.NodeUpdate{Title: req.Title, LimitTime: req.LimitTime}); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeNode(w, r, node, http.StatusOK)
}

// MoveNode re-parents a node at the requested index.
func (h *Handlers) MoveNode(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	parent, err := optionalHandle(req.Parent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if parent.IsZero() {
		parent = h.session.Tree().Root.Handle
	}
	index := playlist.End
	if req.Index != nil && *req.Index >= 0 {
		index = *req.Index
	}

	if err := h.session.Move(node, parent, index); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeNode(w, r, node, http.StatusOK)
}

// nodeAction adapts a session method taking a single handle.
func (h *Handlers) nodeAction(fn func(playlist.Handle) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		node, err := handleVar(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := fn(node); err != nil {
			writeError(w, r, err)
			return
		}
		h.writeNode(w, r, node, http.StatusOK)
	}
}

// MoveUp swaps a node with its previous sibling.
func (h *Handlers) MoveUp(w http.ResponseWriter, r *http.Request) {
	h.nodeAction(h.session.MoveUp)(w, r)
}

// MoveDown swaps a node with its next sibling.
func (h *Handlers) MoveDown(w http.ResponseWriter, r *http.Request) {
	h.nodeAction(h.session.MoveDown)(w, r)
}

// MoveToParent moves a node to the end of its grand-parent.
func (h *Handlers) MoveToParent(w http.ResponseWriter, r *http.Request) {
	h.nodeAction(h.session.MoveToParent)(w, r)
}

// DeleteNode removes a node and its subtree. Non-empty menus need
// ?confirm=true.
func (h *Handlers) DeleteNode(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	removed, err := h.session.Delete(node, confirmed)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"removed": removed})
}

// SetCover makes a device cover for a node from a source image.
func (h *Handlers) SetCover(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req CoverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	src, err := h.sourcePath(req.Path)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.session.SetCover(node, src); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeNode(w, r, node, http.StatusOK)
}

// GetIcon returns the small JPEG icon of a node's cover.
func (h *Handlers) GetIcon(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := h.session.Icon(node)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		logging.Debug("GetIcon: write failed: %v", err)
	}
}

// ClearIcons empties the icon cache.
func (h *Handlers) ClearIcons(w http.ResponseWriter, r *http.Request) {
	n, err := h.session.ClearIcons()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"removed": n})
}

// GetSound serves the prepared mp3 of a sound node, with range support.
func (h *Handlers) GetSound(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	path, err := h.session.SoundFile(node)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(mediatypes.Ext(path)))
	streaming.ServeFile(w, r, path, streaming.DefaultIdleTimeout)
}
