package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"merlin-playlist/internal/editor"
	"merlin-playlist/internal/playlist"
)

// ImportRequest carries a flat record list and how to combine it with the
// working playlist.
type ImportRequest struct {
	Items     []playlist.Item `json:"items"`
	Merge     bool            `json:"merge"`
	Overwrite bool            `json:"overwrite"`
}

// ImportResponse reports what an import did.
type ImportResponse struct {
	Created      int  `json:"created"`
	Reused       int  `json:"reused"`
	Skipped      int  `json:"skipped"`
	MergeApplied bool `json:"mergeApplied"`
	Count        int  `json:"count"`
}

// WPLRequest names a Windows Media Player playlist below the source
// directory. SearchDir, also below the source directory, is where entries
// are looked up by name when their recorded path does not exist.
type WPLRequest struct {
	Path      string `json:"path"`
	SearchDir string `json:"searchDir,omitempty"`
}

func importResponse(res playlist.ParseResult, count int) ImportResponse {
	return ImportResponse{
		Created:      res.Created,
		Reused:       res.Reused,
		Skipped:      res.Skipped,
		MergeApplied: res.MergeApplied,
		Count:        count,
	}
}

// invalidRecords marks record list validation failures as client errors.
func invalidRecords(err error) error {
	if errors.Is(err, playlist.ErrUnknownParent) || errors.Is(err, playlist.ErrInvalidNodeKind) {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return err
}

// GetTree returns the whole working playlist.
func (h *Handlers) GetTree(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.session.Tree())
}

// GetStats returns node and snapshot counts.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.session.GetStats())
}

// Export returns the flat record list, ready to be written to the device.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	items := h.session.Export(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Disposition", `attachment; filename="playlist.json"`)
	}
	writeJSON(w, items)
}

// Import parses a record list into the playlist.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Items) == 0 {
		writeJSONError(w, "items are required", http.StatusBadRequest)
		return
	}

	res, err := h.session.Import(req.Items, editor.ImportOptions{Merge: req.Merge, Overwrite: req.Overwrite})
	if err != nil {
		writeError(w, r, invalidRecords(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, importResponse(res, h.session.Tree().Count))
}

// CheckImport reports whether a record list shares a top-level node with the
// playlist, in which case the client should offer a merge.
func (h *Handlers) CheckImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := playlist.ValidateItems(req.Items); err != nil {
		writeError(w, r, invalidRecords(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"collision": h.session.HasCollision(req.Items),
		"items":     len(req.Items),
	})
}

// ImportWPL appends a Windows Media Player playlist as a new menu.
func (h *Handlers) ImportWPL(w http.ResponseWriter, r *http.Request) {
	var req WPLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wplPath, err := h.sourcePath(req.Path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	searchDir := h.sourceDir
	if req.SearchDir != "" {
		if searchDir, err = h.sourcePath(req.SearchDir); err != nil {
			writeError(w, r, err)
			return
		}
	}

	res, err := h.session.ImportWPL(r.Context(), wplPath, searchDir)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONStatusCode(w, res, http.StatusCreated)
}
