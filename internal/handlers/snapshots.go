package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SnapshotRequest names the snapshot the working playlist is saved under.
type SnapshotRequest struct {
	Name string `json:"name"`
}

// ListSnapshots returns every stored snapshot, most recently updated first.
func (h *Handlers) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := h.session.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, list)
}

// SaveSnapshot stores the working playlist, replacing a snapshot of the
// same name.
func (h *Handlers) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	count, err := h.session.SaveSnapshot(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONStatusCode(w, map[string]interface{}{"name": req.Name, "items": count}, http.StatusCreated)
}

// GetSnapshot returns the flat record list of a snapshot without loading it.
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	items, err := h.session.SnapshotItems(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, items)
}

// DeleteSnapshot removes a snapshot.
func (h *Handlers) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteSnapshot(r.Context(), mux.Vars(r)["name"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// LoadSnapshot replaces the working playlist with a snapshot.
func (h *Handlers) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := h.session.LoadSnapshot(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, importResponse(res, h.session.Tree().Count))
}
