package handlers

import (
	"fmt"
	"net/http"

	"merlin-playlist/internal/playlist"
)

// FavoritesOrderRequest lists every favorite in the wanted order.
type FavoritesOrderRequest struct {
	Order []playlist.Handle `json:"order"`
}

func (h *Handlers) setFavorite(w http.ResponseWriter, r *http.Request, on bool) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	changed, err := h.session.SetFavorite(node, on)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !changed {
		on = h.session.IsFavorite(node)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"favorite":  on,
		"changed":   changed,
		"favorites": h.session.Tree().Favorites,
	})
}

// AddFavorite adds a sound to the favorites.
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

// RemoveFavorite removes a sound from the favorites.
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

// ToggleFavorite flips the favorite state of a sound.
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	node, err := handleVar(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	on, changed, err := h.session.ToggleFavorite(node)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"favorite":  on,
		"changed":   changed,
		"favorites": h.session.Tree().Favorites,
	})
}

// ReorderFavorites replaces the favorites order. The request must be a
// permutation of the current favorites.
func (h *Handlers) ReorderFavorites(w http.ResponseWriter, r *http.Request) {
	var req FavoritesOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Any mismatch with the current favorites is a malformed order.
	if err := h.session.ReorderFavorites(req.Order); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{"favorites": h.session.Tree().Favorites})
}
