package handlers

import (
	"time"

	"merlin-playlist/internal/database"
	"merlin-playlist/internal/editor"
	"merlin-playlist/internal/startup"

	"github.com/gorilla/mux"
)

// maxBodyBytes bounds JSON request bodies. A full playlist export of a few
// thousand records stays well below it.
const maxBodyBytes = 16 << 20

type Handlers struct {
	session   *editor.Session
	db        *database.Database
	sourceDir string
	startTime time.Time
}

// New creates the HTTP handlers. db may be nil, in which case readiness
// reports degraded and snapshot routes answer 503.
func New(session *editor.Session, db *database.Database, config *startup.Config) *Handlers {
	return &Handlers{
		session:   session,
		db:        db,
		sourceDir: config.SourceDir,
		startTime: time.Now(),
	}
}

// RegisterRoutes adds every API, health and version route to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Whole playlist
	api.HandleFunc("/tree", h.GetTree).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/export", h.Export).Methods("GET")
	api.HandleFunc("/import", h.Import).Methods("POST")
	api.HandleFunc("/import/check", h.CheckImport).Methods("POST")
	api.HandleFunc("/import/wpl", h.ImportWPL).Methods("POST")

	// Node creation and editing
	api.HandleFunc("/menus", h.AddMenu).Methods("POST")
	api.HandleFunc("/sounds", h.AddSounds).Methods("POST")
	api.HandleFunc("/nodes/{handle}", h.GetNode).Methods("GET")
	api.HandleFunc("/nodes/{handle}", h.UpdateNode).Methods("PATCH")
	api.HandleFunc("/nodes/{handle}", h.DeleteNode).Methods("DELETE")
	api.HandleFunc("/nodes/{handle}/move", h.MoveNode).Methods("POST")
	api.HandleFunc("/nodes/{handle}/up", h.MoveUp).Methods("POST")
	api.HandleFunc("/nodes/{handle}/down", h.MoveDown).Methods("POST")
	api.HandleFunc("/nodes/{handle}/outdent", h.MoveToParent).Methods("POST")
	api.HandleFunc("/nodes/{handle}/cover", h.SetCover).Methods("POST")
	api.HandleFunc("/nodes/{handle}/icon", h.GetIcon).Methods("GET")
	api.HandleFunc("/icons", h.ClearIcons).Methods("DELETE")
	api.HandleFunc("/nodes/{handle}/sound", h.GetSound).Methods("GET", "HEAD")

	// Favorites
	api.HandleFunc("/favorites/order", h.ReorderFavorites).Methods("PUT")
	api.HandleFunc("/favorites/{handle}", h.AddFavorite).Methods("POST")
	api.HandleFunc("/favorites/{handle}/toggle", h.ToggleFavorite).Methods("POST")
	api.HandleFunc("/favorites/{handle}", h.RemoveFavorite).Methods("DELETE")

	// Snapshots
	api.HandleFunc("/snapshots", h.ListSnapshots).Methods("GET")
	api.HandleFunc("/snapshots", h.SaveSnapshot).Methods("POST")
	api.HandleFunc("/snapshots/{name}", h.GetSnapshot).Methods("GET")
	api.HandleFunc("/snapshots/{name}", h.DeleteSnapshot).Methods("DELETE")
	api.HandleFunc("/snapshots/{name}/load", h.LoadSnapshot).Methods("POST")
}
