package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"

	"merlin-playlist/internal/database"
	"merlin-playlist/internal/editor"
	"merlin-playlist/internal/filesystem"
	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/media"
	"merlin-playlist/internal/playlist"
	"merlin-playlist/internal/transcoder"

	"github.com/gorilla/mux"
)

var (
	errBadRequest = errors.New("bad request")
	errNoDatabase = errors.New("database not configured")
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatusCode writes v as JSON with the given status code.
func writeJSONStatusCode(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatusCode(w, map[string]string{"error": message}, statusCode)
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// statusFor maps an error returned by the editing session to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, playlist.ErrDuplicateID),
		errors.Is(err, database.ErrInvalidSnapshotName),
		errors.Is(err, media.ErrInvalidKey),
		errors.Is(err, media.ErrNotAnImage),
		errors.Is(err, transcoder.ErrUnsupportedFormat),
		errors.Is(err, transcoder.ErrSourceInPlaylist):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrOutsideSource):
		return http.StatusForbidden
	case errors.Is(err, playlist.ErrUnknownNode),
		errors.Is(err, playlist.ErrUnknownParent),
		errors.Is(err, database.ErrSnapshotNotFound),
		errors.Is(err, media.ErrNoCover),
		errors.Is(err, editor.ErrNoSound),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, playlist.ErrCycle),
		errors.Is(err, playlist.ErrInvalidNodeKind),
		errors.Is(err, playlist.ErrSingletonExists),
		errors.Is(err, playlist.ErrUUIDImmutable),
		errors.Is(err, editor.ErrConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, playlist.ErrMissingUUID),
		errors.Is(err, transcoder.ErrTranscodeDisabled):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrNoStore),
		errors.Is(err, editor.ErrNoMedia):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and answers with the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		logging.Debug("%s %s rejected (%d): %v", r.Method, r.URL.Path, code, err)
	}
	writeJSONError(w, err.Error(), code)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// handleVar parses the {handle} route variable.
func handleVar(r *http.Request) (playlist.Handle, error) {
	h, err := playlist.ParseHandle(mux.Vars(r)["handle"])
	if err != nil {
		return playlist.Handle{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return h, nil
}

// optionalHandle parses a handle field where the empty string selects
// nothing.
func optionalHandle(s string) (playlist.Handle, error) {
	if s == "" {
		return playlist.Handle{}, nil
	}
	h, err := playlist.ParseHandle(s)
	if err != nil {
		return playlist.Handle{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return h, nil
}

// sourcePath resolves a client supplied path against the source directory.
// Relative paths are taken below it; absolute paths must already lie in it.
func (h *Handlers) sourcePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: path is required", errBadRequest)
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(h.sourceDir, full)
	}
	full = filepath.Clean(full)
	if !filesystem.IsWithin(full, h.sourceDir) {
		return "", fmt.Errorf("%w: %s", editor.ErrOutsideSource, p)
	}
	return full, nil
}
