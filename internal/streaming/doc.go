/*
Package streaming serves large files over HTTP without a server-wide write
timeout.

The HTTP server runs with WriteTimeout disabled so that sound downloads to
slow devices are not cut off. Writer restores protection per write instead:
before every Write or Flush it moves the connection's write deadline to now
plus the idle timeout through http.ResponseController. A client that keeps
reading can take as long as it needs; one that stalls for longer than the
idle timeout fails the pending write and frees the handler.

Middleware in front of a Writer must implement Unwrap so the controller can
reach the connection. When no writer in the chain supports deadlines (for
example httptest.ResponseRecorder), Writer degrades to a byte-counting
pass-through.

# Usage

	func (h *Handlers) GetSound(w http.ResponseWriter, r *http.Request) {
		path := ...
		streaming.ServeFile(w, r, path, streaming.DefaultIdleTimeout)
	}

ServeFile records merlin_playlist_stream_bytes_total and
merlin_playlist_streams_total{outcome} once the transfer ends.
*/
package streaming
