// Package memory applies a Go soft memory limit inside containers.
//
// Importing sounds runs several ffmpeg processes beside the server, and
// cover generation decodes full-size images. Without GOMEMLIMIT the Go heap
// grows until the container is killed; ConfigureFromEnv derives a limit from
// MEMORY_LIMIT (for example from the Kubernetes Downward API) or the cgroup
// v2 memory.max file and leaves headroom given by MEMORY_RATIO.
package memory
