package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merlin-playlist/internal/database"
	"merlin-playlist/internal/editor"
	"merlin-playlist/internal/filesystem"
	"merlin-playlist/internal/handlers"
	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/media"
	"merlin-playlist/internal/memory"
	"merlin-playlist/internal/metrics"
	"merlin-playlist/internal/middleware"
	"merlin-playlist/internal/playlist"
	"merlin-playlist/internal/startup"
	"merlin-playlist/internal/transcoder"
	"merlin-playlist/internal/workers"

	"github.com/gorilla/mux"
)

const (
	readTimeout     = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	memory.ConfigureFromEnv()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"playlist": config.PlaylistDir,
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	}))

	// Initialize database
	dbStart := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		cancel()
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	snapshots, err := db.CountSnapshots(ctx)
	cancel()
	if err != nil {
		logging.Warn("Failed to count snapshots: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart), snapshots)

	// Initialize media collaborators
	startup.LogTranscoderInit(config.TranscodingEnabled)
	trans := transcoder.New(config.PlaylistDir, config.TranscodingEnabled)
	covers := media.NewCoverMaker(config.PlaylistDir, config.IconDir)

	audioWorkers := workers.ForCPU(editor.MaxAudioWorkers)
	if !config.TranscodingEnabled {
		// Plain copies only.
		audioWorkers = workers.ForIO(editor.MaxAudioWorkers)
	}
	session := editor.New(editor.Options{
		Tree:       playlist.TreeConfig{FavoritePlacement: config.FavoritePlacement},
		PruneMedia: config.PruneMedia,
		SourceDir:  config.SourceDir,
		Workers:    audioWorkers,
	}, trans, covers, db)
	startup.LogEditorInit(config.FavoritePlacement, config.PruneMedia, audioWorkers)

	collector := metrics.NewCollector(session, db, config.MetricsInterval)
	collector.Start()

	h := handlers.New(session, db, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	if !config.LogStaticFiles {
		loggingConfig.SkipExtensions = append(loggingConfig.SkipExtensions, "/icon", "/sound")
	}
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(
		middleware.Logger(loggingConfig)(router),
	)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: 0, // sound downloads and transcoding requests can be long
		IdleTimeout:  idleTimeout,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, collector, trans, db)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for it.
	<-shutdownDone
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(r)
	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	sm := http.NewServeMux()
	sm.Handle("/metrics", h.MetricsHandler())
	sm.HandleFunc("/health", h.LivenessCheck)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      sm,
		ReadTimeout:  readTimeout,
		WriteTimeout: readTimeout,
		IdleTimeout:  idleTimeout,
	}
}

var shutdownDone = make(chan struct{})

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, trans *transcoder.Transcoder, db *database.Database) {
	defer close(shutdownDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping running transcodes")
	trans.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
