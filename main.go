package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/quickly-annotate/cliparse"
	"github.com/danielhkuo/quickly-annotate/db"
	"github.com/danielhkuo/quickly-annotate/engine"
	"github.com/danielhkuo/quickly-annotate/middleware"
	"github.com/danielhkuo/quickly-annotate/router"
	"github.com/danielhkuo/quickly-annotate/store"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg, os.Stderr))

	// The frontend must be built before the server can start
	if _, err := os.Stat(filepath.Join(cfg.StaticDir, "index.html")); err != nil {
		slog.Error("static directory not found, build the frontend first", "static_dir", cfg.StaticDir, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Load progress first; it names the campaigns to serve
	progress, err := store.OpenProgressStore(filepath.Join(cfg.DataDir, "progress.json"))
	if err != nil {
		slog.Error("failed to open progress", "error", err)
		os.Exit(1)
	}
	campaigns, err := store.LoadCampaigns(ctx, filepath.Join(cfg.DataDir, "tasks"), progress.CampaignIDs())
	if err != nil {
		slog.Error("failed to load campaigns", "error", err)
		os.Exit(1)
	}

	// Annotation log backend
	backend, dbConn, err := openLogBackend(ctx, cfg)
	if err != nil {
		slog.Error("annotation log unavailable", "storage", cfg.StorageType, "error", err)
		os.Exit(1)
	}
	if dbConn != nil {
		defer dbConn.Close()
	}

	eng, err := engine.New(campaigns, progress, store.NewLog(backend))
	if err != nil {
		slog.Error("failed to start assignment engine", "error", err)
		os.Exit(1)
	}

	// Create router
	mux := router.NewRouter(eng, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "url", cfg.ServerURL, "storage", cfg.StorageType)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// newLogger builds the slog logger described by cfg
func newLogger(cfg cliparse.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openLogBackend returns the file backend under <data>/outputs, or a SQL
// backend with its schema in place. The *sql.DB is nil for file storage.
func openLogBackend(ctx context.Context, cfg cliparse.Config) (store.LogBackend, *sql.DB, error) {
	switch cfg.StorageType {
	case cliparse.StorageFile:
		backend, err := store.NewFileBackend(filepath.Join(cfg.DataDir, "outputs"))
		return backend, nil, err
	case cliparse.StorageSQLite, cliparse.StoragePostgres:
		dbConn, err := db.Open(cfg.StorageType, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.CreateSchema(ctx, dbConn, cfg.StorageType); err != nil {
			dbConn.Close()
			return nil, nil, err
		}
		slog.Info("Database schema ready", "storage", cfg.StorageType)
		return db.NewSQLBackend(dbConn, cfg.StorageType), dbConn, nil
	default:
		return nil, nil, errors.New("unknown storage type " + cfg.StorageType)
	}
}
