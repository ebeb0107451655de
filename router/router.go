// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quickly-annotate/cliparse"
	"github.com/danielhkuo/quickly-annotate/engine"
	"github.com/danielhkuo/quickly-annotate/handlers"
	"github.com/danielhkuo/quickly-annotate/middleware"
)

func NewRouter(eng *engine.Engine, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(eng)
	dashboardHandler := handlers.NewDashboardHandler(eng)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Annotator operations
	mux.HandleFunc("POST /get-next-item", middleware.WithLogging(campaignHandler.NextItem))
	mux.HandleFunc("POST /get-i-item", middleware.WithLogging(campaignHandler.ItemAt))
	mux.HandleFunc("POST /log-response", middleware.WithLogging(campaignHandler.LogResponse))

	// Campaign owner operations (dashboard token)
	mux.HandleFunc("POST /reset-task", middleware.WithLogging(campaignHandler.ResetTask))
	mux.HandleFunc("POST /dashboard-data", middleware.WithLogging(dashboardHandler.Data))
	mux.HandleFunc("POST /dashboard-results", middleware.WithLogging(dashboardHandler.Results))
	mux.HandleFunc("GET /download-annotations", middleware.WithLogging(dashboardHandler.DownloadAnnotations))
	mux.HandleFunc("GET /download-progress", middleware.WithLogging(dashboardHandler.DownloadProgress))

	// User assets referenced from campaign documents
	assets := http.FileServer(http.Dir(filepath.Join(cfg.DataDir, "assets")))
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", assets))

	// Frontend
	mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))

	return mux
}
