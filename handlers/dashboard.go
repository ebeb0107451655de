// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-annotate/engine"
	"github.com/danielhkuo/quickly-annotate/middleware"
	"github.com/danielhkuo/quickly-annotate/models"
)

// DashboardHandler serves the campaign owner's routes
type DashboardHandler struct {
	engine *engine.Engine
}

func NewDashboardHandler(eng *engine.Engine) *DashboardHandler {
	return &DashboardHandler{engine: eng}
}

// Data handles POST /dashboard-data
func (h *DashboardHandler) Data(w http.ResponseWriter, r *http.Request) {
	var req models.DashboardDataRequest
	if err := middleware.DecodeRequest(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	data, err := h.engine.Dashboard(req.CampaignID, req.Token)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, data)
}

// Results handles POST /dashboard-results
func (h *DashboardHandler) Results(w http.ResponseWriter, r *http.Request) {
	var req models.DashboardResultsRequest
	if err := middleware.DecodeRequest(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	results, err := h.engine.Results(r.Context(), req.CampaignID, req.Token)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if results == nil {
		results = []models.ModelScore{}
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// DownloadAnnotations handles GET /download-annotations?campaign_id=a&campaign_id=b
func (h *DashboardHandler) DownloadAnnotations(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["campaign_id"]
	if len(ids) == 0 {
		middleware.WriteError(w, r, fmt.Errorf("%w: campaign_id is required", models.ErrInvalidRequest))
		return
	}

	out, err := h.engine.DownloadAnnotations(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("annotations downloaded", "campaigns", ids)
	attachment(w, "annotations.json")
	middleware.JSONResponse(w, http.StatusOK, out)
}

// DownloadProgress handles GET /download-progress?campaign_id=a&token=ta
func (h *DashboardHandler) DownloadProgress(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ids := query["campaign_id"]
	if len(ids) == 0 {
		middleware.WriteError(w, r, fmt.Errorf("%w: campaign_id is required", models.ErrInvalidRequest))
		return
	}

	out, err := h.engine.DownloadProgress(ids, query["token"])
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	attachment(w, "progress.json")
	middleware.JSONResponse(w, http.StatusOK, out)
}

func attachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
