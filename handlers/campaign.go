// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-annotate/engine"
	"github.com/danielhkuo/quickly-annotate/middleware"
	"github.com/danielhkuo/quickly-annotate/models"
)

// okBody is the body of every write acknowledgement
const okBody = "ok"

// CampaignHandler serves the annotator-facing routes
type CampaignHandler struct {
	engine *engine.Engine
}

func NewCampaignHandler(eng *engine.Engine) *CampaignHandler {
	return &CampaignHandler{engine: eng}
}

// NextItem handles POST /get-next-item
func (h *CampaignHandler) NextItem(w http.ResponseWriter, r *http.Request) {
	var req models.NextItemRequest
	if err := middleware.DecodeRequest(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	resp, err := h.engine.NextItem(r.Context(), req.CampaignID, req.UserID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ItemAt handles POST /get-i-item
func (h *CampaignHandler) ItemAt(w http.ResponseWriter, r *http.Request) {
	var req models.ItemAtRequest
	if err := middleware.DecodeRequest(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	resp, err := h.engine.ItemAt(r.Context(), req.CampaignID, req.UserID, *req.ItemI)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// LogResponse handles POST /log-response
func (h *CampaignHandler) LogResponse(w http.ResponseWriter, r *http.Request) {
	var req models.LogResponseRequest
	if err := middleware.DecodeRequest(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := h.engine.Submit(r.Context(), req.CampaignID, req.UserID, *req.ItemI, req.Payload); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, okBody)
}

// ResetTask handles POST /reset-task
func (h *CampaignHandler) ResetTask(w http.ResponseWriter, r *http.Request) {
	var req models.ResetTaskRequest
	if err := middleware.DecodeRequest(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := h.engine.Reset(r.Context(), req.CampaignID, req.UserID, req.Token); err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			slog.Warn("reset with invalid token", "campaign_id", req.CampaignID, "remote", middleware.GetClientIP(r))
		}
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, okBody)
}
