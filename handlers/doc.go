// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the annotation server.

# Handler Types

Each handler is a struct over a shared *engine.Engine:

  - CampaignHandler: item assignment, submissions and resets
  - DashboardHandler: progress overview, model ranking and downloads

	campaignHandler := handlers.NewCampaignHandler(eng)

# Annotator Flow

	POST /get-next-item → NextItem (next unfinished item or completion token)
	POST /get-i-item    → ItemAt (revisit an item, pre-filled with the last answer)
	POST /log-response  → LogResponse (append to the log, update progress)

# Campaign Owner Flow

	POST /reset-task           → ResetTask (dashboard token required)
	POST /dashboard-data       → Data (tokens shown only with the dashboard token)
	POST /dashboard-results    → Results (dashboard token required)
	GET  /download-annotations → DownloadAnnotations (?campaign_id=...)
	GET  /download-progress    → DownloadProgress (?campaign_id=...&token=...)

Request bodies are validated before they reach the engine. Every failure in
the models error taxonomy is answered with 400 and its message.
*/
package handlers
