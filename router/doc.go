// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the annotation server.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(eng, cfg)

Wrap it with middleware.CORS before serving.

# Endpoints

Health and monitoring:

	GET /health
	GET /metrics

Annotators (campaign_id and user_id in the body):

	POST /get-next-item
	POST /get-i-item
	POST /log-response

Campaign owners (dashboard token):

	POST /reset-task
	POST /dashboard-data
	POST /dashboard-results
	GET  /download-annotations?campaign_id=...
	GET  /download-progress?campaign_id=...&token=...

Files:

	GET /assets/... - <data>/assets, media referenced by campaign documents
	GET /...        - the frontend build in cfg.StaticDir
*/
package router
