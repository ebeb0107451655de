// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms),
and observes quickly_annotate_http_request_duration_seconds by route pattern.

# CORS Middleware

Annotation frontends may be hosted anywhere, so every origin is allowed:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Decode and validate a request body, then report engine errors:

	var req models.NextItemRequest
	if err := middleware.DecodeRequest(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

WriteError sends 400 for the client-facing sentinels in models and 500 for
everything else.
*/
package middleware
