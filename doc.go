// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the quickly-annotate server.

quickly-annotate coordinates human evaluation campaigns over machine
translation output. Annotators follow a link, receive one document at a time,
and score each model's output; the server tracks progress, resumes interrupted
sessions and hands out a completion token gated by attention checks.

# Starting the Server

The frontend build must exist before the server starts:

	go run . -data ./data -static ./static

Or with environment variables, a .env file, or a YAML file:

	STORAGE_TYPE=postgres DATABASE_URL=postgres://... go run .
	go run . -c config.yaml

# Data Layout

	<data>/progress.json         per-user progress for every campaign
	<data>/tasks/<id>.json       campaign definitions
	<data>/outputs/<id>.jsonl    annotation log (file storage)
	<data>/assets/               media served under /assets/

With sqlite or postgres storage the annotation log lives in the
annotation_log table instead of outputs/.

# Architecture

  - engine: assignment strategies, validation gate, resets, results
  - store: campaign, progress and annotation log stores
  - db: SQL backend for the annotation log
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, JSON and error helpers
  - models: Campaign, progress, log and request/response types
  - auth: Dashboard token checks
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
