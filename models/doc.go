// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, checked with Validate:

  - NextItemRequest: campaign_id, user_id
  - ItemAtRequest: campaign_id, user_id, item_i
  - LogResponseRequest: campaign_id, user_id, item_i, payload
  - ResetTaskRequest: campaign_id, user_id, token
  - DashboardResultsRequest: campaign_id, token
  - DashboardDataRequest: campaign_id, optional token

# Response Types

  - ItemResponse: status, progress, time, info, payload, payload_existing
    (or token and instructions_goodbye once completed)
  - ModelScore: ranked per-model results
  - DashboardData: per-user progress rows and the campaign threshold
  - ErrorResponse: error, message

# Domain Types

  - Campaign: static study definition (info, documents, dashboard token)
  - Document, Segment: the unit of work and its model outputs
  - UserProgress, Progress: per-user completion marks and timing
  - LogEntry: one line of the append-only annotation log
  - Threshold: validation_threshold with integer/float semantics

# Constants

Assignment strategies:

	AssignmentTaskBased    = "task-based"
	AssignmentSingleStream = "single-stream"
	AssignmentDynamic      = "dynamic"

Tombstone annotation value:

	ResetMarker = "__RESET__"

# Errors

Client-facing errors (ErrUnknownCampaign, ErrUnknownUser,
ErrItemIndexOutOfRange, ErrInvalidToken, ErrUnsupportedAssignment,
ErrDynamicNotYetEligible, ErrInvalidRequest) are matched with errors.Is and
reported as 400 by the middleware package.
*/
package models
