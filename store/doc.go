// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store holds campaign definitions, user progress, and the annotation log.

# Campaign Store

Campaign definitions are loaded once at boot from <data>/tasks/<id>.json and
never change while serving:

	campaigns, err := store.LoadCampaigns(ctx, "data/tasks", progress.CampaignIDs())

# Progress Store

All campaigns' progress lives in one snapshot file, <data>/progress.json.
Mutate applies a change and rewrites the snapshot (temp file + rename) before
returning; a failed write rolls the in-memory state back.

	err := progress.Mutate(campaignID, func(users models.CampaignProgress) error {
		users[userID].Progress.Done[i] = true
		return nil
	})

# Annotation Log

The log is append-only. Resets append a tombstone (annotation "__RESET__")
instead of deleting anything. Query hides tombstones and every entry they
mask; All returns the raw history.

The durable side is a LogBackend. FileBackend writes one JSONL file per
campaign under <data>/outputs; the db package provides a SQL backend.
*/
package store
