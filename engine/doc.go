// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine assigns items to annotators and tracks their progress.

# Strategies

Each campaign uses one Strategy, picked from its assignment type when the
engine starts:

  - task-based: every user has a private list and resumes at the first
    incomplete item
  - single-stream: one shared list, items drawn at random among those not
    yet done; a submission marks the item done for everyone
  - dynamic: a shared list where each item is shown with a subset of models.
    Until every model has dynamic_first annotations, the subset is the
    under-sampled models. After that it is drawn from the top dynamic_top
    models by average score, or with probability dynamic_backoff from all
    models.

# Operations

	eng, err := engine.New(campaigns, progress, log)

	item, err := eng.NextItem(ctx, campaignID, userID)
	err = eng.Submit(ctx, campaignID, userID, itemI, payload)
	err = eng.Reset(ctx, campaignID, userID, dashboardToken)
	scores, err := eng.Results(ctx, campaignID, dashboardToken)

NextItem returns status "completed" with the pass or fail token once the user
is done. Passes decides which one.

# Resets

Reset writes tombstones to the annotation log rather than deleting anything.
Task-based resets are scoped to the user; shared resets are campaign-wide and
clear every user's marks, while only the requester's time is reset.

# Concurrency

Operations on one campaign are serialized by a per-campaign lock, so
concurrent submissions never lose marks. Different campaigns proceed in
parallel.
*/
package engine
