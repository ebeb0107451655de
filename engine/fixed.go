// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"slices"

	"github.com/danielhkuo/quickly-annotate/models"
)

// fixedStrategy serves each user their own list in order ("task-based")
type fixedStrategy struct{}

func (fixedStrategy) Name() string { return models.AssignmentTaskBased }

func (fixedStrategy) Len(c *models.Campaign, userID string) (int, error) {
	docs, err := c.DocumentsFor(userID)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (fixedStrategy) Completed(_ *models.Campaign, _ string, p *models.UserProgress) (bool, error) {
	return p.Progress.AllDone(), nil
}

// Next resumes at the lowest-index incomplete item
func (fixedStrategy) Next(_ context.Context, c *models.Campaign, userID string, p *models.UserProgress) (int, models.Document, error) {
	docs, err := c.DocumentsFor(userID)
	if err != nil {
		return 0, nil, err
	}
	itemI := slices.Index(p.Progress.Done, false)
	doc, err := documentAt(docs, itemI)
	if err != nil {
		return 0, nil, err
	}
	return itemI, doc, nil
}

func (fixedStrategy) ItemAt(c *models.Campaign, userID string, itemI int) (models.Document, error) {
	docs, err := c.DocumentsFor(userID)
	if err != nil {
		return nil, err
	}
	return documentAt(docs, itemI)
}

func (fixedStrategy) Scope(userID string) *string { return &userID }

func (fixedStrategy) Record(_ *models.Campaign, users models.CampaignProgress, userID string, itemI int, _ models.AnnotationPayload) error {
	done := users[userID].Progress.Done
	if itemI >= len(done) {
		return models.ErrItemIndexOutOfRange
	}
	done[itemI] = true
	return nil
}

func (fixedStrategy) ResetMarks(users models.CampaignProgress, userID string, n int) {
	users[userID].Progress = models.NewBoolProgress(n)
}
