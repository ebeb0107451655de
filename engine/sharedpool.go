// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"

	"github.com/danielhkuo/quickly-annotate/models"
)

// sharedPoolStrategy draws random incomplete items from one list shared by
// every user ("single-stream"). Two users may receive the same item at the
// same time; both submissions are logged.
type sharedPoolStrategy struct {
	rng *Rand
}

func (sharedPoolStrategy) Name() string { return models.AssignmentSingleStream }

func (sharedPoolStrategy) Len(c *models.Campaign, _ string) (int, error) {
	return len(c.Documents), nil
}

func (sharedPoolStrategy) Completed(_ *models.Campaign, _ string, p *models.UserProgress) (bool, error) {
	return p.Progress.AllDone(), nil
}

func (s sharedPoolStrategy) Next(_ context.Context, c *models.Campaign, _ string, p *models.UserProgress) (int, models.Document, error) {
	var incomplete []int
	for i, done := range p.Progress.Done {
		if !done && i < len(c.Documents) {
			incomplete = append(incomplete, i)
		}
	}
	if len(incomplete) == 0 {
		return 0, nil, models.ErrItemIndexOutOfRange
	}
	itemI := s.rng.Choice(incomplete)
	return itemI, c.Documents[itemI], nil
}

func (sharedPoolStrategy) ItemAt(c *models.Campaign, _ string, itemI int) (models.Document, error) {
	return documentAt(c.Documents, itemI)
}

func (sharedPoolStrategy) Scope(string) *string { return nil }

// Record marks the item done for every user in the campaign
func (sharedPoolStrategy) Record(_ *models.Campaign, users models.CampaignProgress, _ string, itemI int, _ models.AnnotationPayload) error {
	for _, u := range users {
		if itemI < len(u.Progress.Done) {
			u.Progress.Done[itemI] = true
		}
	}
	return nil
}

func (sharedPoolStrategy) ResetMarks(users models.CampaignProgress, _ string, n int) {
	for _, u := range users {
		u.Progress = models.NewBoolProgress(n)
	}
}
