// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"maps"
	"slices"

	"github.com/danielhkuo/quickly-annotate/auth"
	"github.com/danielhkuo/quickly-annotate/models"
)

// Dashboard summarizes every user's progress. Tokens are only included when
// token matches the campaign's dashboard token.
func (e *Engine) Dashboard(campaignID string, token *string) (*models.DashboardData, error) {
	c, s, err := e.resolve(campaignID)
	if err != nil {
		return nil, err
	}
	snapshot, err := e.progress.Snapshot(campaignID)
	if err != nil {
		return nil, err
	}

	privileged := auth.IsPrivileged(c.Token, token)
	threshold := c.Info.Threshold()

	data := make(map[string]models.DashboardUser, len(snapshot))
	for userID, p := range snapshot {
		row := models.DashboardUser{
			Progress:    p.Progress,
			Time:        p.Time,
			TimeStart:   p.TimeStart,
			TimeEnd:     p.TimeEnd,
			URL:         p.URL,
			Validations: collapseValidations(p.Validations),
		}

		// a user whose list cannot be resolved is reported as in progress
		if done, err := s.Completed(c, userID, p); err == nil && done {
			passed := Passes(threshold, p.Validations)
			row.ThresholdPassed = &passed
		}

		if privileged {
			row.TokenCorrect = &p.TokenCorrect
			row.TokenIncorrect = &p.TokenIncorrect
		}
		data[userID] = row
	}

	return &models.DashboardData{
		Data:                data,
		ValidationThreshold: c.Info.ValidationThreshold,
	}, nil
}

// collapseValidations reduces each item's checks to one all-passed flag,
// ordered by item index
func collapseValidations(validations map[int][]bool) []bool {
	out := make([]bool, 0, len(validations))
	for _, i := range slices.Sorted(maps.Keys(validations)) {
		out = append(out, !slices.Contains(validations[i], false))
	}
	return out
}
