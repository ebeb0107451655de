// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/danielhkuo/quickly-annotate/auth"
	"github.com/danielhkuo/quickly-annotate/models"
)

// Results ranks models by their mean score over the visible log.
// A later score for the same segment replaces the earlier one.
func (e *Engine) Results(ctx context.Context, campaignID, token string) ([]models.ModelScore, error) {
	c, err := e.campaigns.Get(campaignID)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidateToken(c.Token, token); err != nil {
		return nil, err
	}

	entries, err := e.log.Query(ctx, campaignID, nil, nil)
	if err != nil {
		return nil, err
	}

	// model -> segment key -> score
	scores := make(map[string]map[string]float64)
	for _, entry := range entries {
		segments, err := entry.Judgments()
		if err != nil {
			continue
		}
		items := segmentKeys(entry)
		for j, seg := range segments {
			key := fmt.Sprintf("%d/%d", entry.ItemI, j)
			if j < len(items) {
				key = items[j]
			}
			for model, judgment := range seg {
				if judgment.Score == nil {
					continue
				}
				if scores[model] == nil {
					scores[model] = make(map[string]float64)
				}
				scores[model][key] = *judgment.Score
			}
		}
	}

	results := make([]models.ModelScore, 0, len(scores))
	for model, bySegment := range scores {
		values := make([]float64, 0, len(bySegment))
		for _, v := range bySegment {
			values = append(values, v)
		}
		slices.Sort(values)

		results = append(results, models.ModelScore{
			Model:  model,
			Score:  mean(values),
			Count:  len(values),
			Median: percentile(values, 0.5),
			P10:    percentile(values, 0.1),
			P90:    percentile(values, 0.9),
		})
	}

	// Sort by mean descending, tie-break by model name for stable output
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Model < results[j].Model
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// segmentKeys returns the compact JSON of each submitted segment, or nil
// when the entry carries no item list
func segmentKeys(entry models.LogEntry) []string {
	if len(entry.Item) == 0 {
		return nil
	}
	var segments []json.RawMessage
	if err := json.Unmarshal(entry.Item, &segments); err != nil {
		return nil
	}
	keys := make([]string, len(segments))
	for i, seg := range segments {
		compact, err := json.Marshal(seg)
		if err != nil {
			return nil
		}
		keys[i] = string(compact)
	}
	return keys
}

// percentile calculates the p-th percentile of sorted values
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// Linear interpolation between closest ranks
	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
