// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"cmp"
	"context"
	"slices"

	"github.com/danielhkuo/quickly-annotate/models"
	"github.com/danielhkuo/quickly-annotate/store"
)

// Dynamic selection phases, reported in metrics
const (
	phaseFirst    = "first"
	phaseBackoff  = "backoff"
	phaseTop      = "top"
	phaseFallback = "fallback"
)

// dynamicStrategy concentrates annotation effort on the best-scoring models.
// Marks are per-document model sets shared by all users; a user is complete
// once every document has been annotated for every model.
type dynamicStrategy struct {
	log *store.Log
	rng *Rand
}

// modelStats are per-model totals over the visible log
type modelStats struct {
	counts map[string]int
	sums   map[string]float64
	scored map[string]int
}

func (s *dynamicStrategy) Name() string { return models.AssignmentDynamic }

func (s *dynamicStrategy) Len(c *models.Campaign, _ string) (int, error) {
	return len(c.Documents), nil
}

func (s *dynamicStrategy) Completed(c *models.Campaign, _ string, p *models.UserProgress) (bool, error) {
	all, err := c.Models()
	if err != nil {
		return false, err
	}
	marks := modelMarks(p.Progress, len(c.Documents))
	for i := range c.Documents {
		for _, m := range all {
			if !slices.Contains(marks.Models[i], m) {
				return false, nil
			}
		}
	}
	return true, nil
}

func (s *dynamicStrategy) Next(ctx context.Context, c *models.Campaign, _ string, p *models.UserProgress) (int, models.Document, error) {
	all, err := c.Models()
	if err != nil {
		return 0, nil, err
	}
	stats, err := s.stats(ctx, c.ID)
	if err != nil {
		return 0, nil, err
	}

	marks := modelMarks(p.Progress, len(c.Documents))
	selected, phase := s.selectModels(c.Info, all, stats)

	itemI, ok := s.pickItem(marks, selected)
	if !ok {
		// the chosen models are fully covered; contrast models that still have gaps
		selected = s.rng.Sample(gapModels(marks, all), max(c.Info.Contrastive(), 1))
		phase = phaseFallback
		itemI, ok = s.pickItem(marks, selected)
		if !ok {
			return 0, nil, models.ErrItemIndexOutOfRange
		}
	}
	dynamicSelections.WithLabelValues(phase).Inc()

	payload, err := c.Documents[itemI].Prune(selected)
	if err != nil {
		return 0, nil, err
	}
	return itemI, payload, nil
}

// firstPhaseModels returns the models with fewer than dynamic_first
// annotations across all users
func firstPhaseModels(info models.Info, all []string, counts map[string]int) []string {
	var under []string
	for _, m := range all {
		if counts[m] < info.First() {
			under = append(under, m)
		}
	}
	return under
}

func (s *dynamicStrategy) selectModels(info models.Info, all []string, stats modelStats) ([]string, string) {
	if under := firstPhaseModels(info, all, stats.counts); len(under) > 0 {
		return under, phaseFirst
	}
	if s.rng.Float64() < info.Backoff() {
		return s.rng.Sample(all, info.Contrastive()), phaseBackoff
	}
	return s.rng.Sample(stats.top(all, info.Top()), info.Contrastive()), phaseTop
}

// top ranks models by average score, highest first, ties by name. Models
// with no scores rank last.
func (st modelStats) top(all []string, n int) []string {
	ranked := slices.Clone(all)
	slices.SortStableFunc(ranked, func(a, b string) int {
		_, aok := st.scored[a]
		_, bok := st.scored[b]
		if aok != bok {
			if aok {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(st.avg(b), st.avg(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ranked[:min(n, len(ranked))]
}

func (st modelStats) avg(m string) float64 {
	if st.scored[m] == 0 {
		return 0
	}
	return st.sums[m] / float64(st.scored[m])
}

// pickItem returns the document with the fewest completed selected models
// among those with a gap, breaking ties at random
func (s *dynamicStrategy) pickItem(marks models.Progress, selected []string) (int, bool) {
	best := -1
	var candidates []int
	for i, done := range marks.Models {
		have := 0
		for _, m := range selected {
			if slices.Contains(done, m) {
				have++
			}
		}
		if have >= len(selected) {
			continue
		}
		switch {
		case best == -1 || have < best:
			best = have
			candidates = []int{i}
		case have == best:
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return s.rng.Choice(candidates), true
}

func gapModels(marks models.Progress, all []string) []string {
	var gaps []string
	for _, m := range all {
		for _, done := range marks.Models {
			if !slices.Contains(done, m) {
				gaps = append(gaps, m)
				break
			}
		}
	}
	return gaps
}

func (s *dynamicStrategy) stats(ctx context.Context, campaignID string) (modelStats, error) {
	entries, err := s.log.Query(ctx, campaignID, nil, nil)
	if err != nil {
		return modelStats{}, err
	}
	st := modelStats{
		counts: make(map[string]int),
		sums:   make(map[string]float64),
		scored: make(map[string]int),
	}
	for _, e := range entries {
		segments, err := e.Judgments()
		if err != nil {
			continue
		}
		for _, seg := range segments {
			for m, j := range seg {
				st.counts[m]++
				if j.Score != nil {
					st.sums[m] += *j.Score
					st.scored[m]++
				}
			}
		}
	}
	return st, nil
}

func (s *dynamicStrategy) ItemAt(*models.Campaign, string, int) (models.Document, error) {
	return nil, models.ErrUnsupportedAssignment
}

func (s *dynamicStrategy) Scope(string) *string { return nil }

// Record adds the annotated models to the document's set for every user
func (s *dynamicStrategy) Record(c *models.Campaign, users models.CampaignProgress, _ string, itemI int, payload models.AnnotationPayload) error {
	annotated := models.AnnotatedModels(payload.Annotation)
	for _, u := range users {
		marks := modelMarks(u.Progress, len(c.Documents))
		marks.AddModels(itemI, annotated)
		u.Progress = marks
	}
	return nil
}

func (s *dynamicStrategy) ResetMarks(users models.CampaignProgress, _ string, n int) {
	for _, u := range users {
		u.Progress = models.NewModelProgress(n)
	}
}

// modelMarks returns p as model sets sized to n documents. Progress written
// before any submission may still be a plain list.
func modelMarks(p models.Progress, n int) models.Progress {
	if p.IsModelSets() && len(p.Models) == n {
		return p
	}
	marks := models.NewModelProgress(n)
	for i := range min(n, len(p.Models)) {
		marks.Models[i] = p.Models[i]
	}
	return marks
}
