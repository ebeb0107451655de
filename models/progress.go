// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// UserProgress is the mutable state of one user in one campaign
type UserProgress struct {
	Progress       Progress       `json:"progress"`
	Time           float64        `json:"time"`
	TimeStart      *float64       `json:"time_start"`
	TimeEnd        *float64       `json:"time_end"`
	URL            string         `json:"url,omitempty"`
	TokenCorrect   string         `json:"token_correct"`
	TokenIncorrect string         `json:"token_incorrect"`
	Validations    map[int][]bool `json:"validations,omitempty"`
}

// Clone returns a deep copy
func (p *UserProgress) Clone() *UserProgress {
	c := *p
	c.Progress = p.Progress.Clone()
	if p.TimeStart != nil {
		v := *p.TimeStart
		c.TimeStart = &v
	}
	if p.TimeEnd != nil {
		v := *p.TimeEnd
		c.TimeEnd = &v
	}
	if p.Validations != nil {
		c.Validations = make(map[int][]bool, len(p.Validations))
		for k, v := range p.Validations {
			c.Validations[k] = slices.Clone(v)
		}
	}
	return &c
}

// ResetTime clears the timing accumulators and validation outcomes
func (p *UserProgress) ResetTime() {
	p.Time = 0
	p.TimeStart = nil
	p.TimeEnd = nil
	p.Validations = map[int][]bool{}
}

// RecordActions folds client action timestamps into the timing fields.
// Gaps between consecutive actions count for at most 60 seconds.
func (p *UserProgress) RecordActions(actions []Action) {
	if len(actions) == 0 {
		return
	}
	times := make([]float64, len(actions))
	for i, a := range actions {
		times[i] = a.Time
	}

	if p.TimeStart == nil {
		start := slices.Min(times)
		p.TimeStart = &start
	}
	end := slices.Max(times)
	p.TimeEnd = &end

	for i := 1; i < len(times); i++ {
		gap := times[i] - times[i-1]
		p.Time += min(max(gap, 0), MaxActionGap)
	}
}

// MaxActionGap caps a single idle gap, in seconds
const MaxActionGap = 60.0

// Progress holds completion marks. Task-based and single-stream campaigns use
// one bool per document; dynamic campaigns record which models of each
// document have been annotated.
type Progress struct {
	Done   []bool
	Models [][]string
}

// NewBoolProgress returns n incomplete marks
func NewBoolProgress(n int) Progress {
	return Progress{Done: make([]bool, n)}
}

// NewModelProgress returns n empty model sets
func NewModelProgress(n int) Progress {
	m := make([][]string, n)
	for i := range m {
		m[i] = []string{}
	}
	return Progress{Models: m}
}

// IsModelSets reports whether the marks are per-document model sets
func (p Progress) IsModelSets() bool {
	return p.Models != nil
}

// Len returns the number of documents tracked
func (p Progress) Len() int {
	if p.IsModelSets() {
		return len(p.Models)
	}
	return len(p.Done)
}

// AllDone reports whether every bool mark is set
func (p Progress) AllDone() bool {
	return !slices.Contains(p.Done, false)
}

// AddModels merges models into the set for document i, keeping it sorted
func (p *Progress) AddModels(i int, models []string) {
	set := p.Models[i]
	for _, m := range models {
		if !slices.Contains(set, m) {
			set = append(set, m)
		}
	}
	slices.Sort(set)
	p.Models[i] = set
}

func (p Progress) Clone() Progress {
	c := Progress{Done: slices.Clone(p.Done)}
	if p.Models != nil {
		c.Models = make([][]string, len(p.Models))
		for i, s := range p.Models {
			c.Models[i] = slices.Clone(s)
			if c.Models[i] == nil {
				c.Models[i] = []string{}
			}
		}
	}
	return c
}

func (p Progress) MarshalJSON() ([]byte, error) {
	if p.IsModelSets() {
		return json.Marshal(p.Clone().Models)
	}
	if p.Done == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Done)
}

func (p *Progress) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	if len(elems) > 0 && bytes.HasPrefix(bytes.TrimSpace(elems[0]), []byte("[")) {
		var models [][]string
		if err := json.Unmarshal(data, &models); err != nil {
			return err
		}
		*p = Progress{Models: models}
		return nil
	}
	done := make([]bool, 0, len(elems))
	if err := json.Unmarshal(data, &done); err != nil {
		return err
	}
	*p = Progress{Done: done}
	return nil
}

// CampaignProgress maps user IDs to their progress within one campaign
type CampaignProgress map[string]*UserProgress

// Clone returns a deep copy
func (cp CampaignProgress) Clone() CampaignProgress {
	out := make(CampaignProgress, len(cp))
	for k, v := range cp {
		out[k] = v.Clone()
	}
	return out
}

// UserIDs returns the user IDs in sorted order
func (cp CampaignProgress) UserIDs() []string {
	return slices.Sorted(maps.Keys(cp))
}
