// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// ResetMarker is the annotation value of a tombstone entry
const ResetMarker = "__RESET__"

var resetMarkerJSON = []byte(`"` + ResetMarker + `"`)

// LogEntry is one line of a campaign's append-only annotation log.
// A nil UserID means the entry is scoped to the whole campaign.
type LogEntry struct {
	LogID       string          `json:"log_id,omitempty"`
	UserID      *string         `json:"user_id"`
	ItemI       int             `json:"item_i"`
	Annotation  json.RawMessage `json:"annotation"`
	Comment     json.RawMessage `json:"comment,omitempty"`
	Actions     []Action        `json:"actions,omitempty"`
	Validations []bool          `json:"validations,omitempty"`
	Item        json.RawMessage `json:"item,omitempty"`
	LoggedAt    *time.Time      `json:"logged_at,omitempty"`
}

// NewResetEntry returns a tombstone for (userID, itemI)
func NewResetEntry(userID *string, itemI int) LogEntry {
	return LogEntry{
		UserID:     userID,
		ItemI:      itemI,
		Annotation: append(json.RawMessage(nil), resetMarkerJSON...),
	}
}

// NewAnnotationEntry builds the log line for a submitted payload
func NewAnnotationEntry(userID string, itemI int, p AnnotationPayload) LogEntry {
	return LogEntry{
		UserID:      &userID,
		ItemI:       itemI,
		Annotation:  p.Annotation,
		Comment:     p.Comment,
		Actions:     p.Actions,
		Validations: p.Validations,
		Item:        p.Item,
	}
}

// IsReset reports whether the entry is a tombstone
func (e LogEntry) IsReset() bool {
	return bytes.Equal(bytes.TrimSpace(e.Annotation), resetMarkerJSON)
}

// User returns the user ID or "" for campaign-scoped entries
func (e LogEntry) User() string {
	if e.UserID == nil {
		return ""
	}
	return *e.UserID
}

// Existing returns the pre-fill answer for this entry
func (e LogEntry) Existing() *ExistingAnswer {
	return &ExistingAnswer{Annotation: e.Annotation, Comment: e.Comment}
}

// Judgment is the part of a per-model annotation the server interprets
type Judgment struct {
	Score *float64 `json:"score"`
}

type judgmentFields Judgment

// UnmarshalJSON ignores non-object values so free-form annotations still parse
func (j *Judgment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*j = Judgment{}
		return nil
	}
	var f judgmentFields
	if err := json.Unmarshal(data, &f); err != nil {
		*j = Judgment{}
		return nil
	}
	*j = Judgment(f)
	return nil
}

// Judgments decodes the annotation as a list of per-segment model maps.
// A single model map is treated as a one-segment document.
func (e LogEntry) Judgments() ([]map[string]Judgment, error) {
	return ParseJudgments(e.Annotation)
}

// ParseJudgments decodes an annotation payload; see LogEntry.Judgments
func ParseJudgments(raw json.RawMessage) ([]map[string]Judgment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var single map[string]Judgment
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		return []map[string]Judgment{single}, nil
	}
	var segments []map[string]Judgment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// AnnotatedModels returns the distinct model keys named in an annotation
func AnnotatedModels(raw json.RawMessage) []string {
	segments, err := ParseJudgments(raw)
	if err != nil {
		return nil
	}
	var models []string
	seen := make(map[string]bool)
	for _, seg := range segments {
		for m := range seg {
			if !seen[m] {
				seen[m] = true
				models = append(models, m)
			}
		}
	}
	return models
}
