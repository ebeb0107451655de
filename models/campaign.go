// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Default dynamic assignment parameters
const (
	DefaultDynamicFirst       = 5
	DefaultDynamicTop         = 2
	DefaultDynamicContrastive = 1
)

// Campaign is the static definition of one annotation study.
// It is never mutated after load.
type Campaign struct {
	ID    string
	Info  Info
	Token string

	// Documents is the shared pool (single-stream, dynamic)
	Documents []Document
	// UserDocuments holds each user's private list (task-based)
	UserDocuments map[string][]Document
}

// Info holds the campaign's "info" block. Keys starting with "protocol" are
// forwarded to the client untouched.
type Info struct {
	Assignment          string     `json:"assignment"`
	Template            string     `json:"template,omitempty"`
	ValidationThreshold *Threshold `json:"validation_threshold,omitempty"`
	InstructionsGoodbye *string    `json:"instructions_goodbye,omitempty"`

	DynamicFirst       *int     `json:"dynamic_first,omitempty"`
	DynamicTop         *int     `json:"dynamic_top,omitempty"`
	DynamicContrastive *int     `json:"dynamic_contrastive_models,omitempty"`
	DynamicBackoff     *float64 `json:"dynamic_backoff,omitempty"`
	Shuffle            *bool    `json:"shuffle,omitempty"`

	Protocol map[string]json.RawMessage `json:"-"`
}

type infoFields Info

func (i *Info) UnmarshalJSON(data []byte) error {
	var fields infoFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Info(fields)
	for k, v := range raw {
		if strings.HasPrefix(k, "protocol") {
			if i.Protocol == nil {
				i.Protocol = make(map[string]json.RawMessage)
			}
			i.Protocol[k] = v
		}
	}
	return nil
}

func (i Info) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(infoFields(i))
	if err != nil || len(i.Protocol) == 0 {
		return b, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range i.Protocol {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Threshold returns the validation threshold, defaulting to integer 0
func (i Info) Threshold() Threshold {
	if i.ValidationThreshold == nil {
		return IntThreshold(0)
	}
	return *i.ValidationThreshold
}

// Goodbye returns the completion message with ${TOKEN} and ${USER_ID} filled in
func (i Info) Goodbye(token, userID string) string {
	msg := DefaultGoodbye
	if i.InstructionsGoodbye != nil {
		msg = *i.InstructionsGoodbye
	}
	return strings.NewReplacer("${TOKEN}", token, "${USER_ID}", userID).Replace(msg)
}

func (i Info) First() int       { return intOr(i.DynamicFirst, DefaultDynamicFirst) }
func (i Info) Top() int         { return intOr(i.DynamicTop, DefaultDynamicTop) }
func (i Info) Contrastive() int { return intOr(i.DynamicContrastive, DefaultDynamicContrastive) }

func (i Info) Backoff() float64 {
	if i.DynamicBackoff == nil {
		return 0
	}
	return *i.DynamicBackoff
}

// ShuffleEnabled reports whether model outputs may be shuffled or contrasted
func (i Info) ShuffleEnabled() bool {
	return i.Shuffle == nil || *i.Shuffle
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

type campaignFile struct {
	CampaignID string          `json:"campaign_id"`
	Info       Info            `json:"info"`
	Data       json.RawMessage `json:"data"`
	Token      string          `json:"token"`
}

func (c *Campaign) UnmarshalJSON(data []byte) error {
	var f campaignFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	*c = Campaign{ID: f.CampaignID, Info: f.Info, Token: f.Token}

	switch f.Info.Assignment {
	case AssignmentTaskBased:
		if err := json.Unmarshal(f.Data, &c.UserDocuments); err != nil {
			return fmt.Errorf("campaign %s: task-based data must map user IDs to documents: %w", f.CampaignID, err)
		}
	case AssignmentSingleStream, AssignmentDynamic:
		if err := json.Unmarshal(f.Data, &c.Documents); err != nil {
			return fmt.Errorf("campaign %s: data must be a list of documents: %w", f.CampaignID, err)
		}
	default:
		return fmt.Errorf("campaign %s: %w: %q", f.CampaignID, ErrUnsupportedAssignment, f.Info.Assignment)
	}
	return nil
}

func (c Campaign) MarshalJSON() ([]byte, error) {
	var data any = c.Documents
	if c.Info.Assignment == AssignmentTaskBased {
		data = c.UserDocuments
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(campaignFile{
		CampaignID: c.ID,
		Info:       c.Info,
		Data:       raw,
		Token:      c.Token,
	})
}

// DocumentsFor returns the document list a user draws from
func (c *Campaign) DocumentsFor(userID string) ([]Document, error) {
	if c.Info.Assignment == AssignmentTaskBased {
		docs, ok := c.UserDocuments[userID]
		if !ok {
			return nil, ErrUnknownUser
		}
		return docs, nil
	}
	return c.Documents, nil
}

// Models returns the sorted model set of the shared pool. Every document must
// expose the same models unless shuffling is disabled, in which case the union
// is returned.
func (c *Campaign) Models() ([]string, error) {
	var models []string
	for i, doc := range c.Documents {
		if len(doc) == 0 {
			continue
		}
		docModels, err := doc[0].Models()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if models == nil {
			models = docModels
			continue
		}
		if slices.Equal(models, docModels) {
			continue
		}
		if c.Info.ShuffleEnabled() {
			return nil, fmt.Errorf("%w: document %d", ErrDynamicNotYetEligible, i)
		}
		for _, m := range docModels {
			if !slices.Contains(models, m) {
				models = append(models, m)
			}
		}
		slices.Sort(models)
	}
	return models, nil
}

// Document is an ordered group of segments annotated together
type Document []Segment

// Segment is one source sentence with its model outputs. Unknown keys are
// carried through verbatim.
type Segment map[string]json.RawMessage

// Models returns the sorted model names keyed in the segment's tgt
func (s Segment) Models() ([]string, error) {
	raw, ok := s["tgt"]
	if !ok {
		return nil, fmt.Errorf("segment has no tgt")
	}
	var tgt map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tgt); err != nil {
		return nil, fmt.Errorf("%w: tgt must map model names to outputs", ErrDynamicNotYetEligible)
	}
	models := make([]string, 0, len(tgt))
	for m := range tgt {
		models = append(models, m)
	}
	slices.Sort(models)
	return models, nil
}

// Prune returns a copy of the document whose tgt, error_spans and validation
// maps only contain the given models
func (d Document) Prune(models []string) (Document, error) {
	out := make(Document, len(d))
	for i, seg := range d {
		pruned := make(Segment, len(seg))
		for k, v := range seg {
			pruned[k] = v
		}
		for _, key := range []string{"tgt", "error_spans", "validation"} {
			raw, ok := seg[key]
			if !ok {
				continue
			}
			var byModel map[string]json.RawMessage
			if err := json.Unmarshal(raw, &byModel); err != nil {
				return nil, fmt.Errorf("segment %d: %s must map model names: %w", i, key, err)
			}
			kept := make(map[string]json.RawMessage, len(models))
			for _, m := range models {
				if v, ok := byModel[m]; ok {
					kept[m] = v
				}
			}
			b, err := json.Marshal(kept)
			if err != nil {
				return nil, err
			}
			pruned[key] = b
		}
		out[i] = pruned
	}
	return out, nil
}
