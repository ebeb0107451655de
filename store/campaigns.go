// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/quickly-annotate/models"
)

// maxParallelLoads bounds concurrent campaign file reads at boot
const maxParallelLoads = 8

// CampaignStore holds campaign definitions. It is read-only after load and
// safe for concurrent readers.
type CampaignStore struct {
	campaigns map[string]*models.Campaign
}

// NewCampaignStore builds a store from already decoded campaigns
func NewCampaignStore(campaigns ...*models.Campaign) *CampaignStore {
	s := &CampaignStore{campaigns: make(map[string]*models.Campaign, len(campaigns))}
	for _, c := range campaigns {
		s.campaigns[c.ID] = c
	}
	return s
}

// LoadCampaigns reads <dir>/<id>.json for every given campaign ID
func LoadCampaigns(ctx context.Context, dir string, ids []string) (*CampaignStore, error) {
	loaded := make([]*models.Campaign, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := loadCampaign(filepath.Join(dir, id+".json"))
			if err != nil {
				return err
			}
			if c.ID == "" {
				c.ID = id
			}
			if c.ID != id {
				return fmt.Errorf("campaign file %s.json declares campaign_id %q", id, c.ID)
			}
			loaded[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("campaigns loaded", "count", len(loaded))
	return NewCampaignStore(loaded...), nil
}

func loadCampaign(path string) (*models.Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign: %w", err)
	}
	var c models.Campaign
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &c, nil
}

// Get returns the campaign or models.ErrUnknownCampaign
func (s *CampaignStore) Get(campaignID string) (*models.Campaign, error) {
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, models.ErrUnknownCampaign
	}
	return c, nil
}

// IDs returns all campaign IDs in sorted order
func (s *CampaignStore) IDs() []string {
	return slices.Sorted(maps.Keys(s.campaigns))
}
